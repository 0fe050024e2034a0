// Copyright (C) 2025 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package models

import "github.com/google/uuid"

// PolicyConfiguration owns a container's set of policies. It is bound to
// exactly one project OR one namespace - the check constraint lives in the
// migration. The management project stores the policy-as-code source.
type PolicyConfiguration struct {
	Model
	ProjectID           *uuid.UUID `json:"projectId" gorm:"type:uuid;uniqueIndex:idx_policy_config_project"`
	NamespaceID         *uuid.UUID `json:"namespaceId" gorm:"type:uuid;uniqueIndex:idx_policy_config_namespace"`
	ManagementProjectID uuid.UUID  `json:"managementProjectId" gorm:"type:uuid;not null"`
	// Source is the raw policy-as-code YAML document.
	Source         string   `json:"source" gorm:"type:text"`
	SourceChecksum string   `json:"sourceChecksum" gorm:"type:text"`
	Policies       []Policy `json:"policies" gorm:"foreignKey:PolicyConfigurationID;references:ID;constraint:OnDelete:CASCADE;"`
}

func (PolicyConfiguration) TableName() string {
	return "policy_configurations"
}

// OwnerNamespaceID returns the namespace the configuration is bound to, nil
// for project-level configurations.
func (c PolicyConfiguration) OwnerNamespaceID() *uuid.UUID {
	return c.NamespaceID
}
