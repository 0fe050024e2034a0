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

// Namespace is a node in the container hierarchy. Policies bound to a
// namespace apply to every project of the namespace and its descendants.
type Namespace struct {
	Model
	Name     string     `json:"name" gorm:"type:text;not null"`
	Slug     string     `json:"slug" gorm:"type:text;uniqueIndex;not null"`
	ParentID *uuid.UUID `json:"parentId" gorm:"type:uuid;index"`
}

func (Namespace) TableName() string {
	return "namespaces"
}

type Project struct {
	Model
	Name        string                `json:"name" gorm:"type:text;not null"`
	Slug        string                `json:"slug" gorm:"type:text;uniqueIndex:idx_project_namespace_slug;not null"`
	NamespaceID uuid.UUID             `json:"namespaceId" gorm:"type:uuid;uniqueIndex:idx_project_namespace_slug;not null;index"`
	Namespace   Namespace             `json:"-" gorm:"foreignKey:NamespaceID;references:ID;constraint:OnDelete:CASCADE;"`
	Frameworks  []ComplianceFramework `json:"frameworks" gorm:"many2many:project_compliance_frameworks;"`
}

func (Project) TableName() string {
	return "projects"
}

type ComplianceFramework struct {
	Model
	Name string `json:"name" gorm:"type:text;uniqueIndex;not null"`
}

func (ComplianceFramework) TableName() string {
	return "compliance_frameworks"
}

// PolicyComplianceLink associates a policy with a compliance framework it is
// scoped to. Maintained by the framework linking service whenever a policy's
// scope changes.
type PolicyComplianceLink struct {
	PolicyID    uuid.UUID `json:"policyId" gorm:"primarykey;type:uuid"`
	FrameworkID uuid.UUID `json:"frameworkId" gorm:"primarykey;type:uuid"`
}

func (PolicyComplianceLink) TableName() string {
	return "policy_compliance_links"
}
