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

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/dtos"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
)

type PolicyType string

const (
	PolicyTypeApproval                  PolicyType = "approval"
	PolicyTypeScanExecution             PolicyType = "scan-execution"
	PolicyTypePipelineExecution         PolicyType = "pipeline-execution"
	PolicyTypeVulnerabilityManagement   PolicyType = "vulnerability-management"
	PolicyTypePipelineExecutionSchedule PolicyType = "pipeline-execution-schedule"
)

// TombstonePolicyIndex marks a soft deleted policy. The row stays in storage
// until the deletion worker removes it together with its rule rows.
const TombstonePolicyIndex = -1

// Policy is one governance rule inside a configuration. Synchronization never
// mutates a policy - it reads it and mutates derived state.
type Policy struct {
	Model
	PolicyConfigurationID uuid.UUID           `json:"policyConfigurationId" gorm:"type:uuid;not null;index"`
	PolicyConfiguration   PolicyConfiguration `json:"-" gorm:"foreignKey:PolicyConfigurationID;references:ID;constraint:OnDelete:CASCADE;"`
	// PolicyIndex is monotonically increasing within a configuration.
	// TombstonePolicyIndex (-1) marks a soft deleted policy. The uniqueness
	// of (configuration, type, index) among non tombstoned policies is a
	// partial index, defined in the migrations.
	PolicyIndex int            `json:"policyIndex" gorm:"not null"`
	Type        PolicyType     `json:"type" gorm:"type:text;not null"`
	Enabled     bool           `json:"enabled" gorm:"not null;default:false"`
	Content     datatypes.JSON `json:"content" gorm:"type:jsonb"`
	Scope       datatypes.JSON `json:"scope" gorm:"type:jsonb"`
	// Checksum over the normalized content, used to detect no-op edits.
	Checksum string `json:"checksum" gorm:"type:text"`
}

func (Policy) TableName() string {
	return "policies"
}

func (p Policy) IsTombstoned() bool {
	return p.PolicyIndex == TombstonePolicyIndex
}

func (p Policy) ParseScope() (dtos.PolicyScope, error) {
	var scope dtos.PolicyScope
	if len(p.Scope) == 0 {
		return scope, nil
	}
	if err := json.Unmarshal(p.Scope, &scope); err != nil {
		return scope, errors.Wrap(err, "could not parse policy scope")
	}
	return scope, nil
}

func (p Policy) ParseContent() (map[string]any, error) {
	content := map[string]any{}
	if len(p.Content) == 0 {
		return content, nil
	}
	if err := json.Unmarshal(p.Content, &content); err != nil {
		return nil, errors.Wrap(err, "could not parse policy content")
	}
	return content, nil
}

// RuleTypes returns the derived rule row types a policy of this type
// materializes per project. The reconciler deletes exactly these before
// regenerating.
func (p Policy) RuleTypes() []RuleType {
	switch p.Type {
	case PolicyTypeApproval:
		return []RuleType{RuleTypeApproval, RuleTypeScanResultRead}
	case PolicyTypeScanExecution:
		return []RuleType{RuleTypeScanExecution}
	case PolicyTypePipelineExecution, PolicyTypePipelineExecutionSchedule:
		return []RuleType{RuleTypePipelineInjection}
	case PolicyTypeVulnerabilityManagement:
		return []RuleType{RuleTypeVulnResolution}
	}
	return nil
}
