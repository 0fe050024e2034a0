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
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RuleType classifies the derived enforcement rows a policy materializes per
// project.
type RuleType string

const (
	RuleTypeApproval          RuleType = "approval"
	RuleTypeScanExecution     RuleType = "scan-execution"
	RuleTypeScanResultRead    RuleType = "scan-result-read"
	RuleTypePipelineInjection RuleType = "pipeline-injection"
	RuleTypeVulnResolution    RuleType = "vuln-resolution"
)

// ProjectPolicyLink is a derived row, materialized only for projects
// currently in scope. It is disposable: the reconciler may delete and
// regenerate it from (policy, scope) at any time without data loss.
type ProjectPolicyLink struct {
	Model
	ProjectID uuid.UUID      `json:"projectId" gorm:"type:uuid;not null;uniqueIndex:idx_link_project_policy_rule;index"`
	PolicyID  uuid.UUID      `json:"policyId" gorm:"type:uuid;not null;uniqueIndex:idx_link_project_policy_rule;index"`
	RuleType  RuleType       `json:"ruleType" gorm:"type:text;not null;uniqueIndex:idx_link_project_policy_rule"`
	RuleIndex int            `json:"ruleIndex" gorm:"not null;default:0;uniqueIndex:idx_link_project_policy_rule"`
	RuleData  datatypes.JSON `json:"ruleData" gorm:"type:jsonb"`
}

func (ProjectPolicyLink) TableName() string {
	return "project_policy_links"
}
