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

package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
)

// policyDocument is the shape of the policy-as-code YAML source stored on a
// configuration's management project.
type policyDocument struct {
	ApprovalPolicies                  []policyDefinition `yaml:"approval_policy"`
	ScanExecutionPolicies             []policyDefinition `yaml:"scan_execution_policy"`
	PipelineExecutionPolicies         []policyDefinition `yaml:"pipeline_execution_policy"`
	VulnerabilityManagementPolicies   []policyDefinition `yaml:"vulnerability_management_policy"`
	PipelineExecutionSchedulePolicies []policyDefinition `yaml:"pipeline_execution_schedule_policy"`
}

type policyDefinition struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Enabled     bool             `yaml:"enabled"`
	Rules       []map[string]any `yaml:"rules"`
	Actions     []map[string]any `yaml:"actions"`
	Scope       map[string]any   `yaml:"policy_scope"`
}

// PolicyService parses policy-as-code sources into policy rows. Parsed
// results are cached per configuration until the source changes.
type PolicyService struct {
	cache *expirable.LRU[uuid.UUID, []models.Policy]
}

func NewPolicyService() *PolicyService {
	return &PolicyService{
		cache: expirable.NewLRU[uuid.UUID, []models.Policy](512, nil, 15*time.Minute),
	}
}

func (s *PolicyService) ParseSource(configuration models.PolicyConfiguration) ([]models.Policy, error) {
	if cached, ok := s.cache.Get(configuration.ID); ok {
		return cached, nil
	}

	var doc policyDocument
	if err := yaml.Unmarshal([]byte(configuration.Source), &doc); err != nil {
		return nil, errors.Wrap(err, "could not parse policy source")
	}

	var policies []models.Policy
	groups := []struct {
		policyType  models.PolicyType
		definitions []policyDefinition
	}{
		{models.PolicyTypeApproval, doc.ApprovalPolicies},
		{models.PolicyTypeScanExecution, doc.ScanExecutionPolicies},
		{models.PolicyTypePipelineExecution, doc.PipelineExecutionPolicies},
		{models.PolicyTypeVulnerabilityManagement, doc.VulnerabilityManagementPolicies},
		{models.PolicyTypePipelineExecutionSchedule, doc.PipelineExecutionSchedulePolicies},
	}

	for _, group := range groups {
		for index, definition := range group.definitions {
			policy, err := policyFromDefinition(configuration.ID, group.policyType, index, definition)
			if err != nil {
				return nil, err
			}
			policies = append(policies, policy)
		}
	}

	s.cache.Add(configuration.ID, policies)
	return policies, nil
}

func (s *PolicyService) InvalidateCache(configurationID uuid.UUID) {
	s.cache.Remove(configurationID)
}

func policyFromDefinition(configurationID uuid.UUID, policyType models.PolicyType, index int, definition policyDefinition) (models.Policy, error) {
	content := map[string]any{
		"name":        definition.Name,
		"description": definition.Description,
		"rules":       definition.Rules,
		"actions":     definition.Actions,
	}
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return models.Policy{}, errors.Wrap(err, "could not encode policy content")
	}
	scopeJSON, err := json.Marshal(definition.Scope)
	if err != nil {
		return models.Policy{}, errors.Wrap(err, "could not encode policy scope")
	}

	return models.Policy{
		PolicyConfigurationID: configurationID,
		PolicyIndex:           index,
		Type:                  policyType,
		Enabled:               definition.Enabled,
		Content:               datatypes.JSON(contentJSON),
		Scope:                 datatypes.JSON(scopeJSON),
		Checksum:              ContentChecksum(content),
	}, nil
}

// ContentChecksum is the sha256 over the normalized content encoding.
// encoding/json sorts map keys, so two semantically equal contents always
// hash identically regardless of source ordering.
func ContentChecksum(content map[string]any) string {
	b, err := json.Marshal(content)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
