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
	"encoding/json"

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
)

// RuleService materializes the derived enforcement rows of a policy for one
// project. It only creates - the reconciler deletes stale rows first, which
// together yields the delete-then-regenerate idempotence.
type RuleService struct {
	linkRepository shared.ProjectPolicyLinkRepository
}

func NewRuleService(linkRepository shared.ProjectPolicyLinkRepository) *RuleService {
	return &RuleService{linkRepository: linkRepository}
}

// RegenerateRules rebuilds all rule row types of the policy.
func (s *RuleService) RegenerateRules(tx shared.DB, policy models.Policy, projectID uuid.UUID) error {
	return s.generate(tx, policy, projectID, policy.RuleTypes())
}

// RefreshRuleRows rebuilds only the primary rule rows. Used for narrow
// changes that do not touch scope membership or secondary artifacts.
func (s *RuleService) RefreshRuleRows(tx shared.DB, policy models.Policy, projectID uuid.UUID) error {
	ruleTypes := policy.RuleTypes()
	if len(ruleTypes) == 0 {
		return nil
	}
	return s.generate(tx, policy, projectID, ruleTypes[:1])
}

func (s *RuleService) generate(tx shared.DB, policy models.Policy, projectID uuid.UUID, ruleTypes []models.RuleType) error {
	links, err := buildLinks(policy, projectID, ruleTypes)
	if err != nil {
		return err
	}
	return s.linkRepository.CreateBatch(tx, links)
}

// buildLinks produces one row per rule per rule type. Each row embeds its
// rule body and the policy's actions so enforcement never needs to re-read
// the policy.
func buildLinks(policy models.Policy, projectID uuid.UUID, ruleTypes []models.RuleType) ([]models.ProjectPolicyLink, error) {
	content, err := policy.ParseContent()
	if err != nil {
		return nil, err
	}
	rules, _ := content["rules"].([]any)
	actions := content["actions"]

	links := make([]models.ProjectPolicyLink, 0, len(rules)*len(ruleTypes))
	for _, ruleType := range ruleTypes {
		for index, rule := range rules {
			ruleData, err := json.Marshal(map[string]any{
				"rule":    rule,
				"actions": actions,
			})
			if err != nil {
				return nil, errors.Wrap(err, "could not encode rule data")
			}
			links = append(links, models.ProjectPolicyLink{
				ProjectID: projectID,
				PolicyID:  policy.ID,
				RuleType:  ruleType,
				RuleIndex: index,
				RuleData:  datatypes.JSON(ruleData),
			})
		}
	}
	return links, nil
}
