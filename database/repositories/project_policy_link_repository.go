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

package repositories

import (
	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/l3montree-dev/policyhub/utils"
)

type projectPolicyLinkRepository struct {
	db shared.DB
	utils.Repository[uuid.UUID, models.ProjectPolicyLink, shared.DB]
}

func NewProjectPolicyLinkRepository(db shared.DB) *projectPolicyLinkRepository {
	return &projectPolicyLinkRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.ProjectPolicyLink](db),
	}
}

// DeleteByProjectAndPolicy removes the derived rows of the given rule types
// for one (project, policy) pair. Used by the reconciler's
// delete-then-regenerate step.
func (r *projectPolicyLinkRepository) DeleteByProjectAndPolicy(tx shared.DB, projectID, policyID uuid.UUID, ruleTypes []models.RuleType) error {
	if len(ruleTypes) == 0 {
		return nil
	}
	return r.GetDB(tx).
		Where("project_id = ? AND policy_id = ? AND rule_type IN ?", projectID, policyID, ruleTypes).
		Delete(&models.ProjectPolicyLink{}).Error
}

func (r *projectPolicyLinkRepository) FindByProjectAndPolicy(projectID, policyID uuid.UUID) ([]models.ProjectPolicyLink, error) {
	var links []models.ProjectPolicyLink
	err := r.db.Where("project_id = ? AND policy_id = ?", projectID, policyID).
		Order("rule_type ASC, rule_index ASC").
		Find(&links).Error
	return links, err
}
