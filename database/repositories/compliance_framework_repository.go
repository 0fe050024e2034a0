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
	"gorm.io/gorm/clause"
)

type complianceFrameworkRepository struct {
	db shared.DB
	utils.Repository[uuid.UUID, models.ComplianceFramework, shared.DB]
}

func NewComplianceFrameworkRepository(db shared.DB) *complianceFrameworkRepository {
	return &complianceFrameworkRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.ComplianceFramework](db),
	}
}

func (r *complianceFrameworkRepository) FindLinkedFrameworkIDs(policyID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.Model(&models.PolicyComplianceLink{}).
		Where("policy_id = ?", policyID).
		Pluck("framework_id", &ids).Error
	return ids, err
}

// ReplacePolicyLinks swaps the policy's framework links to exactly the given
// set.
func (r *complianceFrameworkRepository) ReplacePolicyLinks(policyID uuid.UUID, frameworkIDs []uuid.UUID) error {
	return r.db.Transaction(func(tx shared.DB) error {
		if err := tx.Where("policy_id = ?", policyID).Delete(&models.PolicyComplianceLink{}).Error; err != nil {
			return err
		}
		if len(frameworkIDs) == 0 {
			return nil
		}
		links := utils.Map(frameworkIDs, func(frameworkID uuid.UUID) models.PolicyComplianceLink {
			return models.PolicyComplianceLink{PolicyID: policyID, FrameworkID: frameworkID}
		})
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	})
}

// UnlinkPolicyFrameworks removes only the given framework links of a policy.
func (r *complianceFrameworkRepository) UnlinkPolicyFrameworks(policyID uuid.UUID, frameworkIDs []uuid.UUID) error {
	if len(frameworkIDs) == 0 {
		return nil
	}
	return r.db.Where("policy_id = ? AND framework_id IN ?", policyID, frameworkIDs).
		Delete(&models.PolicyComplianceLink{}).Error
}

// LinkPolicyFrameworks adds the given framework links of a policy.
func (r *complianceFrameworkRepository) LinkPolicyFrameworks(policyID uuid.UUID, frameworkIDs []uuid.UUID) error {
	if len(frameworkIDs) == 0 {
		return nil
	}
	links := utils.Map(frameworkIDs, func(frameworkID uuid.UUID) models.PolicyComplianceLink {
		return models.PolicyComplianceLink{PolicyID: policyID, FrameworkID: frameworkID}
	})
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}
