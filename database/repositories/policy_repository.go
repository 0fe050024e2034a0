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

type policyRepository struct {
	db shared.DB
	utils.Repository[uuid.UUID, models.Policy, shared.DB]
}

func NewPolicyRepository(db shared.DB) *policyRepository {
	return &policyRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.Policy](db),
	}
}

// FindActiveByConfigurationID returns all non tombstoned policies of a
// configuration. Disabled policies are included - a disabled policy still
// owns its (type, index) slot.
func (r *policyRepository) FindActiveByConfigurationID(configurationID uuid.UUID) ([]models.Policy, error) {
	var policies []models.Policy
	if err := r.db.Where("policy_configuration_id = ? AND policy_index >= 0", configurationID).
		Order("type ASC, policy_index ASC").
		Find(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

// FindTombstoned returns all soft deleted policies, used by the maintenance
// daemon to re-enqueue lost deletion tasks.
func (r *policyRepository) FindTombstoned() ([]models.Policy, error) {
	var policies []models.Policy
	if err := r.db.Where("policy_index = ?", models.TombstonePolicyIndex).Find(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

// DeleteWithRules removes the policy's derived rule rows and the policy row
// itself in a single transaction. A failure mid delete leaves everything in
// place.
func (r *policyRepository) DeleteWithRules(policyID uuid.UUID) error {
	return r.Transaction(func(tx shared.DB) error {
		if err := tx.Where("policy_id = ?", policyID).Delete(&models.ProjectPolicyLink{}).Error; err != nil {
			return err
		}
		if err := tx.Where("policy_id = ?", policyID).Delete(&models.PolicyComplianceLink{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Policy{}, "id = ?", policyID).Error
	})
}
