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

type policyConfigurationRepository struct {
	db shared.DB
	utils.Repository[uuid.UUID, models.PolicyConfiguration, shared.DB]
}

func NewPolicyConfigurationRepository(db shared.DB) *policyConfigurationRepository {
	return &policyConfigurationRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.PolicyConfiguration](db),
	}
}

func (r *policyConfigurationRepository) FindByProjectID(projectID uuid.UUID) (models.PolicyConfiguration, error) {
	var configuration models.PolicyConfiguration
	err := r.db.Where("project_id = ?", projectID).First(&configuration).Error
	return configuration, err
}

func (r *policyConfigurationRepository) FindByNamespaceID(namespaceID uuid.UUID) (models.PolicyConfiguration, error) {
	var configuration models.PolicyConfiguration
	err := r.db.Where("namespace_id = ?", namespaceID).First(&configuration).Error
	return configuration, err
}
