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
	"time"

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type syncStateRepository struct {
	db shared.DB
}

func NewSyncStateRepository(db shared.DB) *syncStateRepository {
	return &syncStateRepository{db: db}
}

// Reset upserts the configuration's sync state back to zero counters. A new
// sweep supersedes the old one, so stale counts never leak across sweeps.
func (r *syncStateRepository) Reset(configurationID uuid.UUID, expected int) error {
	state := models.SyncState{
		PolicyConfigurationID: configurationID,
		Expected:              expected,
		Succeeded:             0,
		Failed:                0,
		StartedAt:             time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "policy_configuration_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"expected", "succeeded", "failed", "started_at"}),
	}).Create(&state).Error
}

// AddExpected atomically raises the expected count while a fan-out sweep is
// still enumerating its scope.
func (r *syncStateRepository) AddExpected(configurationID uuid.UUID, delta int) error {
	return r.db.Model(&models.SyncState{}).
		Where("policy_configuration_id = ?", configurationID).
		Update("expected", gorm.Expr("expected + ?", delta)).Error
}

// IncrementSucceeded and IncrementFailed are increment-only and commutative.
// Many reconcilers report concurrently - read-modify-write would lose counts.
func (r *syncStateRepository) IncrementSucceeded(configurationID uuid.UUID) error {
	return r.db.Model(&models.SyncState{}).
		Where("policy_configuration_id = ?", configurationID).
		Update("succeeded", gorm.Expr("succeeded + 1")).Error
}

func (r *syncStateRepository) IncrementFailed(configurationID uuid.UUID) error {
	return r.db.Model(&models.SyncState{}).
		Where("policy_configuration_id = ?", configurationID).
		Update("failed", gorm.Expr("failed + 1")).Error
}

func (r *syncStateRepository) Get(configurationID uuid.UUID) (models.SyncState, error) {
	var state models.SyncState
	err := r.db.Where("policy_configuration_id = ?", configurationID).First(&state).Error
	return state, err
}
