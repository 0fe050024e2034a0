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

package policysync

import (
	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/dtos"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type syncTracker struct {
	syncStateRepository shared.SyncStateRepository
}

// NewSyncTracker wraps the sync state repository into the tracker contract:
// idempotent sweep start, commutative increments, zero state for unknown
// configurations.
func NewSyncTracker(syncStateRepository shared.SyncStateRepository) *syncTracker {
	return &syncTracker{syncStateRepository: syncStateRepository}
}

func (t *syncTracker) Start(configurationID uuid.UUID, expected int) error {
	return t.syncStateRepository.Reset(configurationID, expected)
}

func (t *syncTracker) AddExpected(configurationID uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	return t.syncStateRepository.AddExpected(configurationID, delta)
}

func (t *syncTracker) RecordSuccess(configurationID, projectID uuid.UUID) error {
	return t.syncStateRepository.IncrementSucceeded(configurationID)
}

func (t *syncTracker) RecordFailure(configurationID, projectID uuid.UUID) error {
	return t.syncStateRepository.IncrementFailed(configurationID)
}

func (t *syncTracker) Status(configurationID uuid.UUID) (dtos.SyncStatus, error) {
	state, err := t.syncStateRepository.Get(configurationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// never started - report a zero state instead of an error
		return dtos.SyncStatus{}, nil
	}
	if err != nil {
		return dtos.SyncStatus{}, err
	}

	inFlight := state.Expected - state.Succeeded - state.Failed
	if inFlight < 0 {
		inFlight = 0
	}
	return dtos.SyncStatus{
		Expected:  state.Expected,
		Succeeded: state.Succeeded,
		Failed:    state.Failed,
		InFlight:  inFlight,
	}, nil
}
