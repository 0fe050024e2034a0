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
	"testing"

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database/repositories"
	"github.com/l3montree-dev/policyhub/dtos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncTracker(t *testing.T) {
	t.Run("unknown configurations report a zero state", func(t *testing.T) {
		tracker := NewSyncTracker(repositories.NewSyncStateRepository(newTestDB(t)))

		status, err := tracker.Status(uuid.New())
		require.NoError(t, err)
		assert.Equal(t, dtos.SyncStatus{}, status)
	})

	t.Run("counts accumulate through atomic increments", func(t *testing.T) {
		tracker := NewSyncTracker(repositories.NewSyncStateRepository(newTestDB(t)))
		configurationID := uuid.New()

		require.NoError(t, tracker.Start(configurationID, 0))
		require.NoError(t, tracker.AddExpected(configurationID, 100))
		require.NoError(t, tracker.AddExpected(configurationID, 50))

		for i := 0; i < 3; i++ {
			require.NoError(t, tracker.RecordSuccess(configurationID, uuid.New()))
		}
		require.NoError(t, tracker.RecordFailure(configurationID, uuid.New()))

		status, err := tracker.Status(configurationID)
		require.NoError(t, err)
		assert.Equal(t, dtos.SyncStatus{
			Expected:  150,
			Succeeded: 3,
			Failed:    1,
			InFlight:  146,
		}, status)
	})

	t.Run("a new sweep resets the previous counters", func(t *testing.T) {
		tracker := NewSyncTracker(repositories.NewSyncStateRepository(newTestDB(t)))
		configurationID := uuid.New()

		require.NoError(t, tracker.Start(configurationID, 0))
		require.NoError(t, tracker.AddExpected(configurationID, 10))
		require.NoError(t, tracker.RecordSuccess(configurationID, uuid.New()))

		require.NoError(t, tracker.Start(configurationID, 0))

		status, err := tracker.Status(configurationID)
		require.NoError(t, err)
		assert.Equal(t, dtos.SyncStatus{}, status)
	})

	t.Run("in flight never goes negative", func(t *testing.T) {
		tracker := NewSyncTracker(repositories.NewSyncStateRepository(newTestDB(t)))
		configurationID := uuid.New()

		require.NoError(t, tracker.Start(configurationID, 0))
		require.NoError(t, tracker.RecordSuccess(configurationID, uuid.New()))
		require.NoError(t, tracker.RecordSuccess(configurationID, uuid.New()))

		status, err := tracker.Status(configurationID)
		require.NoError(t, err)
		assert.Equal(t, 0, status.InFlight)
		assert.Equal(t, 2, status.Succeeded)
	})
}
