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
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/mocks"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestDelayFor(t *testing.T) {
	base := 10 * time.Second

	t.Run("never drops below the base interval", func(t *testing.T) {
		assert.Equal(t, base, DelayFor(0, base, time.Hour))
		assert.Equal(t, base, DelayFor(1, base, time.Hour))
	})

	t.Run("grows linearly with the batch index", func(t *testing.T) {
		assert.Equal(t, 2*base, DelayFor(2, base, time.Hour))
		assert.Equal(t, 7*base, DelayFor(7, base, time.Hour))
	})

	t.Run("is monotone non-decreasing", func(t *testing.T) {
		previous := time.Duration(0)
		for i := 0; i < 100; i++ {
			delay := DelayFor(i, base, time.Hour)
			assert.GreaterOrEqual(t, delay, previous)
			previous = delay
		}
	})

	t.Run("is capped by the max delay", func(t *testing.T) {
		assert.Equal(t, time.Minute, DelayFor(1000, base, time.Minute))
	})
}

func TestScheduleSweep(t *testing.T) {
	base := 10 * time.Second
	config := Config{BatchSize: 100, SliceSize: 25, BaseDelay: base, MaxDelay: time.Hour}

	t.Run("250 projects yield 250 dedup unique tasks across 3 batches", func(t *testing.T) {
		configurationID := uuid.New()
		namespaceID := uuid.New()
		policy := models.Policy{
			Model:                 models.Model{ID: uuid.New()},
			PolicyConfigurationID: configurationID,
			Type:                  models.PolicyTypeApproval,
			Enabled:               true,
			Content:               datatypes.JSON(`{"rules":[]}`),
			Scope:                 datatypes.JSON(`{}`),
		}

		projectIDs := make([]uuid.UUID, 250)
		for i := range projectIDs {
			projectIDs[i] = uuid.New()
		}

		configurationRepository := mocks.NewPolicyConfigurationRepository(t)
		configurationRepository.On("Read", configurationID).Return(models.PolicyConfiguration{
			Model:       models.Model{ID: configurationID},
			NamespaceID: &namespaceID,
		}, nil)

		resolver := mocks.NewScopeResolver(t)
		resolver.On("ForEachProjectBatch", mock.Anything, mock.Anything, mock.Anything, 100, mock.Anything).
			Run(func(args mock.Arguments) {
				fn := args.Get(4).(func([]uuid.UUID) error)
				for start := 0; start < len(projectIDs); start += 100 {
					end := min(start+100, len(projectIDs))
					require.NoError(t, fn(projectIDs[start:end]))
				}
			}).Return(nil)

		tracker := mocks.NewSyncTracker(t)
		tracker.On("Start", configurationID, 0).Return(nil).Once()
		tracker.On("AddExpected", configurationID, 100).Return(nil).Twice()
		tracker.On("AddExpected", configurationID, 50).Return(nil).Once()

		var specs []shared.TaskSpec
		queue := mocks.NewTaskQueue(t)
		queue.On("EnqueueBatch", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				specs = append(specs, args.Get(1).([]shared.TaskSpec)...)
			}).Return(nil)

		scheduler := NewFanoutScheduler(config, configurationRepository, resolver, tracker, queue)
		err := scheduler.ScheduleSweep(context.Background(), policy, map[string]any{"needsRefresh": true}, nil)
		require.NoError(t, err)

		require.Len(t, specs, 250)

		dedupKeys := map[string]struct{}{}
		for _, spec := range specs {
			assert.Equal(t, TaskKindReconcileProject, spec.Kind)
			dedupKeys[spec.DedupKey] = struct{}{}
		}
		assert.Len(t, dedupKeys, 250, "every (project, policy) pair gets a unique dedup key")

		// batches of 100/100/50 share delays base, base, 2*base
		for i, spec := range specs {
			switch {
			case i < 100:
				assert.Equal(t, base, spec.Delay)
			case i < 200:
				assert.Equal(t, base, spec.Delay)
			default:
				assert.Equal(t, 2*base, spec.Delay)
			}
		}
	})

	t.Run("disabled policies schedule nothing", func(t *testing.T) {
		policy := models.Policy{
			Model:   models.Model{ID: uuid.New()},
			Enabled: false,
		}
		scheduler := NewFanoutScheduler(config, mocks.NewPolicyConfigurationRepository(t), mocks.NewScopeResolver(t), mocks.NewSyncTracker(t), mocks.NewTaskQueue(t))
		err := scheduler.ScheduleSweep(context.Background(), policy, map[string]any{"needsRefresh": true}, nil)
		require.NoError(t, err)
	})

	t.Run("tombstoned policies schedule nothing", func(t *testing.T) {
		policy := models.Policy{
			Model:       models.Model{ID: uuid.New()},
			Enabled:     true,
			PolicyIndex: models.TombstonePolicyIndex,
		}
		scheduler := NewFanoutScheduler(config, mocks.NewPolicyConfigurationRepository(t), mocks.NewScopeResolver(t), mocks.NewSyncTracker(t), mocks.NewTaskQueue(t))
		err := scheduler.ScheduleSweep(context.Background(), policy, map[string]any{"needsRefresh": true}, nil)
		require.NoError(t, err)
	})

	t.Run("changes and event are mutually exclusive", func(t *testing.T) {
		policy := models.Policy{Model: models.Model{ID: uuid.New()}, Enabled: true}
		scheduler := NewFanoutScheduler(config, mocks.NewPolicyConfigurationRepository(t), mocks.NewScopeResolver(t), mocks.NewSyncTracker(t), mocks.NewTaskQueue(t))

		err := scheduler.ScheduleSweep(context.Background(), policy, nil, nil)
		require.Error(t, err)
	})
}
