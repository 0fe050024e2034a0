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

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/dtos"
	"github.com/l3montree-dev/policyhub/mocks"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type dispatcherMocks struct {
	policyRepository *mocks.PolicyRepository
	scheduler        *mocks.FanoutScheduler
	frameworkLinker  *mocks.FrameworkLinker
	pipelineSyncer   *mocks.PipelineMetadataSyncer
	queue            *mocks.TaskQueue
}

func newDispatcher(t *testing.T) (*Dispatcher, dispatcherMocks) {
	m := dispatcherMocks{
		policyRepository: mocks.NewPolicyRepository(t),
		scheduler:        mocks.NewFanoutScheduler(t),
		frameworkLinker:  mocks.NewFrameworkLinker(t),
		pipelineSyncer:   mocks.NewPipelineMetadataSyncer(t),
		queue:            mocks.NewTaskQueue(t),
	}
	d := NewDispatcher(Config{ScopedFrameworkRelink: true}, m.policyRepository, m.scheduler, m.frameworkLinker, m.pipelineSyncer, m.queue)
	return d, m
}

func activePolicy(id uuid.UUID) models.Policy {
	return models.Policy{
		Model:                 models.Model{ID: id},
		PolicyConfigurationID: uuid.New(),
		Type:                  models.PolicyTypeApproval,
		Enabled:               true,
		Content:               datatypes.JSON(`{"rules":[]}`),
		Scope:                 datatypes.JSON(`{}`),
	}
}

func TestHandleEvent(t *testing.T) {
	t.Run("unknown event kinds surface an error", func(t *testing.T) {
		d, _ := newDispatcher(t)
		err := d.HandleEvent(context.Background(), dtos.PolicyLifecycleEvent{
			Kind:     dtos.PolicyEventKind("renamed"),
			PolicyID: uuid.New(),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown policy event kind")
	})

	t.Run("created events sweep with full changes", func(t *testing.T) {
		d, m := newDispatcher(t)
		policy := activePolicy(uuid.New())

		m.policyRepository.On("Read", policy.ID).Return(policy, nil)
		m.pipelineSyncer.On("SyncPipelineExecutionMetadata", policy).Return(nil)
		m.frameworkLinker.On("SyncFrameworkLinks", policy, (*dtos.PolicyDiff)(nil)).Return(nil)
		m.scheduler.On("ScheduleSweep", mock.Anything, policy, mock.Anything, (*dtos.SourceEvent)(nil)).
			Run(func(args mock.Arguments) {
				changes := args.Get(2).(map[string]any)
				assert.Equal(t, true, changes["needsRefresh"])
			}).Return(nil)

		err := d.HandleEvent(context.Background(), dtos.PolicyLifecycleEvent{Kind: dtos.PolicyEventCreated, PolicyID: policy.ID})
		require.NoError(t, err)
	})

	t.Run("created event for a vanished policy is a silent no-op", func(t *testing.T) {
		d, m := newDispatcher(t)
		policyID := uuid.New()
		m.policyRepository.On("Read", policyID).Return(models.Policy{}, gorm.ErrRecordNotFound)

		err := d.HandleEvent(context.Background(), dtos.PolicyLifecycleEvent{Kind: dtos.PolicyEventCreated, PolicyID: policyID})
		require.NoError(t, err)
		m.scheduler.AssertNotCalled(t, "ScheduleSweep", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("created event for a disabled policy schedules nothing", func(t *testing.T) {
		d, m := newDispatcher(t)
		policy := activePolicy(uuid.New())
		policy.Enabled = false
		m.policyRepository.On("Read", policy.ID).Return(policy, nil)

		err := d.HandleEvent(context.Background(), dtos.PolicyLifecycleEvent{Kind: dtos.PolicyEventCreated, PolicyID: policy.ID})
		require.NoError(t, err)
		m.scheduler.AssertNotCalled(t, "ScheduleSweep", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("resync events carry the source event through", func(t *testing.T) {
		d, m := newDispatcher(t)
		policy := activePolicy(uuid.New())
		sourceEvent := &dtos.SourceEvent{
			EventType: dtos.SourceEventDefaultBranchChanged,
			Data:      map[string]any{"branch": "main"},
		}

		m.policyRepository.On("Read", policy.ID).Return(policy, nil)
		m.pipelineSyncer.On("SyncPipelineExecutionMetadata", policy).Return(nil)
		m.frameworkLinker.On("SyncFrameworkLinks", policy, (*dtos.PolicyDiff)(nil)).Return(nil)
		m.scheduler.On("ScheduleSweep", mock.Anything, policy, map[string]any(nil), sourceEvent).Return(nil)

		err := d.HandleEvent(context.Background(), dtos.PolicyLifecycleEvent{
			Kind:     dtos.PolicyEventResync,
			PolicyID: policy.ID,
			Event:    sourceEvent,
		})
		require.NoError(t, err)
	})

	t.Run("updated events with a cosmetic diff stop before the sweep", func(t *testing.T) {
		d, m := newDispatcher(t)
		policy := activePolicy(uuid.New())

		m.policyRepository.On("Read", policy.ID).Return(policy, nil)
		m.pipelineSyncer.On("SyncPipelineExecutionMetadata", policy).Return(nil)

		err := d.HandleEvent(context.Background(), dtos.PolicyLifecycleEvent{
			Kind:     dtos.PolicyEventUpdated,
			PolicyID: policy.ID,
			Diff:     &dtos.PolicyDiff{ContentChanged: true},
		})
		require.NoError(t, err)
		m.scheduler.AssertNotCalled(t, "ScheduleSweep", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("updated events without a diff are dropped", func(t *testing.T) {
		d, m := newDispatcher(t)

		err := d.HandleEvent(context.Background(), dtos.PolicyLifecycleEvent{
			Kind:     dtos.PolicyEventUpdated,
			PolicyID: uuid.New(),
		})
		require.NoError(t, err)
		m.policyRepository.AssertNotCalled(t, "Read", mock.Anything)
	})

	t.Run("updated events with a scope change relink frameworks and sweep", func(t *testing.T) {
		d, m := newDispatcher(t)
		policy := activePolicy(uuid.New())
		diff := dtos.PolicyDiff{
			ScopeChanged:      true,
			NeedsRefresh:      true,
			AddedFrameworkIDs: []uuid.UUID{uuid.New()},
		}

		m.policyRepository.On("Read", policy.ID).Return(policy, nil)
		m.frameworkLinker.On("SyncFrameworkLinks", policy, &diff).Return(nil)
		m.scheduler.On("ScheduleSweep", mock.Anything, policy, diff.ToChangesPayload(), (*dtos.SourceEvent)(nil)).Return(nil)

		err := d.HandleEvent(context.Background(), dtos.PolicyLifecycleEvent{
			Kind:     dtos.PolicyEventUpdated,
			PolicyID: policy.ID,
			Diff:     &diff,
		})
		require.NoError(t, err)
	})

	t.Run("deleted events enqueue one dedup keyed deletion task", func(t *testing.T) {
		d, m := newDispatcher(t)
		policyID := uuid.New()

		m.queue.On("Enqueue", mock.Anything, mock.MatchedBy(func(spec shared.TaskSpec) bool {
			return spec.Kind == TaskKindDeletePolicy &&
				spec.DedupKey == TaskKindDeletePolicy+":"+policyID.String() &&
				spec.Payload["policyId"] == policyID.String()
		})).Return(nil)

		err := d.HandleEvent(context.Background(), dtos.PolicyLifecycleEvent{Kind: dtos.PolicyEventDeleted, PolicyID: policyID})
		require.NoError(t, err)
	})
}
