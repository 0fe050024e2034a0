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
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/dtos"
	"github.com/l3montree-dev/policyhub/monitoring"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/l3montree-dev/policyhub/utils"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// DelayFor computes the scheduling delay for all tasks of one batch. Delays
// grow linearly with the batch index, never drop below the base interval and
// never exceed the configured horizon. This staggers task arrival instead of
// producing a thundering herd.
func DelayFor(batchIndex int, baseDelay, maxDelay time.Duration) time.Duration {
	delay := time.Duration(batchIndex) * baseDelay
	if delay < baseDelay {
		delay = baseDelay
	}
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// DedupKey is the enqueue time deduplication key. Two racing tasks for the
// same (project, policy) pair collapse to one pending task regardless of
// payload.
func DedupKey(projectID, policyID uuid.UUID) string {
	return projectID.String() + ":" + policyID.String()
}

type fanoutScheduler struct {
	config                  Config
	configurationRepository shared.PolicyConfigurationRepository
	scopeResolver           shared.ScopeResolver
	tracker                 shared.SyncTracker
	queue                   shared.TaskQueue
}

func NewFanoutScheduler(config Config, configurationRepository shared.PolicyConfigurationRepository, scopeResolver shared.ScopeResolver, tracker shared.SyncTracker, queue shared.TaskQueue) *fanoutScheduler {
	return &fanoutScheduler{
		config:                  config,
		configurationRepository: configurationRepository,
		scopeResolver:           scopeResolver,
		tracker:                 tracker,
		queue:                   queue,
	}
}

// ScheduleSweep turns one policy change into delayed per project
// reconciliation tasks. Fire and forget: it returns once all tasks are
// enqueued, success and failure are observed later through the tracker.
func (s *fanoutScheduler) ScheduleSweep(ctx context.Context, policy models.Policy, changes map[string]any, event *dtos.SourceEvent) error {
	start := time.Now()
	defer func() {
		monitoring.SweepScheduleDuration.Observe(time.Since(start).Seconds())
	}()

	if (len(changes) == 0) == (event == nil) {
		return errors.New("exactly one of changes and event must be provided")
	}

	if policy.IsTombstoned() || !policy.Enabled {
		slog.Debug("skipping sweep for inactive policy", "policyId", policy.ID, "enabled", policy.Enabled, "tombstoned", policy.IsTombstoned())
		return nil
	}

	configuration, err := s.configurationRepository.Read(policy.PolicyConfigurationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Debug("policy configuration vanished before sweep", "policyId", policy.ID)
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "could not load policy configuration")
	}

	scope, err := policy.ParseScope()
	if err != nil {
		return err
	}

	// a new sweep supersedes the previous one for this configuration
	if err := s.tracker.Start(configuration.ID, 0); err != nil {
		return errors.Wrap(err, "could not start sync sweep")
	}

	batchIndex := 0
	total := 0
	err = s.scopeResolver.ForEachProjectBatch(ctx, configuration, scope, s.config.BatchSize, func(projectIDs []uuid.UUID) error {
		if err := s.tracker.AddExpected(configuration.ID, len(projectIDs)); err != nil {
			return errors.Wrap(err, "could not register expected work")
		}

		delay := DelayFor(batchIndex, s.config.BaseDelay, s.config.MaxDelay)
		for _, slice := range utils.Chunk(projectIDs, s.config.SliceSize) {
			specs := utils.Map(slice, func(projectID uuid.UUID) shared.TaskSpec {
				payload := dtos.ReconcileTaskPayload{
					ProjectID:       projectID,
					PolicyID:        policy.ID,
					ConfigurationID: configuration.ID,
					PolicyChanges:   changes,
					Event:           event,
				}
				return shared.TaskSpec{
					Kind:     TaskKindReconcileProject,
					DedupKey: DedupKey(projectID, policy.ID),
					Payload:  payload.ToMap(),
					Delay:    delay,
				}
			})
			if err := s.queue.EnqueueBatch(ctx, specs); err != nil {
				return errors.Wrap(err, "could not enqueue reconciliation tasks")
			}
		}

		monitoring.FanoutTasksScheduled.Add(float64(len(projectIDs)))
		total += len(projectIDs)
		batchIndex++
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("scheduled sync sweep", "policyId", policy.ID, "configurationId", configuration.ID, "projects", total, "batches", batchIndex)
	return nil
}
