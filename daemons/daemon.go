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

package daemons

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/policysync"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/l3montree-dev/policyhub/taskqueue"
	"github.com/l3montree-dev/policyhub/utils"
	"github.com/pkg/errors"
)

// claimTimeout marks a running task as stuck. Workers update claimed_at on
// claim, so anything older than this belongs to a dead worker.
const claimTimeout = 10 * time.Minute

// finishedRetention keeps done tasks around briefly for debugging.
const finishedRetention = 24 * time.Hour

// DaemonRunner encapsulates the leader-elected maintenance jobs and their
// lifecycle.
type DaemonRunner struct {
	db               shared.DB
	configService    shared.ConfigService
	leaderElector    shared.LeaderElector
	policyRepository shared.PolicyRepository
	queue            shared.TaskQueue
}

// NewDaemonRunner creates a new daemon runner with injected dependencies
func NewDaemonRunner(
	db shared.DB,
	configService shared.ConfigService,
	leaderElector shared.LeaderElector,
	policyRepository shared.PolicyRepository,
	queue shared.TaskQueue,
) *DaemonRunner {
	return &DaemonRunner{
		db:               db,
		configService:    configService,
		leaderElector:    leaderElector,
		policyRepository: policyRepository,
		queue:            queue,
	}
}

// Start initiates all background daemons
func (runner *DaemonRunner) Start(ctx context.Context) {
	go func() {
		runner.tick(ctx)
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runner.tick(ctx)
			}
		}
	}()
}

func (runner *DaemonRunner) tick(ctx context.Context) {
	taskqueue.UpdateQueueDepthGauge(runner.db)

	runner.leaderElector.IfLeader(ctx, func() error {
		slog.Info("this instance is the leader - running background jobs")
		runner.runMaintenance(ctx)
		return nil
	})
}

func (runner *DaemonRunner) runMaintenance(ctx context.Context) {
	if runner.shouldRun("requeueStuckTasks", 5*time.Minute) {
		if err := runner.RequeueStuckTasks(); err != nil {
			slog.Error("could not requeue stuck tasks", "err", err)
		} else {
			runner.markRan("requeueStuckTasks")
		}
	}

	if runner.shouldRun("purgeFinishedTasks", time.Hour) {
		if err := runner.PurgeFinishedTasks(); err != nil {
			slog.Error("could not purge finished tasks", "err", err)
		} else {
			runner.markRan("purgeFinishedTasks")
		}
	}

	if runner.shouldRun("requeueLostDeletions", time.Hour) {
		if err := runner.RequeueLostDeletions(ctx); err != nil {
			slog.Error("could not requeue lost policy deletions", "err", err)
		} else {
			runner.markRan("requeueLostDeletions")
		}
	}
}

// RequeueStuckTasks returns tasks whose worker died mid execution to the
// pending pool.
func (runner *DaemonRunner) RequeueStuckTasks() error {
	cutoff := time.Now().Add(-claimTimeout)
	res := runner.db.Model(&models.Task{}).
		Where("status = ? AND claimed_at < ?", models.TaskStatusRunning, cutoff).
		Updates(map[string]any{
			"status":     models.TaskStatusPending,
			"run_at":     time.Now(),
			"claimed_at": nil,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "could not requeue stuck tasks")
	}
	if res.RowsAffected > 0 {
		slog.Warn("requeued stuck tasks", "count", res.RowsAffected)
	}
	return nil
}

// PurgeFinishedTasks deletes done task rows past their retention.
func (runner *DaemonRunner) PurgeFinishedTasks() error {
	cutoff := time.Now().Add(-finishedRetention)
	res := runner.db.
		Where("status = ? AND updated_at < ?", models.TaskStatusDone, cutoff).
		Delete(&models.Task{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "could not purge finished tasks")
	}
	if res.RowsAffected > 0 {
		slog.Info("purged finished tasks", "count", res.RowsAffected)
	}
	return nil
}

// RequeueLostDeletions re-enqueues a deletion task for every tombstoned
// policy. The dedup key collapses with a still pending task, and the deletion
// worker is idempotent, so over-enqueueing is harmless.
func (runner *DaemonRunner) RequeueLostDeletions(ctx context.Context) error {
	tombstoned, err := runner.policyRepository.FindTombstoned()
	if err != nil {
		return errors.Wrap(err, "could not load tombstoned policies")
	}

	group := utils.ErrGroup[uuid.UUID](5)
	for _, policy := range tombstoned {
		group.Go(func() (uuid.UUID, error) {
			err := runner.queue.Enqueue(ctx, shared.TaskSpec{
				Kind:     policysync.TaskKindDeletePolicy,
				DedupKey: policysync.TaskKindDeletePolicy + ":" + policy.ID.String(),
				Payload:  map[string]any{"policyId": policy.ID.String()},
			})
			return policy.ID, err
		})
	}
	if _, err := group.WaitAndCollect(); err != nil {
		return errors.Wrap(err, "could not enqueue policy deletion")
	}
	if len(tombstoned) > 0 {
		slog.Info("re-enqueued deletions for tombstoned policies", "count", len(tombstoned))
	}
	return nil
}

func (runner *DaemonRunner) shouldRun(key string, every time.Duration) bool {
	var lastRun struct {
		Time time.Time `json:"time"`
	}
	if err := runner.configService.GetJSONConfig("daemon:"+key, &lastRun); err != nil {
		return true
	}
	return time.Since(lastRun.Time) > every
}

func (runner *DaemonRunner) markRan(key string) {
	if err := runner.configService.SetJSONConfig("daemon:"+key, map[string]any{"time": time.Now()}); err != nil {
		slog.Error("could not persist daemon run marker", "key", key, "err", err)
	}
}
