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

package taskqueue

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/monitoring"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/l3montree-dev/policyhub/utils"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HandlerFunc executes one claimed task. A nil return marks the task done, an
// error reschedules it until the attempt limit is reached.
type HandlerFunc func(ctx context.Context, task models.Task) error

type WorkerConfig struct {
	WorkerCount  int
	MaxAttempts  int
	PollInterval time.Duration
	// DispatchRate limits how many tasks per second the pool starts, so a
	// burst of due tasks does not overwhelm downstream services.
	DispatchRate rate.Limit
}

func WorkerConfigFromEnv() WorkerConfig {
	config := WorkerConfig{
		WorkerCount:  5,
		MaxAttempts:  5,
		PollInterval: time.Second,
		DispatchRate: rate.Limit(50),
	}
	if v, err := strconv.Atoi(os.Getenv("TASK_WORKER_COUNT")); err == nil && v > 0 {
		config.WorkerCount = v
	}
	if v, err := strconv.Atoi(os.Getenv("TASK_MAX_ATTEMPTS")); err == nil && v > 0 {
		config.MaxAttempts = v
	}
	if v, err := strconv.Atoi(os.Getenv("TASK_DISPATCH_RATE")); err == nil && v > 0 {
		config.DispatchRate = rate.Limit(v)
	}
	return config
}

// Worker polls the task table and executes due tasks on a bounded pool.
// Claiming uses FOR UPDATE SKIP LOCKED on postgres so multiple instances can
// share the same queue without double execution.
type Worker struct {
	db          shared.DB
	config      WorkerConfig
	limiter     *rate.Limiter
	handlers    map[string]HandlerFunc
	handlersMux sync.RWMutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewWorker(db shared.DB, config WorkerConfig) *Worker {
	return &Worker{
		db:       db,
		config:   config,
		limiter:  rate.NewLimiter(config.DispatchRate, 1),
		handlers: make(map[string]HandlerFunc),
	}
}

func (w *Worker) Register(kind string, handler HandlerFunc) {
	w.handlersMux.Lock()
	defer w.handlersMux.Unlock()
	w.handlers[kind] = handler
}

func (w *Worker) handler(kind string) (HandlerFunc, bool) {
	w.handlersMux.RLock()
	defer w.handlersMux.RUnlock()
	handler, ok := w.handlers[kind]
	return handler, ok
}

func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	for i := 0; i < w.config.WorkerCount; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.run(ctx)
		}()
	}
	w.handlersMux.RLock()
	kinds := utils.Keys(w.handlers)
	w.handlersMux.RUnlock()
	slog.Info("task workers started", "count", w.config.WorkerCount, "kinds", kinds)
}

func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	for {
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}
		processed, err := w.ProcessOne(ctx)
		if err != nil {
			slog.Error("task processing failed", "err", err)
		}
		if processed {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.config.PollInterval):
		}
	}
}

// ProcessOne claims and executes the next due task. It reports whether a task
// was found. Handler errors are absorbed into the task row, not returned.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	task, ok, err := w.claimNext(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	w.process(ctx, task)
	return true, nil
}

func (w *Worker) claimNext(ctx context.Context) (models.Task, bool, error) {
	var task models.Task
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("status = ? AND run_at <= ?", models.TaskStatusPending, time.Now()).
			Order("run_at ASC")
		// sqlite (tests) has no row level locking
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := query.First(&task).Error; err != nil {
			return err
		}
		return tx.Model(&models.Task{}).Where("id = ?", task.ID).Updates(map[string]any{
			"status":     models.TaskStatusRunning,
			"claimed_at": time.Now(),
			"attempts":   gorm.Expr("attempts + 1"),
		}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return task, false, nil
	}
	if err != nil {
		return task, false, errors.Wrap(err, "could not claim task")
	}
	task.Attempts++
	return task, true, nil
}

func (w *Worker) process(ctx context.Context, task models.Task) {
	// a panicking handler must not take the worker goroutine down
	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("task handler panicked: %v", r)
			monitoring.RecoverAndAlert("task handler panic", err)
			w.markFailed(task, err)
		}
	}()

	handler, ok := w.handler(task.Kind)
	if !ok {
		slog.Error("no handler registered for task kind", "kind", task.Kind, "taskId", task.ID)
		w.markFailed(task, errors.Errorf("no handler registered for kind %q", task.Kind))
		return
	}

	if err := handler(ctx, task); err != nil {
		if task.Attempts >= w.config.MaxAttempts {
			slog.Error("task exhausted its attempts", "kind", task.Kind, "taskId", task.ID, "attempts", task.Attempts, "err", err)
			w.markFailed(task, err)
			return
		}
		delay := retryDelay(task.Attempts)
		slog.Warn("task failed - rescheduling", "kind", task.Kind, "taskId", task.ID, "attempt", task.Attempts, "retryIn", delay, "err", err)
		w.reschedule(task, err, delay)
		return
	}

	if err := w.db.Model(&models.Task{}).Where("id = ?", task.ID).Update("status", models.TaskStatusDone).Error; err != nil {
		slog.Error("could not mark task done", "taskId", task.ID, "err", err)
	}
}

func (w *Worker) markFailed(task models.Task, cause error) {
	msg := cause.Error()
	if err := w.db.Model(&models.Task{}).Where("id = ?", task.ID).Updates(map[string]any{
		"status":     models.TaskStatusFailed,
		"last_error": msg,
	}).Error; err != nil {
		slog.Error("could not mark task failed", "taskId", task.ID, "err", err)
	}
}

func (w *Worker) reschedule(task models.Task, cause error, delay time.Duration) {
	msg := cause.Error()
	if err := w.db.Model(&models.Task{}).Where("id = ?", task.ID).Updates(map[string]any{
		"status":     models.TaskStatusPending,
		"run_at":     time.Now().Add(delay),
		"claimed_at": nil,
		"last_error": msg,
	}).Error; err != nil {
		slog.Error("could not reschedule task", "taskId", task.ID, "err", err)
	}
}

// retryDelay grows exponentially with the attempt count. The backoff library
// caps the interval before applying jitter, so the result is clamped again to
// keep MaxInterval a hard upper bound.
func retryDelay(attempts int) time.Duration {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 5 * time.Second
	expo.MaxInterval = 5 * time.Minute
	delay := expo.InitialInterval
	for i := 0; i < attempts; i++ {
		delay = expo.NextBackOff()
	}
	return min(delay, expo.MaxInterval)
}

// CountPending feeds the queue depth gauge.
func CountPending(db shared.DB) (int64, error) {
	var count int64
	err := db.Model(&models.Task{}).Where("status = ?", models.TaskStatusPending).Count(&count).Error
	return count, err
}

// UpdateQueueDepthGauge refreshes the prometheus gauge from the current
// pending count.
func UpdateQueueDepthGauge(db shared.DB) {
	count, err := CountPending(db)
	if err != nil {
		slog.Error("could not count pending tasks", "err", err)
		return
	}
	monitoring.QueueDepth.Set(float64(count))
}
