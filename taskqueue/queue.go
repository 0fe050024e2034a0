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
	"encoding/json"
	"time"

	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/monitoring"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

// bulkInsertSize bounds the number of rows per insert statement so a large
// fan-out batch never hits the postgres parameter limit.
const bulkInsertSize = 25

type databaseTaskQueue struct {
	db shared.DB
}

// NewDatabaseTaskQueue creates a queue persisting tasks as rows. Two specs
// with the same dedup key collapse to one pending row via the partial unique
// index on (dedup_key) WHERE status = 'pending'.
func NewDatabaseTaskQueue(db shared.DB) *databaseTaskQueue {
	return &databaseTaskQueue{db: db}
}

func taskFromSpec(spec shared.TaskSpec) (models.Task, error) {
	payload, err := json.Marshal(spec.Payload)
	if err != nil {
		return models.Task{}, errors.Wrap(err, "could not marshal task payload")
	}
	delay := spec.Delay
	if delay < 0 {
		delay = 0
	}
	return models.Task{
		Kind:     spec.Kind,
		DedupKey: spec.DedupKey,
		Payload:  datatypes.JSON(payload),
		RunAt:    time.Now().Add(delay),
		Status:   models.TaskStatusPending,
	}, nil
}

func (q *databaseTaskQueue) Enqueue(ctx context.Context, spec shared.TaskSpec) error {
	return q.EnqueueBatch(ctx, []shared.TaskSpec{spec})
}

// EnqueueBatch inserts the specs in bounded chunks. Conflicting dedup keys
// are silently dropped - the already pending task covers the work.
func (q *databaseTaskQueue) EnqueueBatch(ctx context.Context, specs []shared.TaskSpec) error {
	if len(specs) == 0 {
		return nil
	}

	tasks := make([]models.Task, 0, len(specs))
	for _, spec := range specs {
		task, err := taskFromSpec(spec)
		if err != nil {
			return err
		}
		tasks = append(tasks, task)
	}

	for chunkStart := 0; chunkStart < len(tasks); chunkStart += bulkInsertSize {
		chunkEnd := min(chunkStart+bulkInsertSize, len(tasks))
		chunk := tasks[chunkStart:chunkEnd]

		res := q.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&chunk)
		if res.Error != nil {
			return errors.Wrap(res.Error, "could not enqueue tasks")
		}

		deduplicated := len(chunk) - int(res.RowsAffected)
		if deduplicated > 0 {
			monitoring.TasksDeduplicated.Add(float64(deduplicated))
		}
		for _, task := range chunk {
			monitoring.TasksEnqueued.WithLabelValues(task.Kind).Inc()
		}
	}
	return nil
}
