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

package models

import (
	"time"

	"gorm.io/datatypes"
)

type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusRunning TaskStatus = "running"
	TaskStatusDone    TaskStatus = "done"
	TaskStatusFailed  TaskStatus = "failed"
)

// Task is one scheduled unit of work in the queue. DedupKey is unique among
// pending rows (partial index in the migration), which collapses logically
// duplicate tasks at enqueue time.
type Task struct {
	Model
	Kind     string         `json:"kind" gorm:"type:text;not null;index"`
	DedupKey string         `json:"dedupKey" gorm:"type:text;not null"`
	Payload  datatypes.JSON `json:"payload" gorm:"type:jsonb"`
	RunAt    time.Time      `json:"runAt" gorm:"not null;index"`
	Status   TaskStatus     `json:"status" gorm:"type:text;not null;default:'pending';index"`
	Attempts int            `json:"attempts" gorm:"not null;default:0"`
	// ClaimedAt lets the maintenance daemon requeue tasks whose worker died.
	ClaimedAt *time.Time `json:"claimedAt"`
	LastError *string    `json:"lastError" gorm:"type:text"`
}

func (Task) TableName() string {
	return "tasks"
}
