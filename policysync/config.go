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
	"os"
	"strconv"
	"time"
)

// Task kinds produced by the dispatcher and the fan-out scheduler.
const (
	TaskKindReconcileProject = "reconcileProject"
	TaskKindDeletePolicy     = "deletePolicy"
)

// Config tunes the fan-out. The max delay bounds the scheduling horizon for
// very large scopes - without it the linear growth would produce multi hour
// sweeps for tens of thousands of projects.
type Config struct {
	BatchSize int
	// SliceSize bounds the number of tasks per bulk enqueue.
	SliceSize int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// ScopedFrameworkRelink limits compliance framework re-linking to the
	// changed portion of scope when the diff carries the delta.
	ScopedFrameworkRelink bool
}

func ConfigFromEnv() Config {
	config := Config{
		BatchSize:             100,
		SliceSize:             25,
		BaseDelay:             10 * time.Second,
		MaxDelay:              30 * time.Minute,
		ScopedFrameworkRelink: true,
	}
	if v, err := strconv.Atoi(os.Getenv("SYNC_BATCH_SIZE")); err == nil && v > 0 {
		config.BatchSize = v
	}
	if v, err := strconv.Atoi(os.Getenv("SYNC_SLICE_SIZE")); err == nil && v > 0 {
		config.SliceSize = v
	}
	if v, err := time.ParseDuration(os.Getenv("SYNC_BASE_DELAY")); err == nil && v > 0 {
		config.BaseDelay = v
	}
	if v, err := time.ParseDuration(os.Getenv("SYNC_MAX_DELAY")); err == nil && v > 0 {
		config.MaxDelay = v
	}
	if v, err := strconv.ParseBool(os.Getenv("SYNC_SCOPED_FRAMEWORK_RELINK")); err == nil {
		config.ScopedFrameworkRelink = v
	}
	return config
}
