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

package services

import (
	"context"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/shared"
)

type leaderElectionConfig struct {
	LeaderID string `json:"leaderId"`
	LastPing int64  `json:"lastPing"`
}

type databaseLeaderElector struct {
	leaderElectorID string
	configService   shared.ConfigService
	isLeader        atomic.Bool // this variable gets updated by a daemon goroutine. Usage of atomic is required.
	daemonIsRunning bool
}

func NewDatabaseLeaderElector(configService shared.ConfigService) *databaseLeaderElector {
	leaderElector := databaseLeaderElector{
		configService: configService,
		// generate a random ID for this leader elector
		leaderElectorID: uuid.New().String(),
	}
	// start the daemon
	leaderElector.startDaemon()
	return &leaderElector
}

func randomNumberBetween(min, max int) int {
	return rand.Intn(max-min) + min // #nosec
}

func (e *databaseLeaderElector) daemon() {
	for {
		isLeader, err := e.checkIfLeader()
		if err != nil {
			slog.Error("could not check if leader", "err", err)
		}

		if isLeader {
			e.isLeader.Store(true)
		} else {
			e.isLeader.Store(false)
		}

		time.Sleep(time.Duration(randomNumberBetween(60, 359)) * time.Second)
	}
}

func (e *databaseLeaderElector) startDaemon() {
	e.daemonIsRunning = true
	go e.daemon()
}

func (e *databaseLeaderElector) IsLeader() bool {
	return e.isLeader.Load()
}

// IfLeader runs fn only on the current leader. Errors are logged, never
// propagated - background jobs must not take the caller down.
func (e *databaseLeaderElector) IfLeader(ctx context.Context, fn func() error) {
	if ctx.Err() != nil {
		return
	}
	if !e.IsLeader() {
		return
	}
	if err := fn(); err != nil {
		slog.Error("leader job failed", "err", err)
	}
}

func (e *databaseLeaderElector) makeLeader() error {
	// there is no leader yet - overwrite it.
	return e.configService.SetJSONConfig("leaderElection", leaderElectionConfig{
		LeaderID: e.leaderElectorID,
		LastPing: time.Now().Unix(),
	})
}

func (e *databaseLeaderElector) checkIfLeader() (bool, error) {
	var config leaderElectionConfig

	err := e.configService.GetJSONConfig("leaderElection", &config)
	if err != nil {
		slog.Info("could not get leader election config", "err", err)
		// there is no leader yet - overwrite it.
		return true, e.makeLeader()
	}

	// check if the last ping was more than 360 seconds ago
	if time.Now().Unix()-config.LastPing > 360 {
		// probably the leader died - overwrite it.
		return true, e.makeLeader()
	}

	return config.LeaderID == e.leaderElectorID, nil
}
