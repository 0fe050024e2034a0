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

	"github.com/google/uuid"
)

// SyncState is the advisory per-configuration ledger of an in-flight sweep.
// Counters are only ever mutated through atomic SQL increments so concurrent
// reconcilers cannot lose counts.
type SyncState struct {
	PolicyConfigurationID uuid.UUID `json:"policyConfigurationId" gorm:"primarykey;type:uuid"`
	Expected              int       `json:"expected" gorm:"not null;default:0"`
	Succeeded             int       `json:"succeeded" gorm:"not null;default:0"`
	Failed                int       `json:"failed" gorm:"not null;default:0"`
	StartedAt             time.Time `json:"startedAt"`
}

func (SyncState) TableName() string {
	return "sync_states"
}
