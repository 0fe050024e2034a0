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

package dtos

import "github.com/google/uuid"

// PolicyDiff is the ephemeral change classification computed from two policy
// snapshots. The four facets are independent and may combine.
type PolicyDiff struct {
	// ContentChanged is true if the rule body differs at all. Triggers
	// re-derivation of generated artifacts such as injected pipeline config.
	ContentChanged bool `json:"contentChanged"`
	// ScopeChanged is true if the set of affected projects differs. Triggers
	// compliance framework re-linking.
	ScopeChanged bool `json:"scopeChanged"`
	// NeedsRefresh is true for changes that require full per-project
	// reconciliation.
	NeedsRefresh bool `json:"needsRefresh"`
	// NeedsRulesRefresh is true for narrower changes that only require
	// regenerating rule rows without recomputing scope membership.
	NeedsRulesRefresh bool `json:"needsRulesRefresh"`

	// AddedFrameworkIDs/RemovedFrameworkIDs carry the changed portion of
	// scope when known, so framework re-linking can be limited to the delta.
	AddedFrameworkIDs   []uuid.UUID `json:"addedFrameworkIds,omitempty"`
	RemovedFrameworkIDs []uuid.UUID `json:"removedFrameworkIds,omitempty"`
}

func (d PolicyDiff) NoOp() bool {
	return !d.NeedsRefresh && !d.NeedsRulesRefresh
}

// ToChangesPayload serializes the diff into the generic policy-changes map
// carried by reconciliation tasks.
func (d PolicyDiff) ToChangesPayload() map[string]any {
	return map[string]any{
		"contentChanged":    d.ContentChanged,
		"scopeChanged":      d.ScopeChanged,
		"needsRefresh":      d.NeedsRefresh,
		"needsRulesRefresh": d.NeedsRulesRefresh,
	}
}
