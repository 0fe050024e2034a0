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

import (
	"encoding/json"
	"slices"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// PolicyEventKind is the closed set of lifecycle events the dispatcher reacts
// to. Anything outside this set is a registration mismatch and must surface
// loudly instead of being swallowed.
type PolicyEventKind string

const (
	PolicyEventCreated PolicyEventKind = "created"
	PolicyEventUpdated PolicyEventKind = "updated"
	PolicyEventDeleted PolicyEventKind = "deleted"
	PolicyEventResync  PolicyEventKind = "resync"
)

func (k PolicyEventKind) Valid() bool {
	switch k {
	case PolicyEventCreated, PolicyEventUpdated, PolicyEventDeleted, PolicyEventResync:
		return true
	}
	return false
}

// SourceEventType identifies the project-side occurrence that originally
// triggered a resync. The list is an explicit allow-list - unknown types are
// logged and dropped at the boundary.
type SourceEventType string

const (
	SourceEventProtectedBranchCreated    SourceEventType = "ProtectedBranchCreated"
	SourceEventProtectedBranchDestroyed  SourceEventType = "ProtectedBranchDestroyed"
	SourceEventDefaultBranchChanged      SourceEventType = "DefaultBranchChanged"
	SourceEventComplianceFrameworkChange SourceEventType = "ComplianceFrameworkChanged"
	SourceEventPolicyResync              SourceEventType = "PolicyResync"
)

var allowedSourceEventTypes = []SourceEventType{
	SourceEventProtectedBranchCreated,
	SourceEventProtectedBranchDestroyed,
	SourceEventDefaultBranchChanged,
	SourceEventComplianceFrameworkChange,
	SourceEventPolicyResync,
}

// SourceEvent is the originating event payload carried through fan-out when a
// resync is event-driven rather than diff-driven.
type SourceEvent struct {
	EventType SourceEventType `json:"eventType"`
	Data      map[string]any  `json:"data"`
}

func (e SourceEvent) Validate() error {
	if !slices.Contains(allowedSourceEventTypes, e.EventType) {
		return errors.Errorf("event type %q is not in the allow-list", e.EventType)
	}
	if len(e.Data) == 0 {
		return errors.New("event data must not be empty")
	}
	return nil
}

// PolicyLifecycleEvent is the tagged event consumed by the dispatcher.
// Updated events carry the precomputed diff, resync events carry the
// originating source event.
type PolicyLifecycleEvent struct {
	Kind     PolicyEventKind `json:"kind"`
	PolicyID uuid.UUID       `json:"policyId"`
	Diff     *PolicyDiff     `json:"diff,omitempty"`
	Event    *SourceEvent    `json:"event,omitempty"`
}

func (e PolicyLifecycleEvent) ToMap() map[string]any {
	b, err := json.Marshal(e)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]any{}
	}
	return m
}

func PolicyLifecycleEventFromMap(payload map[string]any) (PolicyLifecycleEvent, error) {
	var event PolicyLifecycleEvent
	b, err := json.Marshal(payload)
	if err != nil {
		return event, errors.Wrap(err, "could not marshal event payload")
	}
	if err := json.Unmarshal(b, &event); err != nil {
		return event, errors.Wrap(err, "could not unmarshal event payload")
	}
	return event, nil
}
