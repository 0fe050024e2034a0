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
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceEventValidate(t *testing.T) {
	t.Run("accepts allow-listed event types", func(t *testing.T) {
		for _, eventType := range []SourceEventType{
			SourceEventProtectedBranchCreated,
			SourceEventProtectedBranchDestroyed,
			SourceEventDefaultBranchChanged,
			SourceEventComplianceFrameworkChange,
			SourceEventPolicyResync,
		} {
			event := SourceEvent{EventType: eventType, Data: map[string]any{"k": "v"}}
			assert.NoError(t, event.Validate(), string(eventType))
		}
	})

	t.Run("rejects unknown event types", func(t *testing.T) {
		event := SourceEvent{EventType: "ProjectRenamed", Data: map[string]any{"k": "v"}}
		require.Error(t, event.Validate())
	})

	t.Run("rejects empty event data", func(t *testing.T) {
		event := SourceEvent{EventType: SourceEventPolicyResync}
		require.Error(t, event.Validate())
	})
}

func TestPolicyLifecycleEventRoundTrip(t *testing.T) {
	event := PolicyLifecycleEvent{
		Kind:     PolicyEventUpdated,
		PolicyID: uuid.New(),
		Diff: &PolicyDiff{
			ContentChanged:    true,
			NeedsRulesRefresh: true,
			AddedFrameworkIDs: []uuid.UUID{uuid.New()},
		},
	}

	decoded, err := PolicyLifecycleEventFromMap(event.ToMap())
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}

func TestPolicyEventKindValid(t *testing.T) {
	assert.True(t, PolicyEventCreated.Valid())
	assert.True(t, PolicyEventResync.Valid())
	assert.False(t, PolicyEventKind("renamed").Valid())
}

func TestReconcileTaskPayloadValidate(t *testing.T) {
	base := ReconcileTaskPayload{
		ProjectID:       uuid.New(),
		PolicyID:        uuid.New(),
		ConfigurationID: uuid.New(),
	}

	t.Run("changes only is valid", func(t *testing.T) {
		payload := base
		payload.PolicyChanges = map[string]any{"needsRefresh": true}
		assert.NoError(t, payload.Validate())
	})

	t.Run("event only is valid", func(t *testing.T) {
		payload := base
		payload.Event = &SourceEvent{EventType: SourceEventPolicyResync, Data: map[string]any{"trigger": "api"}}
		assert.NoError(t, payload.Validate())
	})

	t.Run("neither is invalid", func(t *testing.T) {
		payload := base
		require.Error(t, payload.Validate())
	})

	t.Run("both is invalid", func(t *testing.T) {
		payload := base
		payload.PolicyChanges = map[string]any{"needsRefresh": true}
		payload.Event = &SourceEvent{EventType: SourceEventPolicyResync, Data: map[string]any{"trigger": "api"}}
		require.Error(t, payload.Validate())
	})
}
