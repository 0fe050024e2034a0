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

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ReconcileTaskPayload is the unit of fan-out work. Exactly one of
// PolicyChanges/Event is non-empty.
type ReconcileTaskPayload struct {
	ProjectID       uuid.UUID      `json:"projectId"`
	PolicyID        uuid.UUID      `json:"policyId"`
	ConfigurationID uuid.UUID      `json:"configurationId"`
	PolicyChanges   map[string]any `json:"policyChanges,omitempty"`
	Event           *SourceEvent   `json:"event,omitempty"`
}

func (p ReconcileTaskPayload) Validate() error {
	if (len(p.PolicyChanges) == 0) == (p.Event == nil) {
		return errors.New("exactly one of policyChanges and event must be set")
	}
	return nil
}

func (p ReconcileTaskPayload) ToMap() map[string]any {
	b, err := json.Marshal(p)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]any{}
	}
	return m
}

func ReconcileTaskPayloadFromJSON(data []byte) (ReconcileTaskPayload, error) {
	var payload ReconcileTaskPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, errors.Wrap(err, "could not unmarshal reconcile task payload")
	}
	return payload, nil
}

// DeletePolicyTaskPayload drives the transactional deletion worker.
type DeletePolicyTaskPayload struct {
	PolicyID uuid.UUID `json:"policyId"`
}

func DeletePolicyTaskPayloadFromJSON(data []byte) (DeletePolicyTaskPayload, error) {
	var payload DeletePolicyTaskPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, errors.Wrap(err, "could not unmarshal delete policy task payload")
	}
	return payload, nil
}
