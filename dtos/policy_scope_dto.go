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

// PolicyScope is the predicate determining which projects a policy applies
// to. Framework membership filters, include lists intersect, exclude lists
// subtract.
type PolicyScope struct {
	ComplianceFrameworkIDs []uuid.UUID `json:"complianceFrameworkIds,omitempty"`
	IncludingProjectIDs    []uuid.UUID `json:"includingProjectIds,omitempty"`
	ExcludingProjectIDs    []uuid.UUID `json:"excludingProjectIds,omitempty"`
}

// ScopeQuery is the fully resolved enumeration request handed to the project
// directory. Exactly one of NamespaceID/ProjectID is set, depending on which
// container owns the policy configuration.
type ScopeQuery struct {
	NamespaceID *uuid.UUID
	ProjectID   *uuid.UUID

	ComplianceFrameworkIDs []uuid.UUID
	IncludingProjectIDs    []uuid.UUID
	ExcludingProjectIDs    []uuid.UUID
}

// SyncStatus is the tracker's view of one configuration's in-flight sweep.
type SyncStatus struct {
	Expected  int `json:"expected"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	InFlight  int `json:"inFlight"`
}
