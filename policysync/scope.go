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
	"context"

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/dtos"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/pkg/errors"
)

type scopeResolver struct {
	projectRepository shared.ProjectRepository
}

func NewScopeResolver(projectRepository shared.ProjectRepository) *scopeResolver {
	return &scopeResolver{projectRepository: projectRepository}
}

// ForEachProjectBatch pages through the projects a policy applies to using
// keyset pagination. The callback sees each page exactly once. The full set
// is never held in memory.
func (r *scopeResolver) ForEachProjectBatch(ctx context.Context, configuration models.PolicyConfiguration, scope dtos.PolicyScope, batchSize int, fn func(projectIDs []uuid.UUID) error) error {
	query := dtos.ScopeQuery{
		NamespaceID:            configuration.NamespaceID,
		ProjectID:              configuration.ProjectID,
		ComplianceFrameworkIDs: scope.ComplianceFrameworkIDs,
		IncludingProjectIDs:    scope.IncludingProjectIDs,
		ExcludingProjectIDs:    scope.ExcludingProjectIDs,
	}

	afterID := uuid.Nil
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ids, err := r.projectRepository.FindIDsInScope(query, afterID, batchSize)
		if err != nil {
			return errors.Wrap(err, "could not enumerate projects in scope")
		}
		if len(ids) == 0 {
			return nil
		}

		if err := fn(ids); err != nil {
			return err
		}

		if len(ids) < batchSize {
			return nil
		}
		afterID = ids[len(ids)-1]
	}
}
