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

package repositories

import (
	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/dtos"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/l3montree-dev/policyhub/utils"
)

type projectRepository struct {
	db shared.DB
	utils.Repository[uuid.UUID, models.Project, shared.DB]
}

func NewProjectRepository(db shared.DB) *projectRepository {
	return &projectRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.Project](db),
	}
}

// descendantNamespacesQuery enumerates a namespace and all of its descendants.
const descendantNamespacesQuery = `WITH RECURSIVE descendant_namespaces AS (
	SELECT id FROM namespaces WHERE id = ?
	UNION ALL
	SELECT n.id FROM namespaces n JOIN descendant_namespaces d ON n.parent_id = d.id
) SELECT id FROM descendant_namespaces`

// FindIDsInScope returns one page of project ids matching the scope query,
// ordered by id, starting after afterID. The full result set is never
// materialized - callers page through with keyset pagination.
func (r *projectRepository) FindIDsInScope(query dtos.ScopeQuery, afterID uuid.UUID, limit int) ([]uuid.UUID, error) {
	db := r.db.Model(&models.Project{}).Select("projects.id")

	if query.ProjectID != nil {
		db = db.Where("projects.id = ?", *query.ProjectID)
	} else if query.NamespaceID != nil {
		db = db.Where("projects.namespace_id IN ("+descendantNamespacesQuery+")", *query.NamespaceID)
	}

	if len(query.ComplianceFrameworkIDs) > 0 {
		db = db.Where("EXISTS (SELECT 1 FROM project_compliance_frameworks pcf WHERE pcf.project_id = projects.id AND pcf.compliance_framework_id IN ?)", query.ComplianceFrameworkIDs)
	}

	if len(query.IncludingProjectIDs) > 0 {
		db = db.Where("projects.id IN ?", query.IncludingProjectIDs)
	}

	if len(query.ExcludingProjectIDs) > 0 {
		db = db.Where("projects.id NOT IN ?", query.ExcludingProjectIDs)
	}

	if afterID != uuid.Nil {
		db = db.Where("projects.id > ?", afterID)
	}

	var ids []uuid.UUID
	if err := db.Order("projects.id ASC").Limit(limit).Pluck("projects.id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// FindFrameworkIDsOfProject returns the compliance frameworks attached to a
// project.
func (r *projectRepository) FindFrameworkIDsOfProject(projectID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.Table("project_compliance_frameworks").
		Where("project_id = ?", projectID).
		Pluck("compliance_framework_id", &ids).Error
	return ids, err
}
