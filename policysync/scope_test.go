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
	"testing"

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/database/repositories"
	"github.com/l3montree-dev/policyhub/dtos"
	"github.com/l3montree-dev/policyhub/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type scopeFixture struct {
	db       *gorm.DB
	resolver *scopeResolver

	rootNamespace  models.Namespace
	childNamespace models.Namespace
	otherNamespace models.Namespace

	rootProject  models.Project
	childProject models.Project
	otherProject models.Project
}

func newScopeFixture(t *testing.T) *scopeFixture {
	t.Helper()
	db := newTestDB(t)

	f := &scopeFixture{db: db, resolver: NewScopeResolver(repositories.NewProjectRepository(db))}

	f.rootNamespace = models.Namespace{Name: "root", Slug: "root"}
	require.NoError(t, db.Create(&f.rootNamespace).Error)
	f.childNamespace = models.Namespace{Name: "child", Slug: "root-child", ParentID: utils.Ptr(f.rootNamespace.ID)}
	require.NoError(t, db.Create(&f.childNamespace).Error)
	f.otherNamespace = models.Namespace{Name: "other", Slug: "other"}
	require.NoError(t, db.Create(&f.otherNamespace).Error)

	f.rootProject = models.Project{Name: "root-app", Slug: "root-app", NamespaceID: f.rootNamespace.ID}
	require.NoError(t, db.Create(&f.rootProject).Error)
	f.childProject = models.Project{Name: "child-app", Slug: "child-app", NamespaceID: f.childNamespace.ID}
	require.NoError(t, db.Create(&f.childProject).Error)
	f.otherProject = models.Project{Name: "other-app", Slug: "other-app", NamespaceID: f.otherNamespace.ID}
	require.NoError(t, db.Create(&f.otherProject).Error)

	return f
}

func (f *scopeFixture) collect(t *testing.T, configuration models.PolicyConfiguration, scope dtos.PolicyScope, batchSize int) [][]uuid.UUID {
	t.Helper()
	var batches [][]uuid.UUID
	err := f.resolver.ForEachProjectBatch(context.Background(), configuration, scope, batchSize, func(projectIDs []uuid.UUID) error {
		page := make([]uuid.UUID, len(projectIDs))
		copy(page, projectIDs)
		batches = append(batches, page)
		return nil
	})
	require.NoError(t, err)
	return batches
}

func flatten(batches [][]uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	for _, batch := range batches {
		ids = append(ids, batch...)
	}
	return ids
}

func TestForEachProjectBatch(t *testing.T) {
	t.Run("namespace scope covers descendant namespaces", func(t *testing.T) {
		f := newScopeFixture(t)
		configuration := models.PolicyConfiguration{NamespaceID: &f.rootNamespace.ID}

		ids := flatten(f.collect(t, configuration, dtos.PolicyScope{}, 100))
		assert.ElementsMatch(t, []uuid.UUID{f.rootProject.ID, f.childProject.ID}, ids)
	})

	t.Run("project bound configurations only see their project", func(t *testing.T) {
		f := newScopeFixture(t)
		configuration := models.PolicyConfiguration{ProjectID: &f.childProject.ID}

		ids := flatten(f.collect(t, configuration, dtos.PolicyScope{}, 100))
		assert.Equal(t, []uuid.UUID{f.childProject.ID}, ids)
	})

	t.Run("framework membership narrows the scope", func(t *testing.T) {
		f := newScopeFixture(t)
		framework := models.ComplianceFramework{Name: "soc2"}
		require.NoError(t, f.db.Create(&framework).Error)
		require.NoError(t, f.db.Model(&f.childProject).Association("Frameworks").Append(&framework))

		configuration := models.PolicyConfiguration{NamespaceID: &f.rootNamespace.ID}
		scope := dtos.PolicyScope{ComplianceFrameworkIDs: []uuid.UUID{framework.ID}}

		ids := flatten(f.collect(t, configuration, scope, 100))
		assert.Equal(t, []uuid.UUID{f.childProject.ID}, ids)
	})

	t.Run("exclude list subtracts projects", func(t *testing.T) {
		f := newScopeFixture(t)
		configuration := models.PolicyConfiguration{NamespaceID: &f.rootNamespace.ID}
		scope := dtos.PolicyScope{ExcludingProjectIDs: []uuid.UUID{f.rootProject.ID}}

		ids := flatten(f.collect(t, configuration, scope, 100))
		assert.Equal(t, []uuid.UUID{f.childProject.ID}, ids)
	})

	t.Run("keyset pagination sees every project exactly once", func(t *testing.T) {
		f := newScopeFixture(t)
		for i := 0; i < 5; i++ {
			project := models.Project{Name: "bulk", Slug: "bulk-" + uuid.NewString(), NamespaceID: f.rootNamespace.ID}
			require.NoError(t, f.db.Create(&project).Error)
		}

		configuration := models.PolicyConfiguration{NamespaceID: &f.rootNamespace.ID}
		batches := f.collect(t, configuration, dtos.PolicyScope{}, 3)

		// 7 projects in scope with batch size 3
		require.Len(t, batches, 3)
		assert.Len(t, batches[0], 3)
		assert.Len(t, batches[1], 3)
		assert.Len(t, batches[2], 1)

		seen := map[uuid.UUID]struct{}{}
		for _, id := range flatten(batches) {
			_, dup := seen[id]
			assert.False(t, dup, "project enumerated twice")
			seen[id] = struct{}{}
		}
		assert.Len(t, seen, 7)
	})

	t.Run("cancellation stops the enumeration", func(t *testing.T) {
		f := newScopeFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		configuration := models.PolicyConfiguration{NamespaceID: &f.rootNamespace.ID}
		err := f.resolver.ForEachProjectBatch(ctx, configuration, dtos.PolicyScope{}, 100, func([]uuid.UUID) error {
			t.Fatal("callback must not run after cancellation")
			return nil
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}
