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
	"encoding/json"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/database/repositories"
	"github.com/l3montree-dev/policyhub/dtos"
	"github.com/l3montree-dev/policyhub/mocks"
	"github.com/l3montree-dev/policyhub/services"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Namespace{},
		&models.Project{},
		&models.ComplianceFramework{},
		&models.PolicyComplianceLink{},
		&models.PolicyConfiguration{},
		&models.Policy{},
		&models.ProjectPolicyLink{},
		&models.SyncState{},
		&models.Task{},
	))
	return db
}

type reconcilerFixture struct {
	db            *gorm.DB
	reconciler    *Reconciler
	tracker       *mocks.SyncTracker
	linkRepo      shared.ProjectPolicyLinkRepository
	configuration models.PolicyConfiguration
	project       models.Project
	policy        models.Policy
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()
	db := newTestDB(t)

	namespace := models.Namespace{Name: "group", Slug: "group"}
	require.NoError(t, db.Create(&namespace).Error)

	configuration := models.PolicyConfiguration{
		NamespaceID:         &namespace.ID,
		ManagementProjectID: uuid.New(),
	}
	require.NoError(t, db.Create(&configuration).Error)

	project := models.Project{Name: "api", Slug: "api", NamespaceID: namespace.ID}
	require.NoError(t, db.Create(&project).Error)

	policy := models.Policy{
		PolicyConfigurationID: configuration.ID,
		PolicyIndex:           0,
		Type:                  models.PolicyTypeApproval,
		Enabled:               true,
		Content:               datatypes.JSON(`{"rules":[{"type":"approval","branches":["main"]},{"type":"approval","branches":["release"]}],"actions":[{"type":"require_approval","approvals_required":1}]}`),
		Scope:                 datatypes.JSON(`{}`),
	}
	require.NoError(t, db.Create(&policy).Error)

	linkRepo := repositories.NewProjectPolicyLinkRepository(db)
	tracker := mocks.NewSyncTracker(t)
	reconciler := NewReconciler(
		repositories.NewPolicyRepository(db),
		repositories.NewProjectRepository(db),
		linkRepo,
		services.NewRuleService(linkRepo),
		tracker,
	)

	return &reconcilerFixture{
		db:            db,
		reconciler:    reconciler,
		tracker:       tracker,
		linkRepo:      linkRepo,
		configuration: configuration,
		project:       project,
		policy:        policy,
	}
}

func reconcileTask(t *testing.T, payload dtos.ReconcileTaskPayload) models.Task {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return models.Task{
		Kind:    TaskKindReconcileProject,
		Payload: datatypes.JSON(b),
	}
}

func TestHandleReconcileProject(t *testing.T) {
	t.Run("regenerates rule rows and is idempotent", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.tracker.On("RecordSuccess", f.configuration.ID, f.project.ID).Return(nil).Twice()

		task := reconcileTask(t, dtos.ReconcileTaskPayload{
			ProjectID:       f.project.ID,
			PolicyID:        f.policy.ID,
			ConfigurationID: f.configuration.ID,
			PolicyChanges:   map[string]any{"needsRefresh": true},
		})

		require.NoError(t, f.reconciler.HandleReconcileProject(context.Background(), task))

		links, err := f.linkRepo.FindByProjectAndPolicy(f.project.ID, f.policy.ID)
		require.NoError(t, err)
		// 2 rules x 2 rule types (approval + scan-result-read)
		require.Len(t, links, 4)

		// a second run replaces the rows instead of duplicating them
		require.NoError(t, f.reconciler.HandleReconcileProject(context.Background(), task))
		linksAfter, err := f.linkRepo.FindByProjectAndPolicy(f.project.ID, f.policy.ID)
		require.NoError(t, err)
		require.Len(t, linksAfter, 4)
	})

	t.Run("rules refresh replaces primary rows and keeps secondary rows", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.tracker.On("RecordSuccess", f.configuration.ID, f.project.ID).Return(nil).Twice()

		full := reconcileTask(t, dtos.ReconcileTaskPayload{
			ProjectID:       f.project.ID,
			PolicyID:        f.policy.ID,
			ConfigurationID: f.configuration.ID,
			PolicyChanges:   map[string]any{"needsRefresh": true},
		})
		require.NoError(t, f.reconciler.HandleReconcileProject(context.Background(), full))

		// a body-only edit lands between the sweeps
		require.NoError(t, f.db.Model(&models.Policy{}).Where("id = ?", f.policy.ID).
			Update("content", datatypes.JSON(`{"rules":[{"type":"approval","branches":["main"]},{"type":"approval","branches":["release"]}],"actions":[{"type":"require_approval","approvals_required":2}]}`)).Error)

		narrow := reconcileTask(t, dtos.ReconcileTaskPayload{
			ProjectID:       f.project.ID,
			PolicyID:        f.policy.ID,
			ConfigurationID: f.configuration.ID,
			PolicyChanges:   map[string]any{"needsRulesRefresh": true},
		})
		require.NoError(t, f.reconciler.HandleReconcileProject(context.Background(), narrow))

		links, err := f.linkRepo.FindByProjectAndPolicy(f.project.ID, f.policy.ID)
		require.NoError(t, err)
		require.Len(t, links, 4)

		byType := map[models.RuleType][]models.ProjectPolicyLink{}
		for _, link := range links {
			byType[link.RuleType] = append(byType[link.RuleType], link)
		}
		require.Len(t, byType[models.RuleTypeApproval], 2)
		require.Len(t, byType[models.RuleTypeScanResultRead], 2)

		// primary rows carry the edited body, secondary rows survived
		for _, link := range byType[models.RuleTypeApproval] {
			assert.Contains(t, string(link.RuleData), `"approvals_required":2`)
		}
	})

	t.Run("framework change regenerates rows for projects still in scope", func(t *testing.T) {
		f := newReconcilerFixture(t)
		framework := models.ComplianceFramework{Name: "soc2"}
		require.NoError(t, f.db.Create(&framework).Error)
		require.NoError(t, f.db.Model(&f.project).Association("Frameworks").Append(&framework))
		require.NoError(t, f.db.Model(&models.Policy{}).Where("id = ?", f.policy.ID).
			Update("scope", datatypes.JSON(`{"complianceFrameworkIds":["`+framework.ID.String()+`"]}`)).Error)
		f.tracker.On("RecordSuccess", f.configuration.ID, f.project.ID).Return(nil).Once()

		task := reconcileTask(t, dtos.ReconcileTaskPayload{
			ProjectID:       f.project.ID,
			PolicyID:        f.policy.ID,
			ConfigurationID: f.configuration.ID,
			Event: &dtos.SourceEvent{
				EventType: dtos.SourceEventComplianceFrameworkChange,
				Data:      map[string]any{"frameworkId": framework.ID.String()},
			},
		})
		require.NoError(t, f.reconciler.HandleReconcileProject(context.Background(), task))

		links, err := f.linkRepo.FindByProjectAndPolicy(f.project.ID, f.policy.ID)
		require.NoError(t, err)
		require.Len(t, links, 4)
	})

	t.Run("framework change removes rows for projects that left scope", func(t *testing.T) {
		f := newReconcilerFixture(t)
		framework := models.ComplianceFramework{Name: "soc2"}
		require.NoError(t, f.db.Create(&framework).Error)
		require.NoError(t, f.db.Model(&f.project).Association("Frameworks").Append(&framework))
		require.NoError(t, f.db.Model(&models.Policy{}).Where("id = ?", f.policy.ID).
			Update("scope", datatypes.JSON(`{"complianceFrameworkIds":["`+framework.ID.String()+`"]}`)).Error)
		f.tracker.On("RecordSuccess", f.configuration.ID, f.project.ID).Return(nil).Twice()

		// materialize the rows while the project is still a member
		full := reconcileTask(t, dtos.ReconcileTaskPayload{
			ProjectID:       f.project.ID,
			PolicyID:        f.policy.ID,
			ConfigurationID: f.configuration.ID,
			PolicyChanges:   map[string]any{"needsRefresh": true},
		})
		require.NoError(t, f.reconciler.HandleReconcileProject(context.Background(), full))

		require.NoError(t, f.db.Model(&f.project).Association("Frameworks").Clear())

		task := reconcileTask(t, dtos.ReconcileTaskPayload{
			ProjectID:       f.project.ID,
			PolicyID:        f.policy.ID,
			ConfigurationID: f.configuration.ID,
			Event: &dtos.SourceEvent{
				EventType: dtos.SourceEventComplianceFrameworkChange,
				Data:      map[string]any{"frameworkId": framework.ID.String()},
			},
		})
		require.NoError(t, f.reconciler.HandleReconcileProject(context.Background(), task))

		links, err := f.linkRepo.FindByProjectAndPolicy(f.project.ID, f.policy.ID)
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("vanished policy counts as success", func(t *testing.T) {
		f := newReconcilerFixture(t)
		configurationID := uuid.New()
		f.tracker.On("RecordSuccess", configurationID, f.project.ID).Return(nil).Once()

		task := reconcileTask(t, dtos.ReconcileTaskPayload{
			ProjectID:       f.project.ID,
			PolicyID:        uuid.New(),
			ConfigurationID: configurationID,
			PolicyChanges:   map[string]any{"needsRefresh": true},
		})
		require.NoError(t, f.reconciler.HandleReconcileProject(context.Background(), task))
	})

	t.Run("tombstoned policy counts as success and writes nothing", func(t *testing.T) {
		f := newReconcilerFixture(t)
		require.NoError(t, f.db.Model(&models.Policy{}).Where("id = ?", f.policy.ID).
			Update("policy_index", models.TombstonePolicyIndex).Error)
		f.tracker.On("RecordSuccess", f.configuration.ID, f.project.ID).Return(nil).Once()

		task := reconcileTask(t, dtos.ReconcileTaskPayload{
			ProjectID:       f.project.ID,
			PolicyID:        f.policy.ID,
			ConfigurationID: f.configuration.ID,
			PolicyChanges:   map[string]any{"needsRefresh": true},
		})
		require.NoError(t, f.reconciler.HandleReconcileProject(context.Background(), task))

		links, err := f.linkRepo.FindByProjectAndPolicy(f.project.ID, f.policy.ID)
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("vanished project counts as success", func(t *testing.T) {
		f := newReconcilerFixture(t)
		projectID := uuid.New()
		f.tracker.On("RecordSuccess", f.configuration.ID, projectID).Return(nil).Once()

		task := reconcileTask(t, dtos.ReconcileTaskPayload{
			ProjectID:       projectID,
			PolicyID:        f.policy.ID,
			ConfigurationID: f.configuration.ID,
			PolicyChanges:   map[string]any{"needsRefresh": true},
		})
		require.NoError(t, f.reconciler.HandleReconcileProject(context.Background(), task))
	})

	t.Run("invalid source event is terminal and counts as failure", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.tracker.On("RecordFailure", f.configuration.ID, f.project.ID).Return(nil).Once()

		task := reconcileTask(t, dtos.ReconcileTaskPayload{
			ProjectID:       f.project.ID,
			PolicyID:        f.policy.ID,
			ConfigurationID: f.configuration.ID,
			Event: &dtos.SourceEvent{
				EventType: dtos.SourceEventType("ProjectRenamed"),
				Data:      map[string]any{"name": "other"},
			},
		})
		// terminal: no error so the queue does not retry
		require.NoError(t, f.reconciler.HandleReconcileProject(context.Background(), task))

		links, err := f.linkRepo.FindByProjectAndPolicy(f.project.ID, f.policy.ID)
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("payload without changes or event is dropped", func(t *testing.T) {
		f := newReconcilerFixture(t)

		task := reconcileTask(t, dtos.ReconcileTaskPayload{
			ProjectID:       f.project.ID,
			PolicyID:        f.policy.ID,
			ConfigurationID: f.configuration.ID,
		})
		require.NoError(t, f.reconciler.HandleReconcileProject(context.Background(), task))
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		f := newReconcilerFixture(t)
		task := models.Task{Kind: TaskKindReconcileProject, Payload: datatypes.JSON(`{"projectId":42}`)}
		require.NoError(t, f.reconciler.HandleReconcileProject(context.Background(), task))
	})
}

func TestHandleDeletePolicy(t *testing.T) {
	deleteTask := func(t *testing.T, policyID uuid.UUID) models.Task {
		t.Helper()
		b, err := json.Marshal(dtos.DeletePolicyTaskPayload{PolicyID: policyID})
		require.NoError(t, err)
		return models.Task{Kind: TaskKindDeletePolicy, Payload: datatypes.JSON(b)}
	}

	t.Run("refuses policies that are not tombstoned", func(t *testing.T) {
		f := newReconcilerFixture(t)

		require.NoError(t, f.reconciler.HandleDeletePolicy(context.Background(), deleteTask(t, f.policy.ID)))

		var count int64
		require.NoError(t, f.db.Model(&models.Policy{}).Where("id = ?", f.policy.ID).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("removes the tombstone and its rule rows together", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.tracker.On("RecordSuccess", f.configuration.ID, f.project.ID).Return(nil).Once()

		// materialize rule rows first, then tombstone
		task := reconcileTask(t, dtos.ReconcileTaskPayload{
			ProjectID:       f.project.ID,
			PolicyID:        f.policy.ID,
			ConfigurationID: f.configuration.ID,
			PolicyChanges:   map[string]any{"needsRefresh": true},
		})
		require.NoError(t, f.reconciler.HandleReconcileProject(context.Background(), task))
		require.NoError(t, f.db.Model(&models.Policy{}).Where("id = ?", f.policy.ID).
			Update("policy_index", models.TombstonePolicyIndex).Error)

		require.NoError(t, f.reconciler.HandleDeletePolicy(context.Background(), deleteTask(t, f.policy.ID)))

		var policyCount, linkCount int64
		require.NoError(t, f.db.Model(&models.Policy{}).Where("id = ?", f.policy.ID).Count(&policyCount).Error)
		require.NoError(t, f.db.Model(&models.ProjectPolicyLink{}).Where("policy_id = ?", f.policy.ID).Count(&linkCount).Error)
		assert.EqualValues(t, 0, policyCount)
		assert.EqualValues(t, 0, linkCount)
	})

	t.Run("already deleted policy is a no-op", func(t *testing.T) {
		f := newReconcilerFixture(t)
		require.NoError(t, f.reconciler.HandleDeletePolicy(context.Background(), deleteTask(t, uuid.New())))
	})
}
