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
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/dtos"
	"github.com/l3montree-dev/policyhub/monitoring"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/l3montree-dev/policyhub/taskqueue"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Reconciler is the idempotent per project unit of work. Every invocation
// deletes the project's derived rows for the policy's rule types and
// regenerates them from the current definition, so re-running is always safe.
type Reconciler struct {
	policyRepository  shared.PolicyRepository
	projectRepository shared.ProjectRepository
	linkRepository    shared.ProjectPolicyLinkRepository
	ruleService       shared.RuleService
	tracker           shared.SyncTracker
}

func NewReconciler(policyRepository shared.PolicyRepository, projectRepository shared.ProjectRepository, linkRepository shared.ProjectPolicyLinkRepository, ruleService shared.RuleService, tracker shared.SyncTracker) *Reconciler {
	return &Reconciler{
		policyRepository:  policyRepository,
		projectRepository: projectRepository,
		linkRepository:    linkRepository,
		ruleService:       ruleService,
		tracker:           tracker,
	}
}

// Register wires the reconciler's task handlers into the worker.
func (r *Reconciler) Register(worker *taskqueue.Worker) {
	worker.Register(TaskKindReconcileProject, r.HandleReconcileProject)
	worker.Register(TaskKindDeletePolicy, r.HandleDeletePolicy)
}

// HandleReconcileProject processes one fan-out task. Not-found entities are
// silent no-ops (the entity may have been deleted between scheduling and
// execution), validation failures are terminal, anything else is recorded as
// a failure and re-raised for the queue's retry policy.
func (r *Reconciler) HandleReconcileProject(ctx context.Context, task models.Task) error {
	start := time.Now()
	defer func() {
		monitoring.ReconcileDuration.Observe(time.Since(start).Seconds())
	}()

	payload, err := dtos.ReconcileTaskPayloadFromJSON(task.Payload)
	if err != nil {
		slog.Error("could not decode reconcile task payload", "taskId", task.ID, "err", err)
		return nil
	}
	if err := payload.Validate(); err != nil {
		slog.Error("invalid reconcile task payload", "taskId", task.ID, "projectId", payload.ProjectID, "policyId", payload.PolicyID, "err", err)
		return nil
	}

	policy, err := r.policyRepository.Read(payload.PolicyID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Debug("policy vanished before reconciliation", "policyId", payload.PolicyID)
		r.recordSuccess(payload.ConfigurationID, payload.ProjectID)
		return nil
	}
	if err != nil {
		r.recordFailure(payload.ConfigurationID, payload.ProjectID)
		return errors.Wrap(err, "could not load policy")
	}
	// attribute to the sweep of the configuration the policy belongs to now
	configurationID := policy.PolicyConfigurationID

	if policy.IsTombstoned() || !policy.Enabled {
		slog.Debug("policy no longer active - nothing to reconcile", "policyId", policy.ID)
		r.recordSuccess(configurationID, payload.ProjectID)
		return nil
	}

	if _, err := r.projectRepository.Read(payload.ProjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Debug("project vanished before reconciliation", "projectId", payload.ProjectID)
			r.recordSuccess(configurationID, payload.ProjectID)
			return nil
		}
		r.recordFailure(configurationID, payload.ProjectID)
		return errors.Wrap(err, "could not load project")
	}

	if payload.Event != nil {
		if err := payload.Event.Validate(); err != nil {
			// terminal: retrying cannot fix a malformed event
			slog.Warn("rejecting event driven reconciliation", "projectId", payload.ProjectID, "policyId", policy.ID, "eventType", payload.Event.EventType, "err", err)
			r.recordFailure(configurationID, payload.ProjectID)
			return nil
		}

		// a framework change can move the project out of the policy's scope,
		// in which case its derived rows must go, not be regenerated
		if payload.Event.EventType == dtos.SourceEventComplianceFrameworkChange {
			inScope, err := r.projectInFrameworkScope(policy, payload.ProjectID)
			if err != nil {
				r.recordFailure(configurationID, payload.ProjectID)
				return errors.Wrap(err, "could not resolve project framework membership")
			}
			if !inScope {
				err := r.linkRepository.Transaction(func(tx shared.DB) error {
					return r.linkRepository.DeleteByProjectAndPolicy(tx, payload.ProjectID, policy.ID, policy.RuleTypes())
				})
				if err != nil {
					r.recordFailure(configurationID, payload.ProjectID)
					return errors.Wrap(err, "could not remove out of scope rule rows")
				}
				slog.Debug("project left the policy's framework scope", "projectId", payload.ProjectID, "policyId", policy.ID)
				r.recordSuccess(configurationID, payload.ProjectID)
				return nil
			}
		}
	}

	// a narrow rules refresh replaces only the primary rule rows, so only
	// those may be deleted - secondary rows must survive untouched
	narrow := rulesRefreshOnly(payload.PolicyChanges)
	ruleTypes := policy.RuleTypes()
	if narrow && len(ruleTypes) > 1 {
		ruleTypes = ruleTypes[:1]
	}

	err = r.linkRepository.Transaction(func(tx shared.DB) error {
		if err := r.linkRepository.DeleteByProjectAndPolicy(tx, payload.ProjectID, policy.ID, ruleTypes); err != nil {
			return errors.Wrap(err, "could not delete stale rule rows")
		}
		if narrow {
			return r.ruleService.RefreshRuleRows(tx, policy, payload.ProjectID)
		}
		return r.ruleService.RegenerateRules(tx, policy, payload.ProjectID)
	})
	if err != nil {
		if database.IsDuplicateKeyError(err) {
			// a concurrent sweep already materialized the rows
			slog.Debug("rule rows already materialized", "projectId", payload.ProjectID, "policyId", policy.ID)
			r.recordSuccess(configurationID, payload.ProjectID)
			return nil
		}
		monitoring.ReconcileFailed.Inc()
		// record before re-raising so the tracker stays accurate even
		// though the task backend retries
		r.recordFailure(configurationID, payload.ProjectID)
		return errors.Wrap(err, "could not reconcile project")
	}

	monitoring.ReconcileSucceeded.Inc()
	r.recordSuccess(configurationID, payload.ProjectID)
	return nil
}

// HandleDeletePolicy removes a tombstoned policy's rule rows and the policy
// row itself in one all-or-nothing transaction.
func (r *Reconciler) HandleDeletePolicy(ctx context.Context, task models.Task) error {
	payload, err := dtos.DeletePolicyTaskPayloadFromJSON(task.Payload)
	if err != nil {
		slog.Error("could not decode delete policy task payload", "taskId", task.ID, "err", err)
		return nil
	}

	policy, err := r.policyRepository.Read(payload.PolicyID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// already gone
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "could not load policy")
	}

	if !policy.IsTombstoned() {
		slog.Warn("refusing to delete a policy that is not tombstoned", "policyId", policy.ID)
		return nil
	}

	return r.policyRepository.DeleteWithRules(policy.ID)
}

// projectInFrameworkScope reports whether the project still satisfies the
// policy's compliance framework scope. Policies without a framework scope
// cover every project the fan-out selected.
func (r *Reconciler) projectInFrameworkScope(policy models.Policy, projectID uuid.UUID) (bool, error) {
	scope, err := policy.ParseScope()
	if err != nil {
		return false, err
	}
	if len(scope.ComplianceFrameworkIDs) == 0 {
		return true, nil
	}
	// an explicit include wins over framework membership
	for _, id := range scope.IncludingProjectIDs {
		if id == projectID {
			return true, nil
		}
	}

	frameworkIDs, err := r.projectRepository.FindFrameworkIDsOfProject(projectID)
	if err != nil {
		return false, err
	}
	memberships := make(map[uuid.UUID]struct{}, len(frameworkIDs))
	for _, id := range frameworkIDs {
		memberships[id] = struct{}{}
	}
	for _, id := range scope.ComplianceFrameworkIDs {
		if _, ok := memberships[id]; ok {
			return true, nil
		}
	}
	return false, nil
}

// rulesRefreshOnly is true when the change payload asks for the narrower rule
// row regeneration without a full rebuild.
func rulesRefreshOnly(changes map[string]any) bool {
	if len(changes) == 0 {
		return false
	}
	needsRefresh, _ := changes["needsRefresh"].(bool)
	needsRulesRefresh, _ := changes["needsRulesRefresh"].(bool)
	return needsRulesRefresh && !needsRefresh
}

// tracker counts are advisory - a tracker write failure must never fail the
// reconciliation itself.
func (r *Reconciler) recordSuccess(configurationID, projectID uuid.UUID) {
	if err := r.tracker.RecordSuccess(configurationID, projectID); err != nil {
		slog.Error("could not record reconciliation success", "configurationId", configurationID, "projectId", projectID, "err", err)
	}
}

func (r *Reconciler) recordFailure(configurationID, projectID uuid.UUID) {
	if err := r.tracker.RecordFailure(configurationID, projectID); err != nil {
		slog.Error("could not record reconciliation failure", "configurationId", configurationID, "projectId", projectID, "err", err)
	}
}
