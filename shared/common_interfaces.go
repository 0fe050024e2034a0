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
package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/dtos"
	"github.com/l3montree-dev/policyhub/utils"
)

type ConfigRepository interface {
	utils.Repository[string, models.Config, DB]
}

type PolicyRepository interface {
	utils.Repository[uuid.UUID, models.Policy, DB]
	FindActiveByConfigurationID(configurationID uuid.UUID) ([]models.Policy, error)
	FindTombstoned() ([]models.Policy, error)
	DeleteWithRules(policyID uuid.UUID) error
}

type PolicyConfigurationRepository interface {
	utils.Repository[uuid.UUID, models.PolicyConfiguration, DB]
	FindByProjectID(projectID uuid.UUID) (models.PolicyConfiguration, error)
	FindByNamespaceID(namespaceID uuid.UUID) (models.PolicyConfiguration, error)
}

type ProjectRepository interface {
	utils.Repository[uuid.UUID, models.Project, DB]
	FindIDsInScope(query dtos.ScopeQuery, afterID uuid.UUID, limit int) ([]uuid.UUID, error)
	FindFrameworkIDsOfProject(projectID uuid.UUID) ([]uuid.UUID, error)
}

type ProjectPolicyLinkRepository interface {
	utils.Repository[uuid.UUID, models.ProjectPolicyLink, DB]
	DeleteByProjectAndPolicy(tx DB, projectID, policyID uuid.UUID, ruleTypes []models.RuleType) error
	FindByProjectAndPolicy(projectID, policyID uuid.UUID) ([]models.ProjectPolicyLink, error)
}

type SyncStateRepository interface {
	Reset(configurationID uuid.UUID, expected int) error
	AddExpected(configurationID uuid.UUID, delta int) error
	IncrementSucceeded(configurationID uuid.UUID) error
	IncrementFailed(configurationID uuid.UUID) error
	Get(configurationID uuid.UUID) (models.SyncState, error)
}

type ComplianceFrameworkRepository interface {
	utils.Repository[uuid.UUID, models.ComplianceFramework, DB]
	FindLinkedFrameworkIDs(policyID uuid.UUID) ([]uuid.UUID, error)
	ReplacePolicyLinks(policyID uuid.UUID, frameworkIDs []uuid.UUID) error
	LinkPolicyFrameworks(policyID uuid.UUID, frameworkIDs []uuid.UUID) error
	UnlinkPolicyFrameworks(policyID uuid.UUID, frameworkIDs []uuid.UUID) error
}

type ConfigService interface {
	GetJSONConfig(key string, v any) error
	SetJSONConfig(key string, v any) error
	RemoveConfig(key string) error
}

type LeaderElector interface {
	IsLeader() bool
	IfLeader(ctx context.Context, fn func() error)
}

// SyncTracker is the per-configuration ledger of an in-flight sweep. No
// operation may fail on an unknown configuration id - Status reports a zero
// state instead.
type SyncTracker interface {
	Start(configurationID uuid.UUID, expected int) error
	AddExpected(configurationID uuid.UUID, delta int) error
	RecordSuccess(configurationID, projectID uuid.UUID) error
	RecordFailure(configurationID, projectID uuid.UUID) error
	Status(configurationID uuid.UUID) (dtos.SyncStatus, error)
}

// TaskSpec describes one unit of delayed work handed to the task queue.
type TaskSpec struct {
	Kind     string
	DedupKey string
	Payload  map[string]any
	Delay    time.Duration
}

// TaskQueue schedules work for asynchronous execution. Enqueueing is
// fire-and-forget: it never blocks on the task running, and two specs with
// the same dedup key collapse to one pending task.
type TaskQueue interface {
	Enqueue(ctx context.Context, spec TaskSpec) error
	EnqueueBatch(ctx context.Context, specs []TaskSpec) error
}

// ScopeResolver enumerates the projects a policy applies to, in pages, via a
// pull-based iterator. The full set is never materialized in memory.
type ScopeResolver interface {
	ForEachProjectBatch(ctx context.Context, configuration models.PolicyConfiguration, scope dtos.PolicyScope, batchSize int, fn func(projectIDs []uuid.UUID) error) error
}

// FanoutScheduler turns one policy change into many delayed per-project
// reconciliation tasks.
type FanoutScheduler interface {
	ScheduleSweep(ctx context.Context, policy models.Policy, changes map[string]any, event *dtos.SourceEvent) error
}

// RuleService regenerates a project's derived enforcement rows from the
// current policy definition.
type RuleService interface {
	RegenerateRules(tx DB, policy models.Policy, projectID uuid.UUID) error
	RefreshRuleRows(tx DB, policy models.Policy, projectID uuid.UUID) error
}

// FrameworkLinker keeps the policy <-> compliance framework associations in
// line with the policy's scope. When the diff carries the changed portion of
// scope, linking may be limited to that delta.
type FrameworkLinker interface {
	SyncFrameworkLinks(policy models.Policy, diff *dtos.PolicyDiff) error
}

// PipelineMetadataSyncer refreshes the pipeline execution metadata other
// subsystems cache for a policy.
type PipelineMetadataSyncer interface {
	SyncPipelineExecutionMetadata(policy models.Policy) error
}

// PolicyService parses the policy-as-code source of a configuration and
// caches the parsed representation until the source changes.
type PolicyService interface {
	ParseSource(configuration models.PolicyConfiguration) ([]models.Policy, error)
	InvalidateCache(configurationID uuid.UUID)
}

// SourceIngester applies a policy-as-code source to a configuration and
// publishes the resulting lifecycle events.
type SourceIngester interface {
	ApplySource(ctx context.Context, configurationID uuid.UUID, source string) ([]dtos.PolicyLifecycleEvent, error)
}
