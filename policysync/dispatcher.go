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

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/dtos"
	"github.com/l3montree-dev/policyhub/monitoring"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Dispatcher is the entry point of the engine. It consumes policy lifecycle
// events and decides whether to fan out, sync metadata, or enqueue a deletion
// cascade. It performs no direct writes itself.
type Dispatcher struct {
	config           Config
	policyRepository shared.PolicyRepository
	scheduler        shared.FanoutScheduler
	frameworkLinker  shared.FrameworkLinker
	pipelineSyncer   shared.PipelineMetadataSyncer
	queue            shared.TaskQueue
}

func NewDispatcher(config Config, policyRepository shared.PolicyRepository, scheduler shared.FanoutScheduler, frameworkLinker shared.FrameworkLinker, pipelineSyncer shared.PipelineMetadataSyncer, queue shared.TaskQueue) *Dispatcher {
	return &Dispatcher{
		config:           config,
		policyRepository: policyRepository,
		scheduler:        scheduler,
		frameworkLinker:  frameworkLinker,
		pipelineSyncer:   pipelineSyncer,
		queue:            queue,
	}
}

// Listen subscribes to the policy lifecycle channel and handles events until
// the context is cancelled.
func (d *Dispatcher) Listen(ctx context.Context, broker shared.PubSubBroker) error {
	ch, err := broker.Subscribe(shared.PolicyLifecycle)
	if err != nil {
		return errors.Wrap(err, "could not subscribe to policy lifecycle channel")
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-ch:
				if !ok {
					return
				}
				event, err := dtos.PolicyLifecycleEventFromMap(payload)
				if err != nil {
					slog.Error("could not decode policy lifecycle event", "err", err)
					continue
				}
				if err := d.HandleEvent(ctx, event); err != nil {
					slog.Error("could not handle policy lifecycle event", "kind", event.Kind, "policyId", event.PolicyID, "err", err)
				}
			}
		}
	}()
	return nil
}

// HandleEvent routes one lifecycle event. An unknown kind is a registration
// mismatch between publisher and dispatcher and surfaces loudly.
func (d *Dispatcher) HandleEvent(ctx context.Context, event dtos.PolicyLifecycleEvent) error {
	switch event.Kind {
	case dtos.PolicyEventCreated:
		return d.handleCreatedOrResync(ctx, event.PolicyID, nil)
	case dtos.PolicyEventResync:
		return d.handleCreatedOrResync(ctx, event.PolicyID, event.Event)
	case dtos.PolicyEventUpdated:
		return d.handleUpdated(ctx, event)
	case dtos.PolicyEventDeleted:
		return d.handleDeleted(ctx, event.PolicyID)
	default:
		err := errors.Errorf("unknown policy event kind %q", event.Kind)
		monitoring.Alert("unknown policy event kind", err)
		return err
	}
}

func (d *Dispatcher) handleCreatedOrResync(ctx context.Context, policyID uuid.UUID, event *dtos.SourceEvent) error {
	policy, err := d.policyRepository.Read(policyID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Debug("policy vanished before dispatch", "policyId", policyID)
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "could not load policy")
	}

	if policy.IsTombstoned() || !policy.Enabled {
		slog.Debug("ignoring event for inactive policy", "policyId", policyID, "enabled", policy.Enabled, "tombstoned", policy.IsTombstoned())
		return nil
	}

	if err := d.pipelineSyncer.SyncPipelineExecutionMetadata(policy); err != nil {
		return errors.Wrap(err, "could not sync pipeline execution metadata")
	}
	if err := d.frameworkLinker.SyncFrameworkLinks(policy, nil); err != nil {
		return errors.Wrap(err, "could not sync compliance framework links")
	}

	var changes map[string]any
	if event == nil {
		// a freshly created policy needs everything materialized
		changes = dtos.PolicyDiff{
			ContentChanged: true,
			ScopeChanged:   true,
			NeedsRefresh:   true,
		}.ToChangesPayload()
	}
	return d.scheduler.ScheduleSweep(ctx, policy, changes, event)
}

func (d *Dispatcher) handleUpdated(ctx context.Context, event dtos.PolicyLifecycleEvent) error {
	if event.Diff == nil {
		slog.Warn("updated event without diff payload - dropping", "policyId", event.PolicyID)
		return nil
	}
	diff := *event.Diff

	policy, err := d.policyRepository.Read(event.PolicyID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Debug("policy vanished before dispatch", "policyId", event.PolicyID)
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "could not load policy")
	}

	if diff.ContentChanged {
		if err := d.pipelineSyncer.SyncPipelineExecutionMetadata(policy); err != nil {
			return errors.Wrap(err, "could not sync pipeline execution metadata")
		}
	}
	if diff.ScopeChanged {
		linkDiff := &diff
		if !d.config.ScopedFrameworkRelink {
			linkDiff = nil
		}
		if err := d.frameworkLinker.SyncFrameworkLinks(policy, linkDiff); err != nil {
			return errors.Wrap(err, "could not sync compliance framework links")
		}
	}

	// cosmetic edits stop here - no project gets touched
	if diff.NoOp() {
		slog.Debug("policy update needs no reconciliation", "policyId", event.PolicyID)
		return nil
	}

	return d.scheduler.ScheduleSweep(ctx, policy, diff.ToChangesPayload(), nil)
}

func (d *Dispatcher) handleDeleted(ctx context.Context, policyID uuid.UUID) error {
	// no fan-out: one idempotent task removes the rule rows and the
	// tombstone transactionally
	return d.queue.Enqueue(ctx, shared.TaskSpec{
		Kind:     TaskKindDeletePolicy,
		DedupKey: TaskKindDeletePolicy + ":" + policyID.String(),
		Payload:  map[string]any{"policyId": policyID.String()},
	})
}
