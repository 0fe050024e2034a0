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
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/dtos"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/pkg/errors"
)

// SourceIngester is the authoring entry point of the engine. It applies a new
// policy-as-code source to a configuration, persists the resulting policy
// rows and publishes one lifecycle event per change. The dispatcher picks the
// events up asynchronously - ingestion itself never fans out.
type SourceIngester struct {
	configurationRepository shared.PolicyConfigurationRepository
	policyRepository        shared.PolicyRepository
	policyService           shared.PolicyService
	broker                  shared.PubSubBroker
}

func NewSourceIngester(configurationRepository shared.PolicyConfigurationRepository, policyRepository shared.PolicyRepository, policyService shared.PolicyService, broker shared.PubSubBroker) *SourceIngester {
	return &SourceIngester{
		configurationRepository: configurationRepository,
		policyRepository:        policyRepository,
		policyService:           policyService,
		broker:                  broker,
	}
}

// policyKey identifies a policy within its configuration. The index is stable
// per type, so positional edits in the source map onto the same row.
type policyKey struct {
	policyType  models.PolicyType
	policyIndex int
}

// ApplySource replaces the configuration's source and reconciles the policy
// rows with it: new definitions are created, changed ones updated, vanished
// ones tombstoned. An unchanged source is a no-op. The returned events are
// the ones published to the lifecycle channel.
func (s *SourceIngester) ApplySource(ctx context.Context, configurationID uuid.UUID, source string) ([]dtos.PolicyLifecycleEvent, error) {
	configuration, err := s.configurationRepository.Read(configurationID)
	if err != nil {
		return nil, err
	}

	checksum := sourceChecksum(source)
	if checksum == configuration.SourceChecksum {
		slog.Debug("policy source unchanged - nothing to ingest", "configurationId", configurationID)
		return nil, nil
	}

	configuration.Source = source
	configuration.SourceChecksum = checksum
	s.policyService.InvalidateCache(configurationID)
	desired, err := s.policyService.ParseSource(configuration)
	if err != nil {
		return nil, err
	}
	if err := s.configurationRepository.Save(nil, &configuration); err != nil {
		return nil, errors.Wrap(err, "could not persist policy source")
	}

	existing, err := s.policyRepository.FindActiveByConfigurationID(configurationID)
	if err != nil {
		return nil, errors.Wrap(err, "could not load existing policies")
	}
	current := make(map[policyKey]models.Policy, len(existing))
	for _, policy := range existing {
		current[policyKey{policy.Type, policy.PolicyIndex}] = policy
	}

	var events []dtos.PolicyLifecycleEvent
	for _, next := range desired {
		key := policyKey{next.Type, next.PolicyIndex}
		previous, ok := current[key]
		if !ok {
			if err := s.policyRepository.Create(nil, &next); err != nil {
				return nil, errors.Wrap(err, "could not create policy")
			}
			events = append(events, dtos.PolicyLifecycleEvent{Kind: dtos.PolicyEventCreated, PolicyID: next.ID})
			continue
		}
		delete(current, key)

		diff, err := ComputeDiff(previous, next)
		if err != nil {
			return nil, err
		}
		if !diff.ContentChanged && !diff.ScopeChanged && previous.Enabled == next.Enabled {
			continue
		}
		// an enable flip is invisible to the content diff but needs a sweep
		if previous.Enabled != next.Enabled {
			diff.NeedsRefresh = true
		}
		previous.Enabled = next.Enabled
		previous.Content = next.Content
		previous.Scope = next.Scope
		previous.Checksum = next.Checksum
		if err := s.policyRepository.Save(nil, &previous); err != nil {
			return nil, errors.Wrap(err, "could not update policy")
		}
		events = append(events, dtos.PolicyLifecycleEvent{Kind: dtos.PolicyEventUpdated, PolicyID: previous.ID, Diff: &diff})
	}

	// whatever is left vanished from the source
	for _, leftover := range current {
		leftover.PolicyIndex = models.TombstonePolicyIndex
		if err := s.policyRepository.Save(nil, &leftover); err != nil {
			return nil, errors.Wrap(err, "could not tombstone policy")
		}
		events = append(events, dtos.PolicyLifecycleEvent{Kind: dtos.PolicyEventDeleted, PolicyID: leftover.ID})
	}

	for _, event := range events {
		if err := s.broker.Publish(ctx, shared.NewSimplePubSubMessage(shared.PolicyLifecycle, event.ToMap())); err != nil {
			return events, errors.Wrapf(err, "could not publish %s event for policy %s", event.Kind, event.PolicyID)
		}
	}
	slog.Info("policy source ingested", "configurationId", configurationID, "changes", len(events))
	return events, nil
}

func sourceChecksum(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}
