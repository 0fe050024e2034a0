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

package services

import (
	"time"

	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/pkg/errors"
)

// PipelineMetadataSyncer refreshes the pipeline execution metadata other
// subsystems read from the config store. Non pipeline policies are a no-op.
type PipelineMetadataSyncer struct {
	configService shared.ConfigService
}

func NewPipelineMetadataSyncer(configService shared.ConfigService) *PipelineMetadataSyncer {
	return &PipelineMetadataSyncer{configService: configService}
}

func pipelineMetadataKey(policy models.Policy) string {
	return "pipelineMetadata:" + policy.ID.String()
}

func (s *PipelineMetadataSyncer) SyncPipelineExecutionMetadata(policy models.Policy) error {
	if policy.Type != models.PolicyTypePipelineExecution && policy.Type != models.PolicyTypePipelineExecutionSchedule {
		return nil
	}

	content, err := policy.ParseContent()
	if err != nil {
		return err
	}

	metadata := map[string]any{
		"policyId": policy.ID.String(),
		"type":     policy.Type,
		"enabled":  policy.Enabled,
		"checksum": policy.Checksum,
		"content":  content,
		"syncedAt": time.Now().UTC(),
	}
	if err := s.configService.SetJSONConfig(pipelineMetadataKey(policy), metadata); err != nil {
		return errors.Wrap(err, "could not store pipeline execution metadata")
	}
	return nil
}
