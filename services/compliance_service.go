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
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/dtos"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/pkg/errors"
)

// FrameworkLinker keeps the policy to compliance framework associations in
// line with the policy's scope.
type FrameworkLinker struct {
	frameworkRepository shared.ComplianceFrameworkRepository
}

func NewFrameworkLinker(frameworkRepository shared.ComplianceFrameworkRepository) *FrameworkLinker {
	return &FrameworkLinker{frameworkRepository: frameworkRepository}
}

// SyncFrameworkLinks replaces the policy's framework links with the ones its
// scope names. When the diff carries the changed portion of scope, only the
// delta is touched.
func (l *FrameworkLinker) SyncFrameworkLinks(policy models.Policy, diff *dtos.PolicyDiff) error {
	if diff != nil && (len(diff.AddedFrameworkIDs) > 0 || len(diff.RemovedFrameworkIDs) > 0) {
		if err := l.frameworkRepository.UnlinkPolicyFrameworks(policy.ID, diff.RemovedFrameworkIDs); err != nil {
			return errors.Wrap(err, "could not unlink compliance frameworks")
		}
		if err := l.frameworkRepository.LinkPolicyFrameworks(policy.ID, diff.AddedFrameworkIDs); err != nil {
			return errors.Wrap(err, "could not link compliance frameworks")
		}
		return nil
	}

	scope, err := policy.ParseScope()
	if err != nil {
		return err
	}
	return l.frameworkRepository.ReplacePolicyLinks(policy.ID, scope.ComplianceFrameworkIDs)
}
