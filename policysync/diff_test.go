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
	"testing"

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func policyWithContent(content, scope string) models.Policy {
	return models.Policy{
		PolicyIndex: 0,
		Type:        models.PolicyTypeApproval,
		Enabled:     true,
		Content:     datatypes.JSON(content),
		Scope:       datatypes.JSON(scope),
	}
}

func TestComputeDiff(t *testing.T) {
	t.Run("identical snapshots produce an empty diff", func(t *testing.T) {
		oldPolicy := policyWithContent(`{"name":"a","rules":[{"type":"approval","branches":["main"]}]}`, `{}`)
		newPolicy := policyWithContent(`{"name":"a","rules":[{"type":"approval","branches":["main"]}]}`, `{}`)

		diff, err := ComputeDiff(oldPolicy, newPolicy)
		require.NoError(t, err)
		assert.False(t, diff.ContentChanged)
		assert.False(t, diff.ScopeChanged)
		assert.True(t, diff.NoOp())
	})

	t.Run("key order does not matter", func(t *testing.T) {
		oldPolicy := policyWithContent(`{"rules":[{"branches":["main"],"type":"approval"}],"name":"a"}`, `{}`)
		newPolicy := policyWithContent(`{"name":"a","rules":[{"type":"approval","branches":["main"]}]}`, `{}`)

		diff, err := ComputeDiff(oldPolicy, newPolicy)
		require.NoError(t, err)
		assert.False(t, diff.ContentChanged)
		assert.True(t, diff.NoOp())
	})

	t.Run("description only edit sets neither refresh flag", func(t *testing.T) {
		oldPolicy := policyWithContent(`{"description":"old","rules":[{"type":"approval"}]}`, `{}`)
		newPolicy := policyWithContent(`{"description":"new","rules":[{"type":"approval"}]}`, `{}`)

		diff, err := ComputeDiff(oldPolicy, newPolicy)
		require.NoError(t, err)
		assert.True(t, diff.ContentChanged)
		assert.False(t, diff.NeedsRefresh)
		assert.False(t, diff.NeedsRulesRefresh)
		assert.True(t, diff.NoOp())
	})

	t.Run("adding an action sets needs refresh", func(t *testing.T) {
		oldPolicy := policyWithContent(`{"rules":[{"type":"approval"}],"actions":[]}`, `{}`)
		newPolicy := policyWithContent(`{"rules":[{"type":"approval"}],"actions":[{"type":"send_bot_message"}]}`, `{}`)

		diff, err := ComputeDiff(oldPolicy, newPolicy)
		require.NoError(t, err)
		assert.True(t, diff.NeedsRefresh)
	})

	t.Run("removing a rule sets needs refresh", func(t *testing.T) {
		oldPolicy := policyWithContent(`{"rules":[{"type":"approval"},{"type":"approval","branches":["dev"]}]}`, `{}`)
		newPolicy := policyWithContent(`{"rules":[{"type":"approval"}]}`, `{}`)

		diff, err := ComputeDiff(oldPolicy, newPolicy)
		require.NoError(t, err)
		assert.True(t, diff.NeedsRefresh)
	})

	t.Run("changing a branch predicate sets needs refresh", func(t *testing.T) {
		oldPolicy := policyWithContent(`{"rules":[{"type":"approval","branches":["main"],"approvalsRequired":1}]}`, `{}`)
		newPolicy := policyWithContent(`{"rules":[{"type":"approval","branches":["main","release"],"approvalsRequired":1}]}`, `{}`)

		diff, err := ComputeDiff(oldPolicy, newPolicy)
		require.NoError(t, err)
		assert.True(t, diff.NeedsRefresh)
	})

	t.Run("rule body only change sets only needs rules refresh", func(t *testing.T) {
		oldPolicy := policyWithContent(`{"rules":[{"type":"approval","branches":["main"],"approvalsRequired":1}]}`, `{}`)
		newPolicy := policyWithContent(`{"rules":[{"type":"approval","branches":["main"],"approvalsRequired":2}]}`, `{}`)

		diff, err := ComputeDiff(oldPolicy, newPolicy)
		require.NoError(t, err)
		assert.False(t, diff.NeedsRefresh)
		assert.True(t, diff.NeedsRulesRefresh)
	})

	t.Run("scope change sets needs refresh and the framework delta", func(t *testing.T) {
		kept := uuid.New()
		removed := uuid.New()
		added := uuid.New()
		oldPolicy := policyWithContent(`{"rules":[]}`,
			`{"complianceFrameworkIds":["`+kept.String()+`","`+removed.String()+`"]}`)
		newPolicy := policyWithContent(`{"rules":[]}`,
			`{"complianceFrameworkIds":["`+kept.String()+`","`+added.String()+`"]}`)

		diff, err := ComputeDiff(oldPolicy, newPolicy)
		require.NoError(t, err)
		assert.True(t, diff.ScopeChanged)
		assert.True(t, diff.NeedsRefresh)
		assert.Equal(t, []uuid.UUID{added}, diff.AddedFrameworkIDs)
		assert.Equal(t, []uuid.UUID{removed}, diff.RemovedFrameworkIDs)
	})

	t.Run("tombstoned policies yield an empty diff", func(t *testing.T) {
		oldPolicy := policyWithContent(`{"rules":[{"type":"approval"}]}`, `{}`)
		newPolicy := policyWithContent(`{"rules":[]}`, `{}`)
		newPolicy.PolicyIndex = models.TombstonePolicyIndex

		diff, err := ComputeDiff(oldPolicy, newPolicy)
		require.NoError(t, err)
		assert.False(t, diff.ContentChanged)
		assert.True(t, diff.NoOp())
	})
}
