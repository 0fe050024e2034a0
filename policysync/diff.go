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
	"reflect"

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database/models"
	"github.com/l3montree-dev/policyhub/dtos"
	"github.com/l3montree-dev/policyhub/utils"
)

// cosmeticContentFields never affect enforcement. Edits touching only these
// must not trigger any reconciliation.
var cosmeticContentFields = []string{"name", "description", "metadata"}

// rulePredicateFields decide which projects and branches a rule applies to.
// Changing one of these requires full per-project reconciliation, not just a
// rule row refresh.
var rulePredicateFields = []string{"type", "branches", "branchType", "severityLevels", "scanners"}

// ComputeDiff classifies the change between two snapshots of the same policy.
// Pure - no I/O. Content comparison is key order insensitive since both sides
// are parsed into maps first. Tombstoned policies yield an empty diff.
func ComputeDiff(oldPolicy, newPolicy models.Policy) (dtos.PolicyDiff, error) {
	var diff dtos.PolicyDiff
	if oldPolicy.IsTombstoned() || newPolicy.IsTombstoned() {
		return diff, nil
	}

	oldContent, err := oldPolicy.ParseContent()
	if err != nil {
		return diff, err
	}
	newContent, err := newPolicy.ParseContent()
	if err != nil {
		return diff, err
	}
	oldScope, err := oldPolicy.ParseScope()
	if err != nil {
		return diff, err
	}
	newScope, err := newPolicy.ParseScope()
	if err != nil {
		return diff, err
	}

	diff.ContentChanged = !reflect.DeepEqual(oldContent, newContent)

	if !scopesEqual(oldScope, newScope) {
		diff.ScopeChanged = true
		diff.NeedsRefresh = true
		diff.AddedFrameworkIDs = uuidSetDifference(newScope.ComplianceFrameworkIDs, oldScope.ComplianceFrameworkIDs)
		diff.RemovedFrameworkIDs = uuidSetDifference(oldScope.ComplianceFrameworkIDs, newScope.ComplianceFrameworkIDs)
	}

	oldSignificant := withoutCosmeticFields(oldContent)
	newSignificant := withoutCosmeticFields(newContent)
	if !reflect.DeepEqual(oldSignificant, newSignificant) {
		if !reflect.DeepEqual(oldSignificant["actions"], newSignificant["actions"]) {
			diff.NeedsRefresh = true
		}
		needsRefresh, needsRulesRefresh := classifyRuleChange(oldSignificant["rules"], newSignificant["rules"])
		diff.NeedsRefresh = diff.NeedsRefresh || needsRefresh
		diff.NeedsRulesRefresh = diff.NeedsRulesRefresh || needsRulesRefresh

		// some other significant field changed, rule rows embed the content
		if !diff.NeedsRefresh && !diff.NeedsRulesRefresh {
			diff.NeedsRulesRefresh = true
		}
	}

	return diff, nil
}

func withoutCosmeticFields(content map[string]any) map[string]any {
	significant := make(map[string]any, len(content))
	for key, value := range content {
		significant[key] = value
	}
	for _, field := range cosmeticContentFields {
		delete(significant, field)
	}
	return significant
}

// classifyRuleChange distinguishes predicate changes (which projects see a
// rule) from body-only changes (only the derived rule rows differ).
func classifyRuleChange(oldValue, newValue any) (needsRefresh bool, needsRulesRefresh bool) {
	if reflect.DeepEqual(oldValue, newValue) {
		return false, false
	}
	oldRules, oldOK := asSlice(oldValue)
	newRules, newOK := asSlice(newValue)
	if !oldOK || !newOK || len(oldRules) != len(newRules) {
		// a rule was added or removed, or the shape is unexpected
		return true, false
	}
	for i := range oldRules {
		oldRule, oldIsMap := oldRules[i].(map[string]any)
		newRule, newIsMap := newRules[i].(map[string]any)
		if !oldIsMap || !newIsMap {
			return true, false
		}
		for _, field := range rulePredicateFields {
			if !reflect.DeepEqual(oldRule[field], newRule[field]) {
				return true, false
			}
		}
	}
	return false, true
}

func asSlice(value any) ([]any, bool) {
	if value == nil {
		return nil, true
	}
	s, ok := value.([]any)
	return s, ok
}

func scopesEqual(a, b dtos.PolicyScope) bool {
	return uuidSetEqual(a.ComplianceFrameworkIDs, b.ComplianceFrameworkIDs) &&
		uuidSetEqual(a.IncludingProjectIDs, b.IncludingProjectIDs) &&
		uuidSetEqual(a.ExcludingProjectIDs, b.ExcludingProjectIDs)
}

func uuidSetEqual(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uuid.UUID]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// uuidSetDifference returns the ids in a that are not in b.
func uuidSetDifference(a, b []uuid.UUID) []uuid.UUID {
	set := make(map[uuid.UUID]struct{}, len(b))
	for _, id := range b {
		set[id] = struct{}{}
	}
	return utils.Filter(a, func(id uuid.UUID) bool {
		_, ok := set[id]
		return !ok
	})
}
