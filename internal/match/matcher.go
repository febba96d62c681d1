package match

import (
	"sort"
	"strings"

	"github.com/mfaurel/comptamatch/internal/model"
)

// Matches reports whether a rule matches a transaction label. It is the
// single source of truth for matching semantics, shared by the suggestion
// engine, the preview builder and the apply executor.
//
// Disabled rules never match. The label and every pattern are trimmed and
// lower-cased before comparison. A rule matches when any pattern matches
// under the rule's match type. An empty label never matches.
func Matches(label string, rule *model.MatchingRule) bool {
	if rule == nil || !rule.Enabled {
		return false
	}

	normalized := normalizeForMatch(label)
	if normalized == "" {
		return false
	}

	for _, pattern := range rule.Patterns {
		p := normalizeForMatch(pattern)
		if p == "" {
			continue
		}

		switch rule.MatchType {
		case model.MatchExact:
			if normalized == p {
				return true
			}
		case model.MatchContains:
			if strings.Contains(normalized, p) {
				return true
			}
		}
	}

	return false
}

// SortRulesByPriority orders rules for first-match-wins evaluation:
// ascending priority, ties broken by creation order. The sort is stable.
func SortRulesByPriority(rules []model.MatchingRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
}

// FirstMatch returns the first rule in priority order that matches the
// label. The rules slice must already be sorted by SortRulesByPriority.
func FirstMatch(label string, rules []model.MatchingRule) (*model.MatchingRule, bool) {
	for i := range rules {
		if Matches(label, &rules[i]) {
			return &rules[i], true
		}
	}
	return nil, false
}

// longestMatchingPattern returns the longest normalized pattern of the rule
// that matches the label, used by confidence scoring.
func longestMatchingPattern(label string, rule *model.MatchingRule) string {
	normalized := normalizeForMatch(label)
	var best string
	for _, pattern := range rule.Patterns {
		p := normalizeForMatch(pattern)
		if p == "" || len(p) <= len(best) {
			continue
		}
		switch rule.MatchType {
		case model.MatchExact:
			if normalized == p {
				best = p
			}
		case model.MatchContains:
			if strings.Contains(normalized, p) {
				best = p
			}
		}
	}
	return best
}
