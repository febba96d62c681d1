package match

import (
	"fmt"

	"github.com/mfaurel/comptamatch/internal/model"
)

// Bucket thresholds are review policy, not matching semantics. Tune here.
const (
	HighConfidenceThreshold   = 0.8
	MediumConfidenceThreshold = 0.5
)

// Scoring weights for the individual signals.
const (
	exactBaseScore      = 0.9
	containsBaseScore   = 0.55
	coverageBonus       = 0.1
	shortPatternPenalty = 0.15
	orgAgreementBonus   = 0.1
	orgDisagreePenalty  = 0.1
)

// ScoreGroup computes a deterministic confidence score for a preview group,
// with human-readable reasons for every contributing signal. The decision
// must stay auditable, never a black box.
func ScoreGroup(rule *model.MatchingRule, normalizedLabel string, txns []model.Transaction) (float64, []string) {
	var reasons []string
	var score float64

	switch rule.MatchType {
	case model.MatchExact:
		score = exactBaseScore
		reasons = append(reasons, "exact label match")
	default:
		score = containsBaseScore
		reasons = append(reasons, "substring label match")
	}

	// Pattern coverage: a short pattern inside a long unrelated label is a
	// weak signal; a pattern covering most of the label is a strong one.
	if pattern := longestMatchingPattern(normalizedLabel, rule); pattern != "" && len(normalizedLabel) > 0 {
		coverage := float64(len(pattern)) / float64(len(normalizedLabel))
		switch {
		case coverage >= 0.6:
			score += coverageBonus
			reasons = append(reasons, fmt.Sprintf("pattern %q covers most of the label", pattern))
		case coverage < 0.2:
			score -= shortPatternPenalty
			reasons = append(reasons, fmt.Sprintf("short pattern %q against a long label", pattern))
		}
	}

	// Counterparty hint: existing classifications inside the group either
	// back the rule's target organisation or contradict it.
	if rule.OrganisationID != nil {
		agree, disagree := countOrganisationHints(*rule.OrganisationID, txns)
		if disagree > 0 {
			score -= orgDisagreePenalty
			reasons = append(reasons, fmt.Sprintf("%d transactions linked to another organisation", disagree))
		} else if agree > 0 {
			score += orgAgreementBonus
			reasons = append(reasons, "existing classifications agree with the rule target")
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return score, reasons
}

// Level buckets a score for human review.
func Level(score float64) model.ConfidenceLevel {
	switch {
	case score >= HighConfidenceThreshold:
		return model.ConfidenceHigh
	case score >= MediumConfidenceThreshold:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func countOrganisationHints(target string, txns []model.Transaction) (agree, disagree int) {
	for i := range txns {
		if txns[i].OrganisationID == nil {
			continue
		}
		if *txns[i].OrganisationID == target {
			agree++
		} else {
			disagree++
		}
	}
	return agree, disagree
}
