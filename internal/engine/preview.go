package engine

import (
	"context"
	"sort"

	"github.com/mfaurel/comptamatch/internal/match"
	"github.com/mfaurel/comptamatch/internal/model"
	"github.com/mfaurel/comptamatch/internal/service"
)

// PreviewApply scans all stored transactions matching the rule, groups them
// by normalized label and returns per-group review statistics. Read-only;
// safe to call repeatedly and concurrently with any other operation.
func (e *Engine) PreviewApply(ctx context.Context, ruleID int64) ([]model.PreviewMatchResult, error) {
	rule, err := e.storage.GetRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	transactions, err := e.storage.ListTransactions(ctx, service.TransactionFilter{})
	if err != nil {
		return nil, err
	}

	groups := groupMatches(rule, transactions)

	results := make([]model.PreviewMatchResult, 0, len(groups))
	for label, txns := range groups {
		results = append(results, buildGroupResult(rule, label, txns))
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].ConfidenceScore != results[j].ConfidenceScore {
			return results[i].ConfidenceScore > results[j].ConfidenceScore
		}
		if results[i].TransactionCount != results[j].TransactionCount {
			return results[i].TransactionCount > results[j].TransactionCount
		}
		return results[i].NormalizedLabel < results[j].NormalizedLabel
	})

	e.logger.Debug("preview built",
		"rule_id", ruleID,
		"groups", len(results))

	return results, nil
}

// groupMatches buckets transactions that the rule matches by their
// normalized label.
func groupMatches(rule *model.MatchingRule, transactions []model.Transaction) map[string][]model.Transaction {
	groups := make(map[string][]model.Transaction)
	for i := range transactions {
		txn := transactions[i]
		if !match.Matches(txn.Label, rule) {
			continue
		}

		key := txn.NormalizedLabel
		if key == "" {
			key = match.NormalizeLabel(txn.Label)
		}
		groups[key] = append(groups[key], txn)
	}
	return groups
}

func buildGroupResult(rule *model.MatchingRule, label string, txns []model.Transaction) model.PreviewMatchResult {
	result := model.PreviewMatchResult{
		NormalizedLabel: label,
	}

	sampleSeen := make(map[string]bool)
	for i := range txns {
		txn := &txns[i]

		if txn.MatchingStatus == model.StatusManualMatched {
			// Manual classifications are never touched by bulk apply; they
			// are surfaced as excluded, outside the eligible count.
			result.ManualOverrideCount++
			continue
		}

		result.TransactionCount++
		result.TotalAmount = result.TotalAmount.Add(txn.Amount.Abs())

		if result.FirstSeen.IsZero() || txn.Date.Before(result.FirstSeen) {
			result.FirstSeen = txn.Date
		}
		if txn.Date.After(result.LastSeen) {
			result.LastSeen = txn.Date
		}

		if !sampleSeen[txn.Label] && len(result.SampleLabels) < model.MaxSampleLabels {
			sampleSeen[txn.Label] = true
			result.SampleLabels = append(result.SampleLabels, txn.Label)
		}

		if txn.CarriesTarget(rule) {
			result.AlreadyAppliedCount++
		}
	}

	result.PendingCount = result.TransactionCount - result.AlreadyAppliedCount

	score, reasons := match.ScoreGroup(rule, label, txns)
	result.ConfidenceScore = score
	result.Confidence = match.Level(score)
	result.Reasons = reasons

	return result
}
