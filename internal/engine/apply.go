package engine

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mfaurel/comptamatch/internal/common"
	"github.com/mfaurel/comptamatch/internal/model"
	"github.com/mfaurel/comptamatch/internal/service"
)

// ConfirmApply commits a human-approved subset of the preview. It re-derives
// the matching transactions from the rule rather than trusting the caller's
// preview, restricts them to the selected normalized-label groups, and
// updates every eligible transaction inside one storage transaction. A
// selected group no longer present in the rule's match set means the preview
// went stale; nothing is written and a not-found error is returned.
//
// This is the only code path that performs a multi-row classification write.
func (e *Engine) ConfirmApply(ctx context.Context, ruleID int64, selectedLabels []string) (*model.ApplyResult, error) {
	selected := dedupeLabels(selectedLabels)
	if len(selected) == 0 {
		return nil, common.Validationf("at least one group must be selected")
	}

	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rule, err := tx.GetRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	transactions, err := tx.ListTransactions(ctx, service.TransactionFilter{})
	if err != nil {
		return nil, err
	}
	groups := groupMatches(rule, transactions)

	var eligible []model.Transaction
	for _, label := range selected {
		group, ok := groups[label]
		if !ok {
			return nil, common.NotFoundf("group %q is not in the rule's current match set (stale preview)", label)
		}
		for i := range group {
			txn := group[i]
			if txn.MatchingStatus == model.StatusManualMatched {
				// Manual overrides are never silently reverted.
				continue
			}
			if txn.CarriesTarget(rule) {
				continue
			}
			eligible = append(eligible, txn)
		}
	}

	runID := uuid.NewString()
	updatedIDs := make([]string, 0, len(eligible))

	for i := range eligible {
		txn := &eligible[i]

		category := rule.Category
		if category == nil {
			// The rule links an organisation without committing to a
			// category; the transaction keeps whatever it had.
			category = txn.Category
		}

		change := service.ClassificationChange{
			TransactionID:  txn.ID,
			RunID:          runID,
			OrganisationID: rule.OrganisationID,
			Category:       category,
			RoleType:       rule.RoleType,
			Status:         model.StatusAutoMatched,
		}
		if err := tx.UpdateTransactionClassification(ctx, change); err != nil {
			return nil, err
		}
		updatedIDs = append(updatedIDs, txn.ID)
	}

	run := &service.ApplyRun{
		ID:           runID,
		RuleID:       ruleID,
		GroupCount:   len(selected),
		UpdatedCount: len(updatedIDs),
		CreatedAt:    time.Now(),
	}
	if err := tx.SaveApplyRun(ctx, run); err != nil {
		return nil, err
	}

	if len(updatedIDs) > 0 {
		if err := tx.RecordRuleApplied(ctx, ruleID, run.CreatedAt); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Storagef(err, "failed to commit bulk apply")
	}

	sort.Strings(updatedIDs)

	e.logger.Info("bulk apply confirmed",
		"rule_id", ruleID,
		"run_id", runID,
		"groups", len(selected),
		"updated", len(updatedIDs))

	return &model.ApplyResult{
		RunID:        runID,
		UpdatedIDs:   updatedIDs,
		UpdatedCount: len(updatedIDs),
	}, nil
}

func dedupeLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}
