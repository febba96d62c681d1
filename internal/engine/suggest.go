package engine

import (
	"context"

	"github.com/mfaurel/comptamatch/internal/match"
	"github.com/mfaurel/comptamatch/internal/model"
)

// Suggest resolves at most one matching rule per transaction and returns a
// non-destructive suggestion keyed by transaction ID. Transactions without
// a match have no entry. First match in priority order wins; the function
// never writes and is safe to recompute on every render.
func (e *Engine) Suggest(ctx context.Context, transactions []model.Transaction) (map[string]model.Suggestion, error) {
	rules, err := e.storage.ListEnabledRules(ctx)
	if err != nil {
		return nil, err
	}
	match.SortRulesByPriority(rules)

	orgNames, err := e.organisationNames(ctx)
	if err != nil {
		return nil, err
	}

	suggestions := make(map[string]model.Suggestion)
	for i := range transactions {
		txn := &transactions[i]

		rule, ok := match.FirstMatch(txn.Label, rules)
		if !ok {
			continue
		}

		confidence := model.ConfidenceMedium
		if rule.MatchType == model.MatchExact {
			confidence = model.ConfidenceHigh
		}

		suggestions[txn.ID] = model.Suggestion{
			RuleID:         rule.ID,
			OrganisationID: rule.OrganisationID,
			Category:       rule.Category,
			RoleType:       rule.RoleType,
			DisplayLabel:   displayLabel(rule, orgNames),
			Confidence:     confidence,
		}
	}

	return suggestions, nil
}

// organisationNames loads the organisation directory once per call for
// display enrichment. Lookup failures never gate matching.
func (e *Engine) organisationNames(ctx context.Context) (map[string]string, error) {
	orgs, err := e.storage.ListOrganisations(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(orgs))
	for _, org := range orgs {
		names[org.ID] = org.Name
	}
	return names, nil
}

func displayLabel(rule *model.MatchingRule, orgNames map[string]string) string {
	if rule.OrganisationID != nil {
		if name, ok := orgNames[*rule.OrganisationID]; ok {
			return name
		}
	}
	return rule.PrimaryPattern()
}
