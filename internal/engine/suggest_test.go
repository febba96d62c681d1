package engine

import (
	"context"
	"testing"
	"time"

	"github.com/mfaurel/comptamatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)

	require.NoError(t, store.SaveOrganisation(ctx, &model.Organisation{
		ID:   "org-ovh",
		Name: "OVH SAS",
	}))

	_, err := eng.CreateRule(ctx, CreateRuleInput{
		MatchType:      model.MatchContains,
		RoleType:       model.RoleSupplier,
		Patterns:       []string{"ovh"},
		OrganisationID: strPtr("org-ovh"),
		Category:       strPtr("626"),
	})
	require.NoError(t, err)

	_, err = eng.CreateRule(ctx, CreateRuleInput{
		MatchType: model.MatchExact,
		RoleType:  model.RoleCustomer,
		Patterns:  []string{"stripe payout"},
	})
	require.NoError(t, err)

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	txns := []model.Transaction{
		bankTxn("txn-1", "OVH SAS PARIS", "-42.50", date),
		bankTxn("txn-2", "  Stripe Payout  ", "120.00", date),
		bankTxn("txn-3", "CARREFOUR MARKET", "-18.30", date),
	}

	suggestions, err := eng.Suggest(ctx, txns)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)

	ovh := suggestions["txn-1"]
	assert.Equal(t, "org-ovh", *ovh.OrganisationID)
	assert.Equal(t, "626", *ovh.Category)
	assert.Equal(t, model.RoleSupplier, ovh.RoleType)
	assert.Equal(t, "OVH SAS", ovh.DisplayLabel, "organisation name enriches the display label")
	assert.Equal(t, model.ConfidenceMedium, ovh.Confidence, "substring match")

	stripe := suggestions["txn-2"]
	assert.Equal(t, model.ConfidenceHigh, stripe.Confidence, "exact match")
	assert.Equal(t, "stripe payout", stripe.DisplayLabel, "no organisation, primary pattern shown")

	_, ok := suggestions["txn-3"]
	assert.False(t, ok, "no entry for unmatched transactions")
}

func TestSuggestFirstMatchWinsByPriority(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	_, err := eng.CreateRule(ctx, CreateRuleInput{
		MatchType: model.MatchContains,
		RoleType:  model.RoleSupplier,
		Patterns:  []string{"amazon"},
		Category:  strPtr("607"),
	})
	require.NoError(t, err)

	specific, err := eng.CreateRule(ctx, CreateRuleInput{
		MatchType: model.MatchContains,
		RoleType:  model.RoleSupplier,
		Patterns:  []string{"amazon web services"},
		Category:  strPtr("626"),
		Priority:  intPtr(10),
	})
	require.NoError(t, err)

	txns := []model.Transaction{
		bankTxn("txn-1", "AMAZON WEB SERVICES EMEA", "-30.00", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}

	suggestions, err := eng.Suggest(ctx, txns)
	require.NoError(t, err)
	require.Contains(t, suggestions, "txn-1")
	assert.Equal(t, specific.ID, suggestions["txn-1"].RuleID, "lower priority value matches first")
}

func TestSuggestIgnoresDisabledRules(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	rule, err := eng.CreateRule(ctx, CreateRuleInput{
		MatchType: model.MatchContains,
		RoleType:  model.RoleSupplier,
		Patterns:  []string{"ovh"},
	})
	require.NoError(t, err)
	require.NoError(t, eng.DisableRule(ctx, rule.ID))

	suggestions, err := eng.Suggest(ctx, []model.Transaction{
		bankTxn("txn-1", "OVH SAS", "-42.50", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestSuggestNeverWrites(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)

	_, err := eng.CreateRule(ctx, CreateRuleInput{
		MatchType: model.MatchContains,
		RoleType:  model.RoleSupplier,
		Patterns:  []string{"ovh"},
		Category:  strPtr("626"),
	})
	require.NoError(t, err)

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	seedTransactions(t, store, bankTxn("txn-1", "OVH SAS", "-42.50", date))

	stored, err := store.GetTransactionByID(ctx, "txn-1")
	require.NoError(t, err)

	_, err = eng.Suggest(ctx, []model.Transaction{*stored})
	require.NoError(t, err)

	after, err := store.GetTransactionByID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusUnmatched, after.MatchingStatus)
	assert.Nil(t, after.Category)
	assert.Nil(t, after.OrganisationID)
}
