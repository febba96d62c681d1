package storage

import (
	"context"
	"testing"
	"time"

	"github.com/mfaurel/comptamatch/internal/common"
	"github.com/mfaurel/comptamatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetRule(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	category := "626"
	rule := &model.MatchingRule{
		MatchType: model.MatchContains,
		Patterns:  []string{"OVH", "OVH SAS"},
		Category:  &category,
		RoleType:  model.RoleSupplier,
		Priority:  50,
		Enabled:   true,
	}
	require.NoError(t, store.CreateRule(ctx, rule))
	require.NotZero(t, rule.ID)

	got, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"OVH", "OVH SAS"}, got.Patterns)
	assert.Equal(t, model.MatchContains, got.MatchType)
	assert.Equal(t, "626", *got.Category)
	assert.Equal(t, 50, got.Priority)
	assert.True(t, got.Enabled)
	assert.Nil(t, got.OrganisationID)
	assert.Nil(t, got.LastAppliedAt)
}

func TestGetRuleNotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetRule(context.Background(), 999)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateRuleRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	tests := []struct {
		name string
		rule *model.MatchingRule
	}{
		{name: "nil rule", rule: nil},
		{
			name: "missing patterns",
			rule: &model.MatchingRule{MatchType: model.MatchExact, RoleType: model.RoleSupplier},
		},
		{
			name: "blank primary pattern",
			rule: &model.MatchingRule{MatchType: model.MatchExact, Patterns: []string{"  "}, RoleType: model.RoleSupplier},
		},
		{
			name: "unknown match type",
			rule: &model.MatchingRule{MatchType: "fuzzy", Patterns: []string{"x"}, RoleType: model.RoleSupplier},
		},
		{
			name: "unknown role type",
			rule: &model.MatchingRule{MatchType: model.MatchExact, Patterns: []string{"x"}, RoleType: "vendor"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, store.CreateRule(ctx, tt.rule))
		})
	}
}

func TestNaturalKeyUniqueAmongEnabledRules(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	require.NoError(t, store.CreateRule(ctx, testRule("contains", "ovh")))

	err := store.CreateRule(ctx, testRule("contains", "ovh"))
	require.ErrorIs(t, err, common.ErrConflict)

	// Same pattern under different match semantics is a different rule.
	require.NoError(t, store.CreateRule(ctx, testRule("exact", "ovh")))
}

func TestNaturalKeyIgnoresPatternCase(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	rule := testRule("contains", "OVH")
	require.NoError(t, store.CreateRule(ctx, rule))

	// Matching lower-cases patterns, so "OVH" and "ovh" are one effective
	// rule and the natural key must treat them as such.
	err := store.CreateRule(ctx, testRule("contains", "ovh"))
	require.ErrorIs(t, err, common.ErrConflict)

	got, err := store.GetRuleByNaturalKey(ctx, model.MatchContains, "  ovh ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rule.ID, got.ID)
}

func TestNaturalKeyFreedByDisable(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	first := testRule("contains", "ovh")
	require.NoError(t, store.CreateRule(ctx, first))
	require.NoError(t, store.SetRuleEnabled(ctx, first.ID, false))

	require.NoError(t, store.CreateRule(ctx, testRule("contains", "ovh")))
}

func TestGetRuleByNaturalKey(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	rule := testRule("contains", "ovh")
	require.NoError(t, store.CreateRule(ctx, rule))

	got, err := store.GetRuleByNaturalKey(ctx, model.MatchContains, "ovh")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rule.ID, got.ID)

	// Disabled rules are not part of the natural-key space.
	require.NoError(t, store.SetRuleEnabled(ctx, rule.ID, false))
	got, err = store.GetRuleByNaturalKey(ctx, model.MatchContains, "ovh")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = store.GetRuleByNaturalKey(ctx, model.MatchContains, "unknown")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListRulesOrdering(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	low := testRule("contains", "amazon")
	low.Priority = 10
	older := testRule("contains", "ovh")
	newer := testRule("contains", "stripe")

	require.NoError(t, store.CreateRule(ctx, older))
	require.NoError(t, store.CreateRule(ctx, newer))
	require.NoError(t, store.CreateRule(ctx, low))

	rules, err := store.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, low.ID, rules[0].ID, "lowest priority first")
	assert.Equal(t, older.ID, rules[1].ID, "ties broken by creation order")
	assert.Equal(t, newer.ID, rules[2].ID)
}

func TestListEnabledRulesSkipsDisabled(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	enabled := testRule("contains", "ovh")
	disabled := testRule("contains", "stripe")
	require.NoError(t, store.CreateRule(ctx, enabled))
	require.NoError(t, store.CreateRule(ctx, disabled))
	require.NoError(t, store.SetRuleEnabled(ctx, disabled.ID, false))

	rules, err := store.ListEnabledRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, enabled.ID, rules[0].ID)

	all, err := store.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateRule(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	rule := testRule("contains", "ovh")
	require.NoError(t, store.CreateRule(ctx, rule))

	org := "org-ovh"
	rule.Patterns = []string{"OVH", "OVH.COM"}
	rule.OrganisationID = &org
	rule.Priority = 20
	require.NoError(t, store.UpdateRule(ctx, rule))

	got, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"OVH", "OVH.COM"}, got.Patterns)
	assert.Equal(t, "org-ovh", *got.OrganisationID)
	assert.Equal(t, 20, got.Priority)
}

func TestUpdateRuleNotFound(t *testing.T) {
	store := newTestStorage(t)

	rule := testRule("contains", "ovh")
	rule.ID = 12345
	err := store.UpdateRule(context.Background(), rule)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestRecordRuleApplied(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	rule := testRule("contains", "ovh")
	require.NoError(t, store.CreateRule(ctx, rule))

	appliedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordRuleApplied(ctx, rule.ID, appliedAt))
	require.NoError(t, store.RecordRuleApplied(ctx, rule.ID, appliedAt.Add(time.Hour)))

	got, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UseCount)
	require.NotNil(t, got.LastAppliedAt)
	assert.True(t, got.LastAppliedAt.Equal(appliedAt.Add(time.Hour)))

	require.ErrorIs(t, store.RecordRuleApplied(ctx, 999, appliedAt), common.ErrNotFound)
}

func TestRepositoryFailuresClassifiedAsStorage(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	rule := testRule("contains", "ovh")
	require.NoError(t, store.CreateRule(ctx, rule))
	require.NoError(t, store.Close())

	_, err := store.GetRule(ctx, rule.ID)
	require.ErrorIs(t, err, common.ErrStorage)
	assert.True(t, common.IsRetryable(err))

	_, err = store.ListEnabledRules(ctx)
	require.ErrorIs(t, err, common.ErrStorage)

	err = store.CreateRule(ctx, testRule("contains", "stripe"))
	require.ErrorIs(t, err, common.ErrStorage)
}
