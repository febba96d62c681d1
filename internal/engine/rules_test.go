package engine

import (
	"context"
	"testing"

	"github.com/mfaurel/comptamatch/internal/common"
	"github.com/mfaurel/comptamatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRule(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	rule, err := eng.CreateRule(ctx, CreateRuleInput{
		MatchType: model.MatchContains,
		RoleType:  model.RoleSupplier,
		Patterns:  []string{"  OVH  ", ""},
		Category:  strPtr("626"),
	})
	require.NoError(t, err)

	assert.NotZero(t, rule.ID)
	assert.Equal(t, []string{"OVH"}, rule.Patterns, "patterns trimmed, blanks dropped")
	assert.Equal(t, "626", *rule.Category)
	assert.Equal(t, model.DefaultRulePriority, rule.Priority)
	assert.True(t, rule.Enabled)
}

func TestCreateRuleValidatesInput(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	tests := []struct {
		name  string
		input CreateRuleInput
	}{
		{
			name: "unknown match type",
			input: CreateRuleInput{
				MatchType: "regex",
				RoleType:  model.RoleSupplier,
				Patterns:  []string{"ovh"},
			},
		},
		{
			name: "unknown role type",
			input: CreateRuleInput{
				MatchType: model.MatchExact,
				RoleType:  "vendor",
				Patterns:  []string{"ovh"},
			},
		},
		{
			name: "no patterns",
			input: CreateRuleInput{
				MatchType: model.MatchExact,
				RoleType:  model.RoleSupplier,
			},
		},
		{
			name: "only blank patterns",
			input: CreateRuleInput{
				MatchType: model.MatchExact,
				RoleType:  model.RoleSupplier,
				Patterns:  []string{"   ", ""},
			},
		},
		{
			name: "negative priority",
			input: CreateRuleInput{
				MatchType: model.MatchExact,
				RoleType:  model.RoleSupplier,
				Patterns:  []string{"ovh"},
				Priority:  intPtr(-1),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.CreateRule(ctx, tt.input)
			require.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestCreateRuleUpsertsOnNaturalKey(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	first, err := eng.CreateRule(ctx, CreateRuleInput{
		MatchType: model.MatchContains,
		RoleType:  model.RoleSupplier,
		Patterns:  []string{"OVH"},
		Category:  strPtr("626"),
		Priority:  intPtr(10),
	})
	require.NoError(t, err)

	// Same (matchType, primaryPattern) updates the existing rule rather
	// than inserting a second one.
	second, err := eng.CreateRule(ctx, CreateRuleInput{
		MatchType: model.MatchContains,
		RoleType:  model.RoleSupplier,
		Patterns:  []string{"ovh", "ovh hosting"},
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []string{"ovh", "ovh hosting"}, second.Patterns)
	assert.Equal(t, "626", *second.Category, "unsupplied fields keep their stored value")
	assert.Equal(t, 10, second.Priority)

	rules, err := eng.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestCreateRuleSameKeyDifferentMatchType(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	_, err := eng.CreateRule(ctx, CreateRuleInput{
		MatchType: model.MatchContains,
		RoleType:  model.RoleSupplier,
		Patterns:  []string{"ovh"},
	})
	require.NoError(t, err)

	_, err = eng.CreateRule(ctx, CreateRuleInput{
		MatchType: model.MatchExact,
		RoleType:  model.RoleSupplier,
		Patterns:  []string{"ovh"},
	})
	require.NoError(t, err)

	rules, err := eng.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 2, "match type is part of the natural key")
}

func TestUpdateRuleMergesFields(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	rule, err := eng.CreateRule(ctx, CreateRuleInput{
		MatchType: model.MatchContains,
		RoleType:  model.RoleSupplier,
		Patterns:  []string{"ovh"},
		Category:  strPtr("626"),
	})
	require.NoError(t, err)

	updated, err := eng.UpdateRule(ctx, rule.ID, UpdateRuleInput{
		Priority: intPtr(5),
		RoleType: rolePtr(model.RolePartner),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, updated.Priority)
	assert.Equal(t, model.RolePartner, updated.RoleType)
	assert.Equal(t, "626", *updated.Category, "untouched fields survive")
	assert.Equal(t, []string{"ovh"}, updated.Patterns)
}

func TestUpdateRuleRejectsBlankPatternReplacement(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	rule, err := eng.CreateRule(ctx, CreateRuleInput{
		MatchType: model.MatchContains,
		RoleType:  model.RoleSupplier,
		Patterns:  []string{"ovh"},
	})
	require.NoError(t, err)

	_, err = eng.UpdateRule(ctx, rule.ID, UpdateRuleInput{Patterns: []string{"  "}})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestUpdateRuleNotFound(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.UpdateRule(context.Background(), 999, UpdateRuleInput{Priority: intPtr(1)})
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestDisableAndEnableRule(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)

	rule, err := eng.CreateRule(ctx, CreateRuleInput{
		MatchType: model.MatchContains,
		RoleType:  model.RoleSupplier,
		Patterns:  []string{"ovh"},
	})
	require.NoError(t, err)

	require.NoError(t, eng.DisableRule(ctx, rule.ID))
	enabled, err := store.ListEnabledRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, enabled)

	require.NoError(t, eng.EnableRule(ctx, rule.ID))
	enabled, err = store.ListEnabledRules(ctx)
	require.NoError(t, err)
	assert.Len(t, enabled, 1)
}

func rolePtr(r model.RoleType) *model.RoleType { return &r }
