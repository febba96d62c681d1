package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/mfaurel/comptamatch/internal/common"
	"github.com/mfaurel/comptamatch/internal/model"
)

// CreateRuleInput describes a rule to create. Creating a rule whose
// (matchType, primaryPattern) collides with an existing enabled rule updates
// that rule in place instead of inserting a duplicate.
type CreateRuleInput struct {
	OrganisationID          *string         `validate:"omitempty,min=1"`
	Category                *string         `validate:"omitempty,min=1"`
	Priority                *int            `validate:"omitempty,gte=0"`
	MatchType               model.MatchType `validate:"required,oneof=exact contains"`
	RoleType                model.RoleType  `validate:"required,oneof=supplier customer partner internal"`
	Patterns                []string        `validate:"required,min=1"`
	AllowMultipleCategories bool
}

// UpdateRuleInput carries a partial rule update. Nil fields keep their
// stored value; a non-nil Patterns slice replaces the pattern list entirely.
type UpdateRuleInput struct {
	MatchType               *model.MatchType `validate:"omitempty,oneof=exact contains"`
	RoleType                *model.RoleType  `validate:"omitempty,oneof=supplier customer partner internal"`
	OrganisationID          *string
	Category                *string
	Priority                *int `validate:"omitempty,gte=0"`
	AllowMultipleCategories *bool
	Enabled                 *bool
	Patterns                []string
}

// CreateRule creates a matching rule, or updates the enabled rule sharing
// the same natural key (idempotent upsert).
func (e *Engine) CreateRule(ctx context.Context, input CreateRuleInput) (*model.MatchingRule, error) {
	if err := e.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	patterns := cleanPatterns(input.Patterns)
	if len(patterns) == 0 {
		return nil, common.Validationf("patterns must contain at least one non-blank entry")
	}

	existing, err := e.storage.GetRuleByNaturalKey(ctx, input.MatchType, patterns[0])
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.Patterns = patterns
		if input.OrganisationID != nil {
			existing.OrganisationID = input.OrganisationID
		}
		if input.Category != nil {
			existing.Category = input.Category
		}
		if input.Priority != nil {
			existing.Priority = *input.Priority
		}
		existing.RoleType = input.RoleType
		existing.AllowMultipleCategories = input.AllowMultipleCategories

		if err := e.storage.UpdateRule(ctx, existing); err != nil {
			return nil, err
		}

		e.logger.Info("updated existing rule on create",
			"rule_id", existing.ID,
			"match_type", existing.MatchType,
			"primary_pattern", existing.PrimaryPattern())
		return existing, nil
	}

	rule := &model.MatchingRule{
		MatchType:               input.MatchType,
		Patterns:                patterns,
		OrganisationID:          input.OrganisationID,
		Category:                input.Category,
		RoleType:                input.RoleType,
		Priority:                model.DefaultRulePriority,
		Enabled:                 true,
		AllowMultipleCategories: input.AllowMultipleCategories,
	}
	if input.Priority != nil {
		rule.Priority = *input.Priority
	}

	if err := e.storage.CreateRule(ctx, rule); err != nil {
		return nil, err
	}

	e.logger.Info("created rule",
		"rule_id", rule.ID,
		"match_type", rule.MatchType,
		"primary_pattern", rule.PrimaryPattern(),
		"priority", rule.Priority)

	return rule, nil
}

// UpdateRule merges the provided fields into the stored rule.
func (e *Engine) UpdateRule(ctx context.Context, id int64, input UpdateRuleInput) (*model.MatchingRule, error) {
	if err := e.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	rule, err := e.storage.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Patterns != nil {
		patterns := cleanPatterns(input.Patterns)
		if len(patterns) == 0 {
			return nil, common.Validationf("patterns must contain at least one non-blank entry")
		}
		rule.Patterns = patterns
	}
	if input.MatchType != nil {
		rule.MatchType = *input.MatchType
	}
	if input.RoleType != nil {
		rule.RoleType = *input.RoleType
	}
	if input.OrganisationID != nil {
		rule.OrganisationID = input.OrganisationID
	}
	if input.Category != nil {
		rule.Category = input.Category
	}
	if input.Priority != nil {
		rule.Priority = *input.Priority
	}
	if input.AllowMultipleCategories != nil {
		rule.AllowMultipleCategories = *input.AllowMultipleCategories
	}
	if input.Enabled != nil {
		rule.Enabled = *input.Enabled
	}

	if err := e.storage.UpdateRule(ctx, rule); err != nil {
		return nil, err
	}

	e.logger.Info("updated rule", "rule_id", rule.ID)
	return rule, nil
}

// GetRule retrieves a rule by ID.
func (e *Engine) GetRule(ctx context.Context, id int64) (*model.MatchingRule, error) {
	return e.storage.GetRule(ctx, id)
}

// ListRules returns all rules in matching order: ascending priority, ties
// broken by creation order.
func (e *Engine) ListRules(ctx context.Context) ([]model.MatchingRule, error) {
	return e.storage.ListRules(ctx)
}

// EnableRule re-enables a disabled rule.
func (e *Engine) EnableRule(ctx context.Context, id int64) error {
	return e.storage.SetRuleEnabled(ctx, id, true)
}

// DisableRule disables a rule. Transactions it previously classified keep
// their classification; disabling is the safe removal path.
func (e *Engine) DisableRule(ctx context.Context, id int64) error {
	return e.storage.SetRuleEnabled(ctx, id, false)
}

// cleanPatterns trims every pattern and drops blank entries, preserving
// order.
func cleanPatterns(patterns []string) []string {
	cleaned := make([]string, 0, len(patterns))
	for _, p := range patterns {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	return cleaned
}
