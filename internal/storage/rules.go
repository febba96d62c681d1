package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mfaurel/comptamatch/internal/common"
	"github.com/mfaurel/comptamatch/internal/match"
	"github.com/mfaurel/comptamatch/internal/model"
)

const ruleColumns = `id, match_type, patterns, organisation_id, category, role_type,
	priority, enabled, allow_multiple_categories, use_count, last_applied_at,
	created_at, updated_at`

// CreateRule inserts a new matching rule. Natural-key upsert semantics live
// in the engine; a collision on (match_type, primary_pattern) among enabled
// rules surfaces here as a conflict.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.MatchingRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return createRuleTx(ctx, s.db, rule)
}

func createRuleTx(ctx context.Context, db dbtx, rule *model.MatchingRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}

	patternsJSON, err := json.Marshal(rule.Patterns)
	if err != nil {
		return fmt.Errorf("failed to marshal patterns: %w", err)
	}

	query := `
		INSERT INTO matching_rules (
			match_type, patterns, primary_pattern, organisation_id, category,
			role_type, priority, enabled, allow_multiple_categories
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.ExecContext(ctx, query,
		string(rule.MatchType), string(patternsJSON), match.CanonicalPattern(rule.PrimaryPattern()),
		rule.OrganisationID, rule.Category, string(rule.RoleType),
		rule.Priority, rule.Enabled, rule.AllowMultipleCategories,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return common.Conflictf("enabled rule with match type %q and pattern %q already exists",
				rule.MatchType, rule.PrimaryPattern())
		}
		return common.Storagef(err, "failed to create rule")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return common.Storagef(err, "failed to get rule ID")
	}

	rule.ID = id
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = time.Now()

	return nil
}

// GetRule retrieves a matching rule by ID.
func (s *SQLiteStorage) GetRule(ctx context.Context, id int64) (*model.MatchingRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getRuleTx(ctx, s.db, id)
}

func getRuleTx(ctx context.Context, db dbtx, id int64) (*model.MatchingRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM matching_rules WHERE id = ?`

	rule, err := scanRule(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFoundf("rule %d", id)
		}
		return nil, common.Storagef(err, "failed to get rule")
	}
	return rule, nil
}

// GetRuleByNaturalKey resolves the enabled rule matching the natural key, or
// nil when none exists.
func (s *SQLiteStorage) GetRuleByNaturalKey(ctx context.Context, matchType model.MatchType, primaryPattern string) (*model.MatchingRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getRuleByNaturalKeyTx(ctx, s.db, matchType, primaryPattern)
}

func getRuleByNaturalKeyTx(ctx context.Context, db dbtx, matchType model.MatchType, primaryPattern string) (*model.MatchingRule, error) {
	if err := validateString(primaryPattern, "primaryPattern"); err != nil {
		return nil, err
	}

	query := `SELECT ` + ruleColumns + ` FROM matching_rules
		WHERE match_type = ? AND primary_pattern = ? AND enabled = 1`

	// primary_pattern is stored canonicalized, so "OVH" and "ovh" resolve
	// to the same enabled rule.
	rule, err := scanRule(db.QueryRowContext(ctx, query, string(matchType), match.CanonicalPattern(primaryPattern)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, common.Storagef(err, "failed to get rule by natural key")
	}
	return rule, nil
}

// ListRules returns all rules ordered by ascending priority, ties broken by
// creation order.
func (s *SQLiteStorage) ListRules(ctx context.Context) ([]model.MatchingRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listRulesTx(ctx, s.db, false)
}

// ListEnabledRules returns enabled rules in matching order.
func (s *SQLiteStorage) ListEnabledRules(ctx context.Context) ([]model.MatchingRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listRulesTx(ctx, s.db, true)
}

func listRulesTx(ctx context.Context, db dbtx, enabledOnly bool) ([]model.MatchingRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM matching_rules`
	if enabledOnly {
		query += ` WHERE enabled = 1`
	}
	query += ` ORDER BY priority ASC, id ASC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, common.Storagef(err, "failed to list rules")
	}
	defer func() { _ = rows.Close() }()

	var rules []model.MatchingRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, common.Storagef(err, "failed to scan rule")
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, common.Storagef(err, "error iterating rules")
	}

	return rules, nil
}

// UpdateRule replaces the stored rule row with the given rule.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, rule *model.MatchingRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return updateRuleTx(ctx, s.db, rule)
}

func updateRuleTx(ctx context.Context, db dbtx, rule *model.MatchingRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}

	patternsJSON, err := json.Marshal(rule.Patterns)
	if err != nil {
		return fmt.Errorf("failed to marshal patterns: %w", err)
	}

	query := `
		UPDATE matching_rules SET
			match_type = ?, patterns = ?, primary_pattern = ?, organisation_id = ?,
			category = ?, role_type = ?, priority = ?, enabled = ?,
			allow_multiple_categories = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := db.ExecContext(ctx, query,
		string(rule.MatchType), string(patternsJSON), match.CanonicalPattern(rule.PrimaryPattern()),
		rule.OrganisationID, rule.Category, string(rule.RoleType),
		rule.Priority, rule.Enabled, rule.AllowMultipleCategories,
		rule.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return common.Conflictf("enabled rule with match type %q and pattern %q already exists",
				rule.MatchType, rule.PrimaryPattern())
		}
		return common.Storagef(err, "failed to update rule")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return common.Storagef(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return common.NotFoundf("rule %d", rule.ID)
	}

	rule.UpdatedAt = time.Now()
	return nil
}

// SetRuleEnabled toggles a rule without touching previously classified
// transactions.
func (s *SQLiteStorage) SetRuleEnabled(ctx context.Context, id int64, enabled bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return setRuleEnabledTx(ctx, s.db, id, enabled)
}

func setRuleEnabledTx(ctx context.Context, db dbtx, id int64, enabled bool) error {
	query := `UPDATE matching_rules SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	result, err := db.ExecContext(ctx, query, enabled, id)
	if err != nil {
		if isUniqueViolation(err) {
			return common.Conflictf("an enabled rule with the same match type and pattern already exists")
		}
		return common.Storagef(err, "failed to set rule enabled")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return common.Storagef(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return common.NotFoundf("rule %d", id)
	}

	return nil
}

// RecordRuleApplied bumps the rule's match statistics after a confirmed
// apply.
func (s *SQLiteStorage) RecordRuleApplied(ctx context.Context, id int64, appliedAt time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return recordRuleAppliedTx(ctx, s.db, id, appliedAt)
}

func recordRuleAppliedTx(ctx context.Context, db dbtx, id int64, appliedAt time.Time) error {
	query := `UPDATE matching_rules SET use_count = use_count + 1, last_applied_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, appliedAt, id)
	if err != nil {
		return common.Storagef(err, "failed to record rule applied")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return common.Storagef(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return common.NotFoundf("rule %d", id)
	}

	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*model.MatchingRule, error) {
	var rule model.MatchingRule
	var patternsJSON string
	var matchType, roleType string
	var lastApplied sql.NullTime

	err := row.Scan(
		&rule.ID, &matchType, &patternsJSON, &rule.OrganisationID, &rule.Category,
		&roleType, &rule.Priority, &rule.Enabled, &rule.AllowMultipleCategories,
		&rule.UseCount, &lastApplied, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.MatchType = model.MatchType(matchType)
	rule.RoleType = model.RoleType(roleType)
	if lastApplied.Valid {
		rule.LastAppliedAt = &lastApplied.Time
	}

	if err := json.Unmarshal([]byte(patternsJSON), &rule.Patterns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal patterns: %w", err)
	}

	return &rule, nil
}

// isUniqueViolation detects SQLite unique constraint failures without
// depending on driver error codes.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
