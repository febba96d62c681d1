// Package service defines the interfaces the engine depends on.
package service

import (
	"context"
	"time"

	"github.com/mfaurel/comptamatch/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    *model.MatchingStatus
	Limit     int
	Offset    int
}

// ApplyRun is the audit record written for every confirmed bulk apply.
type ApplyRun struct {
	CreatedAt    time.Time
	ID           string
	RuleID       int64
	GroupCount   int
	UpdatedCount int
}

// ClassificationChange is one audited per-transaction mutation inside an
// apply run.
type ClassificationChange struct {
	OrganisationID *string
	Category       *string
	TransactionID  string
	RunID          string
	RoleType       model.RoleType
	Status         model.MatchingStatus
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Rule operations
	CreateRule(ctx context.Context, rule *model.MatchingRule) error
	GetRule(ctx context.Context, id int64) (*model.MatchingRule, error)
	// GetRuleByNaturalKey resolves the enabled rule with the given match
	// type and primary pattern, or nil when none exists.
	GetRuleByNaturalKey(ctx context.Context, matchType model.MatchType, primaryPattern string) (*model.MatchingRule, error)
	ListRules(ctx context.Context) ([]model.MatchingRule, error)
	ListEnabledRules(ctx context.Context) ([]model.MatchingRule, error)
	UpdateRule(ctx context.Context, rule *model.MatchingRule) error
	SetRuleEnabled(ctx context.Context, id int64, enabled bool) error
	RecordRuleApplied(ctx context.Context, id int64, appliedAt time.Time) error

	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	UpdateTransactionClassification(ctx context.Context, change ClassificationChange) error

	// Organisation operations
	GetOrganisation(ctx context.Context, id string) (*model.Organisation, error)
	SaveOrganisation(ctx context.Context, org *model.Organisation) error
	ListOrganisations(ctx context.Context) ([]model.Organisation, error)

	// Audit operations
	SaveApplyRun(ctx context.Context, run *ApplyRun) error
	GetApplyRuns(ctx context.Context, ruleID int64) ([]ApplyRun, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction. All Storage methods called
// through it share one atomic commit.
type Transaction interface {
	Commit() error
	Rollback() error
	Storage
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
