package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mfaurel/comptamatch/internal/common"
	"github.com/mfaurel/comptamatch/internal/model"
	"github.com/mfaurel/comptamatch/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so query helpers run either
// standalone or inside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStorage implements the service.Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, common.Storagef(err, "failed to create database directory")
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, common.Storagef(err, "failed to open database")
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, common.Storagef(err, "failed to ping database")
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Storagef(err, "failed to begin transaction")
	}

	return &sqliteTransaction{
		tx:      tx,
		storage: s,
	}, nil
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
type sqliteTransaction struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

// Rule operations within the transaction.

func (t *sqliteTransaction) CreateRule(ctx context.Context, rule *model.MatchingRule) error {
	return createRuleTx(ctx, t.tx, rule)
}

func (t *sqliteTransaction) GetRule(ctx context.Context, id int64) (*model.MatchingRule, error) {
	return getRuleTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetRuleByNaturalKey(ctx context.Context, matchType model.MatchType, primaryPattern string) (*model.MatchingRule, error) {
	return getRuleByNaturalKeyTx(ctx, t.tx, matchType, primaryPattern)
}

func (t *sqliteTransaction) ListRules(ctx context.Context) ([]model.MatchingRule, error) {
	return listRulesTx(ctx, t.tx, false)
}

func (t *sqliteTransaction) ListEnabledRules(ctx context.Context) ([]model.MatchingRule, error) {
	return listRulesTx(ctx, t.tx, true)
}

func (t *sqliteTransaction) UpdateRule(ctx context.Context, rule *model.MatchingRule) error {
	return updateRuleTx(ctx, t.tx, rule)
}

func (t *sqliteTransaction) SetRuleEnabled(ctx context.Context, id int64, enabled bool) error {
	return setRuleEnabledTx(ctx, t.tx, id, enabled)
}

func (t *sqliteTransaction) RecordRuleApplied(ctx context.Context, id int64, appliedAt time.Time) error {
	return recordRuleAppliedTx(ctx, t.tx, id, appliedAt)
}

// Transaction record operations within the transaction.

func (t *sqliteTransaction) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateTransactions(transactions); err != nil {
		return err
	}
	return saveTransactionsTx(ctx, t.tx, transactions)
}

func (t *sqliteTransaction) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	return getTransactionByIDTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	return listTransactionsTx(ctx, t.tx, filter)
}

func (t *sqliteTransaction) UpdateTransactionClassification(ctx context.Context, change service.ClassificationChange) error {
	return updateTransactionClassificationTx(ctx, t.tx, change)
}

// Organisation operations within the transaction.

func (t *sqliteTransaction) GetOrganisation(ctx context.Context, id string) (*model.Organisation, error) {
	return getOrganisationTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) SaveOrganisation(ctx context.Context, org *model.Organisation) error {
	return saveOrganisationTx(ctx, t.tx, org)
}

func (t *sqliteTransaction) ListOrganisations(ctx context.Context) ([]model.Organisation, error) {
	return listOrganisationsTx(ctx, t.tx)
}

// Audit operations within the transaction.

func (t *sqliteTransaction) SaveApplyRun(ctx context.Context, run *service.ApplyRun) error {
	return saveApplyRunTx(ctx, t.tx, run)
}

func (t *sqliteTransaction) GetApplyRuns(ctx context.Context, ruleID int64) ([]service.ApplyRun, error) {
	return getApplyRunsTx(ctx, t.tx, ruleID)
}

func (t *sqliteTransaction) Migrate(_ context.Context) error {
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTransaction) Close() error {
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}
