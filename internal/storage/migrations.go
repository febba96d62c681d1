package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS matching_rules (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					match_type TEXT NOT NULL,
					patterns TEXT NOT NULL,
					primary_pattern TEXT NOT NULL,
					organisation_id TEXT,
					category TEXT,
					role_type TEXT NOT NULL,
					priority INTEGER NOT NULL DEFAULT 100,
					enabled INTEGER NOT NULL DEFAULT 1,
					allow_multiple_categories INTEGER NOT NULL DEFAULT 0,
					use_count INTEGER NOT NULL DEFAULT 0,
					last_applied_at DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_matching_rules_priority ON matching_rules(priority, id)`,
				`CREATE UNIQUE INDEX idx_matching_rules_natural_key
					ON matching_rules(match_type, primary_pattern) WHERE enabled = 1`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					hash TEXT UNIQUE NOT NULL,
					date DATETIME NOT NULL,
					label TEXT NOT NULL,
					normalized_label TEXT NOT NULL,
					amount TEXT NOT NULL,
					organisation_id TEXT,
					category TEXT,
					role_type TEXT,
					matching_status TEXT NOT NULL DEFAULT 'unmatched',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_date ON transactions(date)`,
				`CREATE INDEX idx_transactions_normalized_label ON transactions(normalized_label)`,
				`CREATE INDEX idx_transactions_status ON transactions(matching_status)`,

				`CREATE TABLE IF NOT EXISTS organisations (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					default_role_type TEXT NOT NULL DEFAULT 'supplier',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add apply-run audit tables",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS rule_applications (
					id TEXT PRIMARY KEY,
					rule_id INTEGER NOT NULL,
					group_count INTEGER NOT NULL DEFAULT 0,
					updated_count INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (rule_id) REFERENCES matching_rules(id)
				)`,
				`CREATE TABLE IF NOT EXISTS classification_history (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					run_id TEXT NOT NULL,
					transaction_id TEXT NOT NULL,
					organisation_id TEXT,
					category TEXT,
					role_type TEXT,
					matching_status TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (run_id) REFERENCES rule_applications(id)
						DEFERRABLE INITIALLY DEFERRED,
					FOREIGN KEY (transaction_id) REFERENCES transactions(id)
				)`,
				`CREATE INDEX idx_classification_history_run_id ON classification_history(run_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Index rule applications by rule",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_rule_applications_rule_id
				ON rule_applications(rule_id, created_at)`)
			return err
		},
	},
}

// Migrate runs all pending migrations against the database.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	current, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		slog.Info("Applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w",
				migration.Version, migration.Description, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	final, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if final != ExpectedSchemaVersion {
		return fmt.Errorf("schema version mismatch: have %d, expected %d", final, ExpectedSchemaVersion)
	}

	return nil
}

func (s *SQLiteStorage) schemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
