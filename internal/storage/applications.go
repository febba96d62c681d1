package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/mfaurel/comptamatch/internal/common"
	"github.com/mfaurel/comptamatch/internal/service"
)

// SaveApplyRun records one confirmed bulk apply for auditing.
func (s *SQLiteStorage) SaveApplyRun(ctx context.Context, run *service.ApplyRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveApplyRunTx(ctx, s.db, run)
}

func saveApplyRunTx(ctx context.Context, db dbtx, run *service.ApplyRun) error {
	if run == nil {
		return fmt.Errorf("%w: apply run", ErrNilParameter)
	}
	if err := validateString(run.ID, "run ID"); err != nil {
		return err
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO rule_applications (id, rule_id, group_count, updated_count, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := db.ExecContext(ctx, query,
		run.ID, run.RuleID, run.GroupCount, run.UpdatedCount, createdAt,
	); err != nil {
		return common.Storagef(err, "failed to save apply run")
	}

	return nil
}

// GetApplyRuns returns the audit trail for a rule, most recent first.
func (s *SQLiteStorage) GetApplyRuns(ctx context.Context, ruleID int64) ([]service.ApplyRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getApplyRunsTx(ctx, s.db, ruleID)
}

func getApplyRunsTx(ctx context.Context, db dbtx, ruleID int64) ([]service.ApplyRun, error) {
	query := `
		SELECT id, rule_id, group_count, updated_count, created_at
		FROM rule_applications
		WHERE rule_id = ?
		ORDER BY created_at DESC
	`

	rows, err := db.QueryContext(ctx, query, ruleID)
	if err != nil {
		return nil, common.Storagef(err, "failed to get apply runs")
	}
	defer func() { _ = rows.Close() }()

	var runs []service.ApplyRun
	for rows.Next() {
		var run service.ApplyRun
		if err := rows.Scan(&run.ID, &run.RuleID, &run.GroupCount, &run.UpdatedCount, &run.CreatedAt); err != nil {
			return nil, common.Storagef(err, "failed to scan apply run")
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, common.Storagef(err, "error iterating apply runs")
	}

	return runs, nil
}
