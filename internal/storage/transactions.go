package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mfaurel/comptamatch/internal/common"
	"github.com/mfaurel/comptamatch/internal/match"
	"github.com/mfaurel/comptamatch/internal/model"
	"github.com/mfaurel/comptamatch/internal/service"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, date, label, normalized_label, amount,
	organisation_id, category, role_type, matching_status`

// SaveTransactions saves multiple transactions, skipping duplicates by hash.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.Storagef(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := saveTransactionsTx(ctx, tx, transactions); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return common.Storagef(err, "failed to commit saved transactions")
	}
	return nil
}

func saveTransactionsTx(ctx context.Context, db dbtx, transactions []model.Transaction) error {
	query := `
		INSERT OR IGNORE INTO transactions (
			id, hash, date, label, normalized_label, amount,
			organisation_id, category, role_type, matching_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i := range transactions {
		txn := &transactions[i]

		normalized := txn.NormalizedLabel
		if normalized == "" {
			normalized = match.NormalizeLabel(txn.Label)
		}
		status := txn.MatchingStatus
		if status == "" {
			status = model.StatusUnmatched
		}

		_, err := db.ExecContext(ctx, query,
			txn.ID,
			txn.GenerateHash(),
			txn.Date,
			txn.Label,
			normalized,
			txn.Amount.String(),
			txn.OrganisationID,
			txn.Category,
			roleTypeToNullString(txn.RoleType),
			string(status),
		)
		if err != nil {
			return common.Storagef(err, fmt.Sprintf("failed to save transaction %s", txn.ID))
		}
	}

	return nil
}

// GetTransactionByID retrieves a single transaction.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getTransactionByIDTx(ctx, s.db, id)
}

func getTransactionByIDTx(ctx context.Context, db dbtx, id string) (*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

	txn, err := scanTransaction(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFoundf("transaction %s", id)
		}
		return nil, common.Storagef(err, "failed to get transaction")
	}
	return txn, nil
}

// ListTransactions returns transactions matching the filter, oldest first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listTransactionsTx(ctx, s.db, filter)
}

func listTransactionsTx(ctx context.Context, db dbtx, filter service.TransactionFilter) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	var args []any

	if filter.StartDate != nil {
		query += ` AND date >= ?`
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		query += ` AND date <= ?`
		args = append(args, *filter.EndDate)
	}
	if filter.Status != nil {
		query += ` AND matching_status = ?`
		args = append(args, string(*filter.Status))
	}

	query += ` ORDER BY date ASC, id ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.Storagef(err, "failed to list transactions")
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, common.Storagef(err, "failed to scan transaction")
		}
		transactions = append(transactions, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, common.Storagef(err, "error iterating transactions")
	}

	return transactions, nil
}

// UpdateTransactionClassification mutates one transaction's classification
// fields. Outside of tests this is only reached through the apply executor's
// storage transaction.
func (s *SQLiteStorage) UpdateTransactionClassification(ctx context.Context, change service.ClassificationChange) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return updateTransactionClassificationTx(ctx, s.db, change)
}

func updateTransactionClassificationTx(ctx context.Context, db dbtx, change service.ClassificationChange) error {
	if err := validateString(change.TransactionID, "transactionID"); err != nil {
		return err
	}
	if !change.Status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, change.Status)
	}

	query := `
		UPDATE transactions SET
			organisation_id = ?, category = ?, role_type = ?, matching_status = ?
		WHERE id = ?
	`

	result, err := db.ExecContext(ctx, query,
		change.OrganisationID, change.Category, string(change.RoleType),
		string(change.Status), change.TransactionID,
	)
	if err != nil {
		return common.Storagef(err, "failed to update transaction classification")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return common.Storagef(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return common.NotFoundf("transaction %s", change.TransactionID)
	}

	if change.RunID != "" {
		history := `
			INSERT INTO classification_history (
				run_id, transaction_id, organisation_id, category, role_type, matching_status
			) VALUES (?, ?, ?, ?, ?, ?)
		`
		if _, err := db.ExecContext(ctx, history,
			change.RunID, change.TransactionID, change.OrganisationID,
			change.Category, string(change.RoleType), string(change.Status),
		); err != nil {
			return common.Storagef(err, "failed to record classification history")
		}
	}

	return nil
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var amount string
	var roleType sql.NullString
	var status string

	err := row.Scan(
		&txn.ID, &txn.Date, &txn.Label, &txn.NormalizedLabel, &amount,
		&txn.OrganisationID, &txn.Category, &roleType, &status,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount %q: %w", amount, err)
	}
	txn.Amount = parsed
	txn.MatchingStatus = model.MatchingStatus(status)

	if roleType.Valid {
		r := model.RoleType(roleType.String)
		txn.RoleType = &r
	}

	return &txn, nil
}

func roleTypeToNullString(r *model.RoleType) sql.NullString {
	if r == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*r), Valid: true}
}
