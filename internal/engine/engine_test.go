package engine

import (
	"context"
	"testing"
	"time"

	"github.com/mfaurel/comptamatch/internal/model"
	"github.com/mfaurel/comptamatch/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *storage.SQLiteStorage) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return New(store), store
}

func seedTransactions(t *testing.T, store *storage.SQLiteStorage, txns ...model.Transaction) {
	t.Helper()
	require.NoError(t, store.SaveTransactions(context.Background(), txns))
}

func bankTxn(id, label, amount string, date time.Time) model.Transaction {
	return model.Transaction{
		ID:     id,
		Label:  label,
		Amount: decimal.RequireFromString(amount),
		Date:   date,
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
