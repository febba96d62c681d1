package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mfaurel/comptamatch/internal/config"
	"github.com/mfaurel/comptamatch/internal/engine"
	"github.com/mfaurel/comptamatch/internal/service"
	"github.com/mfaurel/comptamatch/internal/storage"
	"github.com/spf13/viper"
)

// initStorage initializes the storage service with proper path expansion
// and runs pending migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := config.DatabasePath(viper.GetString("database.path"))

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initEngine wires the engine over storage. The returned cleanup closes the
// database.
func initEngine(ctx context.Context) (*engine.Engine, func(), error) {
	eng, _, cleanup, err := initEngineWithStorage(ctx)
	return eng, cleanup, err
}

// initEngineWithStorage exposes the underlying storage for commands that
// read transactions directly.
func initEngineWithStorage(ctx context.Context) (*engine.Engine, service.Storage, func(), error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() { _ = store.Close() }
	return engine.New(store), store, cleanup, nil
}

// optional returns nil for blank flag values so they read as "not provided".
func optional(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// truncateString shortens a string for table display.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
