// Package storage provides the SQLite persistence layer for comptamatch.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mfaurel/comptamatch/internal/model"
)

// Validation errors.
var (
	ErrNilContext          = errors.New("context cannot be nil")
	ErrEmptyString         = errors.New("string parameter cannot be empty")
	ErrNilParameter        = errors.New("parameter cannot be nil")
	ErrEmptySlice          = errors.New("slice cannot be empty")
	ErrInvalidRule         = errors.New("invalid matching rule")
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrInvalidOrganisation = errors.New("invalid organisation")
	ErrInvalidStatus       = errors.New("invalid matching status")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRule validates a matching rule at the storage boundary.
func validateRule(rule *model.MatchingRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if !rule.MatchType.Valid() {
		return fmt.Errorf("%w: unknown match type %q", ErrInvalidRule, rule.MatchType)
	}
	if !rule.RoleType.Valid() {
		return fmt.Errorf("%w: unknown role type %q", ErrInvalidRule, rule.RoleType)
	}
	if strings.TrimSpace(rule.PrimaryPattern()) == "" {
		return fmt.Errorf("%w: missing primary pattern", ErrInvalidRule)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Label == "" {
		return fmt.Errorf("%w: missing label", ErrInvalidTransaction)
	}
	if txn.MatchingStatus != "" && !txn.MatchingStatus.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, txn.MatchingStatus)
	}
	return nil
}
