// Package common provides shared utilities and types used across the engine.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Engine error kinds. Callers classify failures with errors.Is.
var (
	// ErrNotFound covers unknown rule ids and stale preview group keys.
	ErrNotFound = errors.New("not found")
	// ErrValidation covers malformed rule definitions and inputs.
	ErrValidation = errors.New("validation failed")
	// ErrConflict covers rule collisions that cannot be auto-merged.
	ErrConflict = errors.New("conflict")
	// ErrStorage covers underlying repository failures.
	ErrStorage = errors.New("storage failure")
)

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Conflictf wraps ErrConflict with a formatted message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Storagef wraps ErrStorage around an underlying repository error.
func Storagef(err error, msg string) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, msg, err)
}

// IsRetryable determines if an error should trigger a retry. Validation,
// not-found and conflict failures are terminal; storage and deadline
// failures may resolve on a clean re-run of the preview/confirm round trip.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) {
		return false
	}
	if errors.Is(err, ErrStorage) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
