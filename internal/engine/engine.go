// Package engine implements the rule-based classification engine: rule
// management, suggestions, and the two-phase preview/confirm bulk apply.
package engine

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/mfaurel/comptamatch/internal/service"
)

// Engine ties the matching rules, the transaction store and the apply
// protocol together. All reads are side-effect free; ConfirmApply is the
// only entry point that mutates transaction classifications in bulk.
type Engine struct {
	storage  service.Storage
	validate *validator.Validate
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine backed by the given storage.
func New(storage service.Storage, opts ...Option) *Engine {
	e := &Engine{
		storage:  storage,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
