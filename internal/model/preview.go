package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConfidenceLevel buckets a confidence score for human review.
type ConfidenceLevel string

// Confidence level constants.
const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
	ConfidenceNone   ConfidenceLevel = "NONE"
)

// MaxSampleLabels caps the raw label variants carried per preview group.
const MaxSampleLabels = 5

// PreviewMatchResult is one reviewable group of transactions that a rule
// would affect, keyed by normalized label. Derived, never persisted.
type PreviewMatchResult struct {
	FirstSeen           time.Time
	LastSeen            time.Time
	TotalAmount         decimal.Decimal // absolute value sum
	NormalizedLabel     string
	Confidence          ConfidenceLevel
	SampleLabels        []string
	Reasons             []string
	ConfidenceScore     float64
	TransactionCount    int
	AlreadyAppliedCount int
	PendingCount        int
	// ManualOverrideCount reports matching transactions a human classified
	// manually. They are excluded from TransactionCount and are never
	// touched by a bulk apply.
	ManualOverrideCount int
}

// ApplyResult reports the outcome of a confirmed bulk apply.
type ApplyResult struct {
	RunID        string
	UpdatedIDs   []string
	UpdatedCount int
}
