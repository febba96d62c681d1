package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MatchingStatus tracks how a transaction's classification was produced.
type MatchingStatus string

// Matching status constants.
const (
	StatusUnmatched     MatchingStatus = "unmatched"
	StatusAutoMatched   MatchingStatus = "auto_matched"
	StatusManualMatched MatchingStatus = "manual_matched"
)

// Valid reports whether the matching status is one of the known values.
func (s MatchingStatus) Valid() bool {
	switch s {
	case StatusUnmatched, StatusAutoMatched, StatusManualMatched:
		return true
	}
	return false
}

// Transaction represents a bank transaction imported from a payment
// provider. The label is immutable; classification fields are mutated only
// through the apply executor or a single-transaction manual edit.
type Transaction struct {
	Date            time.Time
	Amount          decimal.Decimal
	OrganisationID  *string
	Category        *string
	RoleType        *RoleType
	ID              string
	Label           string // raw label as delivered by the provider
	NormalizedLabel string
	MatchingStatus  MatchingStatus
}

// GenerateHash creates a stable hash used for duplicate detection on import.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount.String(),
		t.Label)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// CarriesTarget reports whether the transaction already holds the rule's
// target organisation and category.
func (t *Transaction) CarriesTarget(rule *MatchingRule) bool {
	if !strPtrEqual(t.OrganisationID, rule.OrganisationID) {
		return false
	}
	if rule.Category == nil {
		// A rule without a category only links the organisation.
		return true
	}
	if rule.AllowMultipleCategories && t.Category != nil {
		return true
	}
	return strPtrEqual(t.Category, rule.Category)
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
