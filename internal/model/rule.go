// Package model defines the core data structures for the comptamatch engine.
package model

import (
	"time"
)

// MatchType determines how a rule's patterns are compared against labels.
type MatchType string

// Match type constants.
const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
)

// Valid reports whether the match type is one of the known values.
func (m MatchType) Valid() bool {
	return m == MatchExact || m == MatchContains
}

// RoleType describes the counterparty relationship a rule assigns.
type RoleType string

// Role type constants.
const (
	RoleSupplier RoleType = "supplier"
	RoleCustomer RoleType = "customer"
	RolePartner  RoleType = "partner"
	RoleInternal RoleType = "internal"
)

// Valid reports whether the role type is one of the known values.
func (r RoleType) Valid() bool {
	switch r {
	case RoleSupplier, RoleCustomer, RolePartner, RoleInternal:
		return true
	}
	return false
}

// DefaultRulePriority is assigned when a rule is created without an
// explicit priority. Lower values are evaluated first.
const DefaultRulePriority = 100

// MatchingRule assigns accounting metadata to transactions whose labels
// match one of its patterns.
type MatchingRule struct {
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
	LastAppliedAt           *time.Time `json:"last_applied_at,omitempty"`
	OrganisationID          *string    `json:"organisation_id,omitempty"`
	Category                *string    `json:"category,omitempty"`
	MatchType               MatchType  `json:"match_type"`
	RoleType                RoleType   `json:"role_type"`
	Patterns                []string   `json:"patterns"`
	ID                      int64      `json:"id"`
	Priority                int        `json:"priority"`
	UseCount                int        `json:"use_count"`
	Enabled                 bool       `json:"enabled"`
	AllowMultipleCategories bool       `json:"allow_multiple_categories"`
}

// PrimaryPattern returns the first pattern, the natural-key component used
// for idempotent upserts. Empty when the rule has no patterns.
func (r *MatchingRule) PrimaryPattern() string {
	if len(r.Patterns) == 0 {
		return ""
	}
	return r.Patterns[0]
}
