package model

// Suggestion is a non-committal classification hint for a single
// transaction, produced by matching it against the rule set. It drives UI
// display only and is never written to storage.
type Suggestion struct {
	OrganisationID *string
	Category       *string
	RuleID         int64
	RoleType       RoleType
	DisplayLabel   string
	Confidence     ConfidenceLevel
}
