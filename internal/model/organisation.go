package model

import "time"

// Organisation is a counterparty known to the accounting system. The engine
// only reads organisations to enrich suggestions with display names.
type Organisation struct {
	CreatedAt       time.Time
	ID              string
	Name            string
	DefaultRoleType RoleType
}
