package model

import "time"

// Operator is a restaurant staff account allowed to manage the slot
// catalog, day overrides and site settings.
type Operator struct {
	ID           uint64    // operators.id
	Email        string    // operators.email
	PasswordHash string    // operators.password_hash
	CreatedAt    time.Time // operators.created_at
}
