// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account — the "principal" that owns snippets.
//
// WHY PasswordHash WITH json:"-"?
// The bcrypt hash must never leave the server. The `json:"-"` tag makes
// encoding/json skip the field entirely, so even a careless handler that
// serializes a User directly cannot echo the credential. The serializer
// package additionally never maps it.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
