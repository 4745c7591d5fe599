// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — plain records with no
// behaviour attached; all logic lives in the service layer.
package model

import "time"

// Snippet represents a saved piece of source code.
//
// OwnerID is set exactly once, at creation, to the principal who created the
// snippet. Nothing in the system reassigns it — the serializer has no
// writable owner field and the store never updates the column.
//
// OwnerUsername is derived, not stored on the snippets table: the SQLite
// repository populates it with a join against users on every read. It exists
// so the external representation can show who owns a snippet without leaking
// the raw owner reference.
type Snippet struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"ownerId"`
	OwnerUsername string    `json:"owner"`
	Title         string    `json:"title"`
	Code          string    `json:"code"`
	Language      string    `json:"language"`
	Style         string    `json:"style"`
	LineNumbers   bool      `json:"linenos"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
