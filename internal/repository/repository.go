// Package repository defines the storage interfaces the service layer
// depends on. Concrete implementations live in subpackages (sqlite); tests
// substitute in-memory mocks. The interfaces carry CRUD primitives only —
// no access policy, no validation. That all happens above.
package repository

import (
	"context"

	"github.com/rashed/snippetbin/internal/model"
)

// ListOptions controls pagination for list queries.
// Limit <= 0 means "no limit" — the snippet list endpoint returns everything
// by default, and pagination is opt-in via query parameters.
type ListOptions struct {
	Limit  int
	Offset int
}

// SnippetRepository is the key-addressable store for snippet records.
//
// Per-record atomicity is the store's responsibility: concurrent operations
// on the same id must not interleave partially (SQLite's single-writer model
// gives us this), and operations on different ids must not block each other
// beyond what the engine requires.
type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	List(ctx context.Context, opts ListOptions) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id string) error
	// ListIDsByOwner returns the ids of every snippet owned by the user, in
	// insertion order. The serializer uses this to build the hyperlinked
	// snippet list on user resources.
	ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error)
}

// UserRepository holds principal records. Users are created at registration
// and never mutated or deleted by this application.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
}
