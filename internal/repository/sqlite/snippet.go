package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/rashed/snippetbin/internal/apperror"
	"github.com/rashed/snippetbin/internal/model"
	"github.com/rashed/snippetbin/internal/repository"
)

// compile-time check that *DB implements repository.SnippetRepository
var _ repository.SnippetRepository = (*DB)(nil)

// snippetColumns is the SELECT list shared by every snippet read. The join
// against users populates OwnerUsername — it is derived on read, never
// stored on the snippets table, so a future username change (not supported
// today) could never leave stale denormalised copies behind.
const snippetColumns = `
	s.id, s.owner_id, u.username, s.title, s.code, s.language, s.style,
	s.line_numbers, s.created_at, s.updated_at`

func scanSnippet(row interface{ Scan(...any) error }, s *model.Snippet) error {
	return row.Scan(
		&s.ID,
		&s.OwnerID,
		&s.OwnerUsername,
		&s.Title,
		&s.Code,
		&s.Language,
		&s.Style,
		&s.LineNumbers,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
}

// Create inserts a new snippet. The ID (xid — 20 chars, URL-safe, sortable
// by creation time) and timestamps are assigned here; the caller's struct is
// updated in place through the pointer.
//
// OwnerID must already be set by the service — this layer stores it verbatim
// and the foreign key constraint rejects ids that don't reference a user.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()

	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippets (id, owner_id, title, code, language, style, line_numbers, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.OwnerID,
		snippet.Title,
		snippet.Code,
		snippet.Language,
		snippet.Style,
		snippet.LineNumbers,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a single snippet with its owner's username.
// Returns apperror.ErrNotFound if no snippet exists with that id.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	var snippet model.Snippet

	row := db.conn.QueryRowContext(ctx,
		`SELECT`+snippetColumns+`
		 FROM snippets s
		 JOIN users u ON u.id = s.owner_id
		 WHERE s.id = ?`,
		id,
	)
	if err := scanSnippet(row, &snippet); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	return &snippet, nil
}

// List retrieves snippets in insertion order (oldest first) — the store's
// natural order, which the list endpoint exposes unfiltered.
//
// Limit <= 0 means unlimited: SQLite treats LIMIT -1 as "no limit", which
// lets us keep OFFSET in the same query either way.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT`+snippetColumns+`
		 FROM snippets s
		 JOIN users u ON u.id = s.owner_id
		 ORDER BY s.created_at, s.id
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := []model.Snippet{}
	for rows.Next() {
		var s model.Snippet
		if err := scanSnippet(rows, &s); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// Update persists the mutable fields of a snippet. owner_id, id, and
// created_at are deliberately absent from the SET list — they are immutable
// after creation, and keeping them out of the statement makes that
// impossible to violate from this layer.
//
// The single UPDATE statement is atomic: a concurrent update to the same id
// resolves last-write-wins, never to a torn record.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, code = ?, language = ?, style = ?, line_numbers = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Title,
		snippet.Code,
		snippet.Language,
		snippet.Style,
		snippet.LineNumbers,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	return nil
}

// Delete removes a snippet permanently. No soft delete — a second call for
// the same id reports NotFound.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}

// ListIDsByOwner returns the ids of every snippet owned by ownerID, in
// insertion order. Used to build the hyperlinked snippet list on user
// resources.
func (db *DB) ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id FROM snippets WHERE owner_id = ? ORDER BY created_at, id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippet ids for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippet ids: %w", err)
	}

	return ids, nil
}
