package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/rashed/snippetbin/internal/apperror"
	"github.com/rashed/snippetbin/internal/model"
	"github.com/rashed/snippetbin/internal/repository"
)

// UserDB is the user-repository view of DB. Go does not allow two methods
// with the same name on one type, so the UserRepository methods (Create,
// GetByID, List collide with SnippetRepository's) live on this redefinition
// of DB; convert with (*UserDB)(db) to get the user view of the same
// connection pool.
type UserDB DB

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// Create inserts a new user.
//
// DUPLICATE USERNAMES:
// The UNIQUE constraint on username is the authoritative check — a
// service-level "does this name exist" lookup would race against concurrent
// registrations. When the constraint fires we translate it into a
// ValidationError on the username field, so registration never silently
// overwrites an existing account and the client gets a 400, not a 500.
func (db *UserDB) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		// modernc.org/sqlite reports constraint violations as plain
		// errors with the SQLite message text; there is no typed error
		// to errors.As against.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.ValidationFailed("username",
				fmt.Sprintf("username %q is already taken", user.Username))
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their internal id.
// Returns apperror.ErrNotFound if no user exists with that id.
func (db *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}

// GetByUsername retrieves a user by username. Used by login, where the
// client knows the name, not the id.
func (db *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, updated_at
		 FROM users WHERE username = ?`,
		username,
	).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user by username %s: %w", username, err)
	}

	return &u, nil
}

// List retrieves users in registration order. Same LIMIT -1 convention as
// the snippet list: Limit <= 0 returns everything.
func (db *UserDB) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, username, password_hash, created_at, updated_at
		 FROM users
		 ORDER BY created_at, id
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}
