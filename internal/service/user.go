// Package service — identity business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/rashed/snippetbin/internal/apperror"
	"github.com/rashed/snippetbin/internal/auth"
	"github.com/rashed/snippetbin/internal/model"
	"github.com/rashed/snippetbin/internal/repository"
)

const (
	MaxUsernameLength = 150
	MinPasswordLength = 8
	// bcrypt silently truncates inputs beyond 72 bytes, so we reject them.
	MaxPasswordLength = 72
)

// usernamePattern mirrors the classic "letters, digits and @ . + - _"
// username rule. Anchored, so the whole value must match.
var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// UserFields carries a decoded registration payload. Password is input-only:
// it is hashed here and the plaintext is never stored or echoed back.
type UserFields struct {
	Username *string
	Password *string
}

// UserWithSnippets pairs a user with the ids of the snippets they own. The
// serializer turns the ids into hyperlinks on the user resource.
type UserWithSnippets struct {
	User       model.User
	SnippetIDs []string
}

// UserService handles registration and user lookups.
type UserService struct {
	users     repository.UserRepository
	snippets  repository.SnippetRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewUserService creates a UserService with all dependencies injected.
func NewUserService(
	users repository.UserRepository,
	snippets repository.SnippetRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		snippets:  snippets,
		passwords: passwords,
		logger:    logger,
	}
}

// Register validates the payload, hashes the password, and creates the user.
//
// Registration is open — no principal required. A duplicate username fails
// with a ValidationError (the repository translates the UNIQUE constraint);
// it never silently overwrites an existing account.
func (s *UserService) Register(ctx context.Context, fields UserFields) (*model.User, error) {
	var problems []apperror.FieldError

	username := ""
	if fields.Username != nil {
		username = strings.TrimSpace(*fields.Username)
	}
	switch {
	case username == "":
		problems = append(problems, apperror.FieldError{Field: "username", Message: "username is required"})
	case len(username) > MaxUsernameLength:
		problems = append(problems, apperror.FieldError{
			Field:   "username",
			Message: fmt.Sprintf("username must be %d characters or less", MaxUsernameLength),
		})
	case !usernamePattern.MatchString(username):
		problems = append(problems, apperror.FieldError{
			Field:   "username",
			Message: "username may contain only letters, digits and @ . + - _",
		})
	}

	password := ""
	if fields.Password != nil {
		password = *fields.Password
	}
	switch {
	case password == "":
		problems = append(problems, apperror.FieldError{Field: "password", Message: "password is required"})
	case len(password) < MinPasswordLength:
		problems = append(problems, apperror.FieldError{
			Field:   "password",
			Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength),
		})
	case len(password) > MaxPasswordLength:
		problems = append(problems, apperror.FieldError{
			Field:   "password",
			Message: fmt.Sprintf("password must be %d bytes or fewer", MaxPasswordLength),
		})
	}

	if len(problems) > 0 {
		return nil, apperror.ValidationFailedFields(problems)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Duplicate username arrives as a ValidationError from the
		// repository; pass it through untouched.
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Get retrieves a user together with the ids of their snippets.
// Returns apperror.ErrNotFound if no user exists with that id.
func (s *UserService) Get(ctx context.Context, id string) (*UserWithSnippets, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user id is required")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ids, err := s.snippets.ListIDsByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("listing snippets for user %s: %w", id, err)
	}

	return &UserWithSnippets{User: *user, SnippetIDs: ids}, nil
}

// List retrieves users in registration order, each with their snippet ids.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]UserWithSnippets, error) {
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}

	result := make([]UserWithSnippets, 0, len(users))
	for _, u := range users {
		ids, err := s.snippets.ListIDsByOwner(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("listing snippets for user %s: %w", u.ID, err)
		}
		result = append(result, UserWithSnippets{User: u, SnippetIDs: ids})
	}

	return result, nil
}
