// Package service — authentication business logic.
//
// AuthService sits between the HTTP handlers and the repository/auth
// utilities:
//
//	AuthHandler (HTTP) → AuthService (rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT)
//
// It verifies credentials and issues tokens; it never touches cookies or
// requests — those are handler concerns.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rashed/snippetbin/internal/apperror"
	"github.com/rashed/snippetbin/internal/auth"
	"github.com/rashed/snippetbin/internal/model"
	"github.com/rashed/snippetbin/internal/repository"
)

// AuthService verifies credentials and issues access tokens.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the authenticated user and the issued JWT so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Login verifies a username/password pair and issues a JWT.
//
// An unknown username and a wrong password both return the same
// Unauthenticated error with the same message — distinguishing them would
// let an attacker enumerate registered usernames.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.Unauthenticated("invalid username or password")
		}
		return nil, fmt.Errorf("service/auth: looking up user %s: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed", slog.String("username", username))
		return nil, apperror.Unauthenticated("invalid username or password")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user for the given internal id. Used by the
// /auth/me handler after the middleware validates the JWT.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.Unauthenticated("authentication required")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}
