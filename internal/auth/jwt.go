// Package auth implements the session machinery: password hashing for
// registration and login, JWT session tokens, and the middleware that turns
// a request's cookie into a principal for the ownership rules downstream.
//
// Sessions are stateless. A login issues a signed token carrying the user ID
// and expiry; validating a later request needs only the signing secret, no
// session table. The token travels in an HttpOnly cookie, set by the login
// handler and read back by the middleware in this package.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer tags every token this service signs. Validation demands it
// back, so a token minted by some other app sharing the secret (or a
// misconfigured environment) is rejected outright.
const tokenIssuer = "snippetbin"

// accessTokenTTL is the session lifetime. Short on purpose: a stolen cookie
// is only useful until expiry, and logging in again is cheap.
const accessTokenTTL = 15 * time.Minute

// TokenService signs and validates session tokens with an HMAC secret.
// The same secret serves both directions, so every instance that should
// accept each other's tokens must share it.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService. Secrets under 16 characters are
// refused; production should use 32+ bytes of randomness
// (JWT_SECRET=$(openssl rand -hex 32)).
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// sessionClaims is the token payload. The registered "sub" claim carries the
// internal user ID; nothing else goes in, so the token leaks no profile data
// if decoded.
type sessionClaims struct {
	jwt.RegisteredClaims
}

// Generate signs a session token for userID with the standard lifetime.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, accessTokenTTL)
}

// GenerateWithDuration signs a token with a caller-chosen lifetime.
// A negative duration yields an already-expired token, which the tests use
// to exercise expiry handling.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies a token string and returns the user ID it was issued to.
//
// The parser is pinned to HS256 via WithValidMethods — accepting whatever
// algorithm the token header names would let an attacker downgrade to "none"
// or confuse HMAC with an RSA public key. Issuer and expiry are checked in
// the same pass.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&sessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}
	return claims.Subject, nil
}
