// Password hashing for account registration and login.
//
// Registration stores only the bcrypt hash of the password; login verifies
// the submitted plaintext against that hash. Plaintext passwords never touch
// the database or the logs.
//
// bcrypt is deliberately slow and salts automatically — each call embeds a
// fresh random salt in its output, so two accounts with the same password
// still get different hashes and the stored string is self-contained:
//
//	$2a$12$<22-char salt><31-char hash>
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor for production hashing.
// Cost 12 lands around 250ms per hash on current server hardware — slow
// enough to hurt brute force, fast enough for a login endpoint.
const defaultCost = 12

// maxPasswordBytes is bcrypt's input limit. Beyond it bcrypt silently
// truncates, which would make "secret-pass...<junk>" verify as the real
// password, so over-long input is rejected up front instead.
const maxPasswordBytes = 72

// PasswordService hashes and verifies account passwords.
//
// The cost lives on the struct rather than in the functions so tests can
// inject the bcrypt minimum and skip the deliberate slowness.
type PasswordService struct {
	cost int
}

// NewPasswordService returns a PasswordService at production cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest returns a PasswordService with the given cost.
// Tests pass 4 (the bcrypt minimum) so registration fixtures hash in
// microseconds; never use a low cost outside tests.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plaintext, ready to store as-is.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash; nil means match.
// bcrypt compares in constant time, so response timing leaks nothing about
// how close a guess was.
func (p *PasswordService) Verify(hash, plaintext string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
