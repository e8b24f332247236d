// Package auth provides the credential primitives: password hashing,
// session token issuance, reset token generation, and the Google identity
// exchange.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor used in production. bcrypt embeds
// the salt and cost in the hash string, so no separate salt storage is
// needed and the cost can be raised later without invalidating old hashes.
const defaultCost = 10

// PasswordService provides bcrypt hashing and verification. The cost is
// injected so tests can use bcrypt.MinCost instead of paying ~100ms per
// hash.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService. A cost outside bcrypt's
// valid range falls back to the default.
func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = defaultCost
	}
	return &PasswordService{cost: cost}
}

// Hash hashes the plaintext with bcrypt. The output is a self-contained
// string safe to store directly.
//
// bcrypt silently truncates inputs longer than 72 bytes; we reject them
// instead so callers aren't surprised.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. It never
// errors: a malformed or empty hash simply verifies false. The comparison
// itself is constant-time inside bcrypt.
func (p *PasswordService) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
