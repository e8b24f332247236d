package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// defaultResetTTL is the recovery window for a password reset token.
const defaultResetTTL = 15 * time.Minute

// ResetTokenSource mints single-use password reset tokens. It only issues;
// consumption is a store lookup plus expiry check done by the account
// service, so that clearing the token happens in the same write as the
// password change.
type ResetTokenSource struct {
	ttl time.Duration
}

// NewResetTokenSource creates a ResetTokenSource. A zero ttl selects the
// default 15-minute window.
func NewResetTokenSource(ttl time.Duration) *ResetTokenSource {
	if ttl <= 0 {
		ttl = defaultResetTTL
	}
	return &ResetTokenSource{ttl: ttl}
}

// Issue returns an opaque token (32 random bytes, hex encoded — 256 bits
// of entropy) and its expiry.
func (r *ResetTokenSource) Issue() (token string, expiry time.Time, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, fmt.Errorf("auth: generating reset token: %w", err)
	}
	return hex.EncodeToString(buf), time.Now().Add(r.ttl), nil
}
