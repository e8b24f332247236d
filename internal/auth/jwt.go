package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/medibook/auth-service/internal/model"
)

const issuer = "medibook-auth"

// defaultSessionTTL is the session lifetime when none is configured.
const defaultSessionTTL = 24 * time.Hour

// SessionClaims is the JWT payload for a signed session. The subject is the
// account's internal ID; email, role, and full name ride along so the
// gateway can render the session without a lookup.
type SessionClaims struct {
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
	FullName string     `json:"full_name"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies session tokens with HS256. The signing
// key is process-wide configuration loaded once at startup; rotating it
// invalidates every outstanding session, which is the accepted tradeoff.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; generate one with `openssl rand -hex 32`. A zero ttl selects
// the default session lifetime of one day.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Issue creates and signs a session token for the account.
func (s *TokenService) Issue(account *model.Account) (string, error) {
	return s.IssueWithDuration(account, s.ttl)
}

// IssueWithDuration creates a token with a custom lifetime. Used by tests
// to mint already-expired tokens.
func (s *TokenService) IssueWithDuration(account *model.Account, d time.Duration) (string, error) {
	now := time.Now()

	c := SessionClaims{
		Email:    account.Email,
		Role:     account.Role,
		FullName: account.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and checks a session token: signature, expiry, issuer, and
// signing algorithm (pinning HS256 blocks algorithm-confusion tokens).
// Malformed, tampered, and expired tokens all fail the same way — callers
// only learn "invalid".
func (s *TokenService) Verify(tokenStr string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&SessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, errors.New("auth: token has no subject")
	}

	return c, nil
}
