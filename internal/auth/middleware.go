package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys so no other package can
// collide with or shadow our values.
type contextKey string

const claimsKey contextKey = "sessionClaims"

// RequireAuth is middleware for operations that act on the authenticated
// account. The gateway forwards the caller's session token in the
// Authorization header ("Bearer <token>"); we verify it and store the
// claims in the request context. Missing or invalid tokens end the request
// with 401.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractClaims(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"status":false,"message":"Invalid token","statusCode":401}`))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext retrieves the verified session claims set by
// RequireAuth. Returns (nil, false) on an unauthenticated request.
func ClaimsFromContext(ctx context.Context) (*SessionClaims, bool) {
	c, ok := ctx.Value(claimsKey).(*SessionClaims)
	return c, ok && c != nil
}

func extractClaims(r *http.Request, tokens *TokenService) (*SessionClaims, error) {
	header := r.Header.Get("Authorization")
	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == "" || tokenStr == header {
		return nil, errors.New("auth: missing bearer token")
	}
	return tokens.Verify(tokenStr)
}
