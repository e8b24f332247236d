// Package apperror defines the error taxonomy shared by the service layer
// and the RPC handlers.
//
// The service layer never deals in status codes — it returns errors wrapping
// one of the sentinel values below, and the handler layer translates them to
// the semantic codes the gateway expects (404, 409, 401, 400, 500). The codes
// follow HTTP conventions even though the gateway may speak another transport.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrExpired      = errors.New("expired")
	ErrInternal     = errors.New("internal error")
)

// AppError pairs a sentinel with a message that is safe to show to callers.
// Internal detail (queries, file paths, wrapped driver errors) stays in Err
// and is only ever logged, never serialized.
type AppError struct {
	Err     error  // sentinel (and optionally a wrapped cause)
	Message string // human-readable, caller-safe
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// Expired marks a reset token past its window. It is its own kind, not a
// flavour of Unauthorized, because the gateway surfaces it differently
// from a wrong password.
func Expired(message string) *AppError {
	return &AppError{
		Err:     ErrExpired,
		Message: message,
	}
}

// Internal wraps an infrastructure failure. The cause is preserved for
// logging; the message shown to callers is always generic.
func Internal(cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrInternal, cause),
		Message: "An internal error occurred",
	}
}

// StatusCode resolves the semantic status code for an error. Anything that
// doesn't wrap a known sentinel is treated as internal.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrExpired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
