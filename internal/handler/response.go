package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/medibook/auth-service/internal/apperror"
)

// Envelope is the uniform success payload: every operation answers
// {status: true, data, message}. Failures use FailureResponse instead.
type Envelope struct {
	Status  bool   `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// FailureResponse is the structured failure the gateway translates. The
// statusCode is semantic (HTTP-style) even when the gateway's own
// transport is not HTTP.
type FailureResponse struct {
	Status     bool   `json:"status"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

func writeSuccess(w http.ResponseWriter, data any, message string) {
	writeJSON(w, http.StatusOK, Envelope{Status: true, Data: data, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing left to do but log.
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError maps a service error onto the failure envelope. Only
// AppError messages reach the caller; anything else is an internal error
// whose detail stays in the logs.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := apperror.StatusCode(err)
	message := "An internal error occurred"

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && !errors.Is(err, apperror.ErrInternal) {
		message = appErr.Message
	}

	if status == http.StatusInternalServerError {
		logger.Error("internal error", slog.String("error", err.Error()))
	}

	writeJSON(w, status, FailureResponse{
		Status:     false,
		Message:    message,
		StatusCode: status,
	})
}
