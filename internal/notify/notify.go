// Package notify is the outbound notification channel. Delivery is
// best-effort and fire-and-forget: the account service makes at most one
// attempt per event, logs a failure, and never lets it fail the parent
// operation.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Event names understood by the notification gateway.
const (
	EventRegistration           = "registration"
	EventPasswordResetRequested = "password_reset_requested"
	EventPasswordResetCompleted = "password_reset_completed"
)

// Notifier dispatches lifecycle events to the recipient's email address.
// The returned bool reports delivery; callers observe it but never act on
// it.
type Notifier interface {
	NotifyRegistration(ctx context.Context, email, fullName, userID string, role string) bool
	NotifyPasswordResetRequested(ctx context.Context, email, fullName, resetToken string) bool
	NotifyPasswordResetCompleted(ctx context.Context, email, fullName string) bool
}

// WebhookNotifier POSTs events as JSON to the notification gateway, which
// owns templating and the actual email/SMS delivery.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewWebhookNotifier creates a WebhookNotifier. An empty URL disables
// delivery — every notify reports undelivered, which callers already
// tolerate.
func NewWebhookNotifier(url string, logger *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

func (n *WebhookNotifier) NotifyRegistration(ctx context.Context, email, fullName, userID string, role string) bool {
	return n.post(ctx, EventRegistration, map[string]string{
		"email":     email,
		"full_name": fullName,
		"user_id":   userID,
		"role":      role,
	})
}

func (n *WebhookNotifier) NotifyPasswordResetRequested(ctx context.Context, email, fullName, resetToken string) bool {
	return n.post(ctx, EventPasswordResetRequested, map[string]string{
		"email":       email,
		"full_name":   fullName,
		"reset_token": resetToken,
	})
}

func (n *WebhookNotifier) NotifyPasswordResetCompleted(ctx context.Context, email, fullName string) bool {
	return n.post(ctx, EventPasswordResetCompleted, map[string]string{
		"email":     email,
		"full_name": fullName,
	})
}

// post makes the single delivery attempt. No retries, no queue.
func (n *WebhookNotifier) post(ctx context.Context, event string, data map[string]string) bool {
	if n.url == "" {
		n.logger.Debug("notifier disabled, dropping event", slog.String("event", event))
		return false
	}

	body, err := json.Marshal(map[string]any{
		"event": event,
		"data":  data,
	})
	if err != nil {
		n.logger.Error("notify: encoding event", slog.String("event", event), slog.String("error", err.Error()))
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("notify: building request", slog.String("event", event), slog.String("error", err.Error()))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("notify: delivery failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Warn("notify: gateway rejected event",
			slog.String("event", event),
			slog.Int("status", resp.StatusCode),
		)
		return false
	}

	return true
}
