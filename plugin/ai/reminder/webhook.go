package reminder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hrygo/orcha/store"
)

// WebhookConfig configures a WebhookNotifier.
type WebhookConfig struct {
	URL     string
	Secret  string
	Timeout time.Duration
	Headers map[string]string
}

// WebhookPayload represents the webhook request body.
type WebhookPayload struct {
	Event     string    `json:"event"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Scheduled time.Time `json:"scheduled"`
	Timestamp time.Time `json:"timestamp"`
}

// WebhookNotifier posts reminders as JSON to a chat transport.
type WebhookNotifier struct {
	config     WebhookConfig
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewWebhookNotifier creates a new webhook notifier.
func NewWebhookNotifier(config WebhookConfig) *WebhookNotifier {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &WebhookNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: slog.Default(),
		now:    time.Now,
	}
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, userID string, event *store.Event, message string) error {
	payload := WebhookPayload{
		Event:     "reminder.triggered",
		UserID:    userID,
		EventID:   event.ID,
		Title:     event.Title,
		Message:   message,
		Scheduled: event.Timestamp,
		Timestamp: n.now(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if n.config.Secret != "" {
		req.Header.Set("X-Webhook-Secret", n.config.Secret)
	}
	for k, v := range n.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Error("webhook request failed", "url", n.config.URL, "error", err)
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		n.logger.Error("webhook returned error",
			"url", n.config.URL,
			"status", resp.StatusCode,
			"response", string(respBody),
		)
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	n.logger.Debug("webhook notification sent",
		"user_id", userID,
		"event_id", event.ID,
		"status", resp.StatusCode,
	)
	return nil
}

// Name implements Notifier.
func (n *WebhookNotifier) Name() string {
	return "webhook"
}
