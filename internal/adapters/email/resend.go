// Package email delivers notifications by email.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/example/rabotim/internal/ports/secondary"
)

// DefaultResendURL is the Resend send-email endpoint.
const DefaultResendURL = "https://api.resend.com/emails"

// ResendNotifier implements secondary.Notifier with the Resend HTTP API.
// Server errors and network failures are retried with exponential backoff;
// 4xx responses are not.
type ResendNotifier struct {
	apiKey   string
	from     string
	url      string
	client   *http.Client
	maxTries uint
	logger   *slog.Logger
}

// ResendOption configures a ResendNotifier.
type ResendOption func(*ResendNotifier)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) ResendOption {
	return func(n *ResendNotifier) { n.client = c }
}

// WithMaxTries caps the number of delivery attempts.
func WithMaxTries(tries uint) ResendOption {
	return func(n *ResendNotifier) { n.maxTries = tries }
}

// NewResendNotifier creates a notifier sending from the given address.
// An empty url selects DefaultResendURL.
func NewResendNotifier(apiKey, from, url string, logger *slog.Logger, opts ...ResendOption) *ResendNotifier {
	if url == "" {
		url = DefaultResendURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	n := &ResendNotifier{
		apiKey:   apiKey,
		from:     from,
		url:      url,
		client:   &http.Client{Timeout: 10 * time.Second},
		maxTries: 3,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

type sendEmailResponse struct {
	ID string `json:"id"`
}

// Notify sends one email.
func (n *ResendNotifier) Notify(ctx context.Context, msg secondary.Notification) error {
	if msg.To == "" {
		return fmt.Errorf("notification %s has no recipient", msg.Key)
	}

	body, err := json.Marshal(sendEmailRequest{
		From:    n.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Body,
	})
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	id, err := backoff.Retry(ctx, func() (string, error) {
		return n.send(ctx, body)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(n.maxTries),
	)
	if err != nil {
		return fmt.Errorf("failed to send email %s: %w", msg.Key, err)
	}

	n.logger.Debug("email sent", "key", msg.Key, "resend_id", id)
	return nil
}

func (n *ResendNotifier) send(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("resend returned %s", resp.Status)
	}
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", backoff.Permanent(fmt.Errorf("resend returned %s: %s", resp.Status, bytes.TrimSpace(detail)))
	}

	var out sendEmailResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to decode resend response: %w", err))
	}
	return out.ID, nil
}

// LogNotifier implements secondary.Notifier by logging. It is used when no
// email provider is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(_ context.Context, msg secondary.Notification) error {
	n.logger.Info("notification", "to", msg.To, "subject", msg.Subject, "key", msg.Key)
	return nil
}

var (
	_ secondary.Notifier = (*ResendNotifier)(nil)
	_ secondary.Notifier = (*LogNotifier)(nil)
)
