// Package notify delivers alert events to external channels.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/GriffinCanCode/alertwatch/internal/errors"
	"github.com/GriffinCanCode/alertwatch/internal/history"
)

// Channel is a notification backend.
type Channel interface {
	// Send delivers a batch of events.
	Send(ctx context.Context, msg Message) error
	Type() string
}

// Message is one delivery.
type Message struct {
	Source    string          `json:"source"`
	Host      string          `json:"host,omitempty"`
	Events    []history.Event `json:"events"`
	Timestamp time.Time       `json:"timestamp"`
}

// WebhookChannel posts JSON to an HTTP endpoint.
type WebhookChannel struct {
	URL     string
	Headers map[string]string
	client  *http.Client
}

func NewWebhookChannel(url string, headers map[string]string) *WebhookChannel {
	return &WebhookChannel{
		URL:     url,
		Headers: headers,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WebhookChannel) Type() string { return "webhook" }

func (w *WebhookChannel) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, apperrors.InvalidArgument, "webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.NotifyFailed, "webhook send")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return statusError(resp, respBody)
}

// statusError classifies a non-2xx response: 429 and 5xx are retryable.
func statusError(resp *http.Response, body []byte) error {
	msg := fmt.Sprintf("webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &throttledError{
			AppError: apperrors.New(apperrors.NotifyFailed, msg),
			wait:     parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 500:
		return apperrors.New(apperrors.NotifyFailed, msg)
	default:
		return apperrors.New(apperrors.InvalidArgument, msg)
	}
}

// throttledError carries the server's Retry-After hint.
type throttledError struct {
	*apperrors.AppError
	wait time.Duration
}

func (e *throttledError) RetryAfter() time.Duration { return e.wait }

func (e *throttledError) Unwrap() error { return e.AppError }

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}
