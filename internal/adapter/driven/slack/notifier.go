// Package slack implements the Notifier port against an incoming-webhook URL.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/reverbdotcom/breakglass/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*Notifier)(nil)

// Notifier posts text messages to a Slack incoming webhook. When no hook URL
// is configured the notifier is a silent no-op, so callers never branch on
// whether chat announcements are enabled.
type Notifier struct {
	hook       string
	httpClient *http.Client
}

// New creates a Notifier for the given webhook URL. An empty URL disables
// delivery.
func New(hook string) *Notifier {
	return &Notifier{
		hook:       hook,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewWithHTTPClient creates a Notifier with a custom http.Client. Intended
// for testing against an httptest server.
func NewWithHTTPClient(hook string, httpClient *http.Client) *Notifier {
	return &Notifier{hook: hook, httpClient: httpClient}
}

// PostMessage delivers one text message. Delivery is best-effort: errors are
// returned but the notifier itself never retries.
func (n *Notifier) PostMessage(ctx context.Context, text string) error {
	if n.hook == "" {
		slog.Debug("slack hook not configured, skipping message", "text", text)
		return nil
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("encoding slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.hook, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}
