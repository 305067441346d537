package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/studyfrog/core/internal/dispatch"
)

// WebhookNotifier posts a "get-<kind>-toast" payload to an external
// webhook (Slack-compatible incoming-webhook JSON, also accepted by
// Discord and most chat-ops relays). It is a plain HTTP client: the
// source's own Slack/Discord adapters reach for nothing beyond
// net/http + encoding/json, so neither does this.
type WebhookNotifier struct {
	url      string
	client   *http.Client
	username string
}

// NewWebhookNotifier returns a notifier posting to url as username.
func NewWebhookNotifier(url, username string) *WebhookNotifier {
	return &WebhookNotifier{
		url:      url,
		client:   &http.Client{Timeout: 10 * time.Second},
		username: username,
	}
}

type webhookPayload struct {
	Username string `json:"username,omitempty"`
	Text     string `json:"text"`
}

// Send posts title/message to the configured webhook.
func (w *WebhookNotifier) Send(title, message string) error {
	body, err := json.Marshal(webhookPayload{
		Username: w.username,
		Text:     fmt.Sprintf("*%s*\n%s", title, message),
	})
	if err != nil {
		return fmt.Errorf("notify: marshaling webhook payload: %w", err)
	}

	resp, err := w.client.Post(w.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: posting to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// RegisterHandler subscribes w to every "get-<kind>-toast" event in kinds.
func (w *WebhookNotifier) RegisterHandler(d *dispatch.Dispatcher, kinds ...string) {
	for _, kind := range kinds {
		event := "get-" + kind + "-toast"
		d.Subscribe(event, func(payload map[string]any) (any, error) {
			title, _ := payload["title"].(string)
			message, _ := payload["message"].(string)
			if err := w.Send(title, message); err != nil {
				return nil, err
			}
			return true, nil
		}, dispatch.Global, true, -10)
	}
}
