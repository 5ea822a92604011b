package alerts

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"
)

// WebhookNotifier mirrors notifications to a generic HTTP webhook.
type WebhookNotifier struct {
	url    string
	secret string
	client *http.Client
}

// NewWebhookNotifier creates a generic webhook notifier.
// If secret is non-empty, requests are signed with HMAC-SHA256.
func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		secret: secret,
		client: newHTTPClient(),
	}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

func (w *WebhookNotifier) Send(ctx context.Context, msg Message) error {
	payload := webhookPayload{
		Event:     eventName(msg),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Subject:   msg.Subject,
		Text:      msg.Text,
		Alert:     msg.Alert,
	}
	return postJSON(ctx, w.client, "webhook", w.url, payload, w.sign)
}

func (w *WebhookNotifier) sign(h http.Header, body []byte) {
	if w.secret == "" {
		return
	}
	h.Set("X-Signature-256", "sha256="+computeHMAC(body, []byte(w.secret)))
}

// eventName classifies a message for mirrors that route on event type.
func eventName(msg Message) string {
	if msg.Alert != nil {
		return "budget_alert"
	}
	return "notification"
}

type webhookPayload struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Subject   string `json:"subject"`
	Text      string `json:"text"`
	Alert     *Alert `json:"alert,omitempty"`
}

func computeHMAC(message, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}
