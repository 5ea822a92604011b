package alerts

import (
	"context"
	"fmt"
	"net/http"
)

// DefaultResendEndpoint is the Resend transactional email API.
const DefaultResendEndpoint = "https://api.resend.com/emails"

// ResendMailer sends email through a Resend-compatible HTTP API.
type ResendMailer struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

// NewResendMailer creates an HTTP email transport. An empty apiKey yields a
// mailer whose sends fail with ErrTransportDisabled.
func NewResendMailer(endpoint, apiKey, from string) *ResendMailer {
	if endpoint == "" {
		endpoint = DefaultResendEndpoint
	}
	return &ResendMailer{
		endpoint: endpoint,
		apiKey:   apiKey,
		from:     from,
		client:   newHTTPClient(),
	}
}

func (m *ResendMailer) Name() string { return "resend" }

func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	if m.apiKey == "" {
		return ErrTransportDisabled
	}
	if msg.To == "" {
		return fmt.Errorf("send email: empty recipient")
	}

	payload := resendPayload{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}
	return postJSON(ctx, m.client, "email api", m.endpoint, payload, m.authorize)
}

func (m *ResendMailer) authorize(h http.Header, _ []byte) {
	h.Set("Authorization", "Bearer "+m.apiKey)
}

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}
