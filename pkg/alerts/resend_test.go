package alerts_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/wattsense/pkg/alerts"
)

func TestResendMailer_Send(t *testing.T) {
	var received struct {
		From    string   `json:"from"`
		To      []string `json:"to"`
		Subject string   `json:"subject"`
		HTML    string   `json:"html"`
		Text    string   `json:"text"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer server.Close()

	m := alerts.NewResendMailer(server.URL, "re_test", "WattSense <alerts@example.com>")
	assert.Equal(t, "resend", m.Name())

	err := m.Send(context.Background(), alerts.Message{
		To:      "user@example.com",
		Subject: "Budget warning: 95.0% used",
		HTML:    "<p>hi</p>",
		Text:    "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "WattSense <alerts@example.com>", received.From)
	assert.Equal(t, []string{"user@example.com"}, received.To)
	assert.Equal(t, "Budget warning: 95.0% used", received.Subject)
	assert.Equal(t, "<p>hi</p>", received.HTML)
}

func TestResendMailer_Send_NoAPIKey(t *testing.T) {
	m := alerts.NewResendMailer("", "", "from@example.com")
	err := m.Send(context.Background(), alerts.Message{To: "user@example.com"})
	assert.ErrorIs(t, err, alerts.ErrTransportDisabled)
}

func TestResendMailer_Send_EmptyRecipient(t *testing.T) {
	m := alerts.NewResendMailer("http://127.0.0.1:1", "key", "from@example.com")
	err := m.Send(context.Background(), alerts.Message{Subject: "x"})
	assert.Error(t, err)
}

func TestResendMailer_Send_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer server.Close()

	m := alerts.NewResendMailer(server.URL, "key", "bad")
	err := m.Send(context.Background(), alerts.Message{To: "user@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
	assert.Contains(t, err.Error(), "invalid from address")
}
