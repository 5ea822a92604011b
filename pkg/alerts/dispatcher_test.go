package alerts_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/wattsense/pkg/alerts"
)

type recordingMailer struct {
	name string
	err  error

	mu   sync.Mutex
	sent []alerts.Message
}

func (m *recordingMailer) Name() string { return m.name }

func (m *recordingMailer) Send(_ context.Context, msg alerts.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcher_PrimaryAndMirrors(t *testing.T) {
	primary := &recordingMailer{name: "primary"}
	mirror := &recordingMailer{name: "mirror"}
	d := alerts.NewDispatcher(primary, []alerts.Mailer{mirror}, discardLogger())

	err := d.Send(context.Background(), alerts.Message{To: "a@example.com", Subject: "s"})
	require.NoError(t, err)
	assert.Len(t, primary.sent, 1)
	assert.Len(t, mirror.sent, 1)
}

func TestDispatcher_PrimaryFailureSkipsMirrors(t *testing.T) {
	primary := &recordingMailer{name: "primary", err: errors.New("smtp down")}
	mirror := &recordingMailer{name: "mirror"}
	d := alerts.NewDispatcher(primary, []alerts.Mailer{mirror}, discardLogger())

	err := d.Send(context.Background(), alerts.Message{To: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary")
	assert.Empty(t, mirror.sent)
}

func TestDispatcher_PrimaryDisabledIsReported(t *testing.T) {
	primary := alerts.NewResendMailer("", "", "")
	d := alerts.NewDispatcher(primary, nil, discardLogger())

	err := d.Send(context.Background(), alerts.Message{To: "a@example.com"})
	assert.ErrorIs(t, err, alerts.ErrTransportDisabled)
}

func TestDispatcher_MirrorFailureIgnored(t *testing.T) {
	primary := &recordingMailer{name: "primary"}
	broken := &recordingMailer{name: "broken", err: errors.New("boom")}
	ok := &recordingMailer{name: "ok"}
	d := alerts.NewDispatcher(primary, []alerts.Mailer{broken, ok}, discardLogger())

	err := d.Send(context.Background(), alerts.Message{To: "a@example.com"})
	require.NoError(t, err)
	assert.Len(t, ok.sent, 1)
}
