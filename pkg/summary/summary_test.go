package summary_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/wattsense/pkg/alerts"
	"github.com/ogulcanaydogan/wattsense/pkg/model"
	"github.com/ogulcanaydogan/wattsense/pkg/storage"
	"github.com/ogulcanaydogan/wattsense/pkg/summary"
	"github.com/ogulcanaydogan/wattsense/pkg/tips"
	"github.com/ogulcanaydogan/wattsense/pkg/usage"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []alerts.Message
	failFor map[string]bool
}

func (f *fakeSender) Send(_ context.Context, msg alerts.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[msg.To] {
		return errors.New("rejected")
	}
	f.sent = append(f.sent, msg)
	return nil
}

type countingTips struct {
	calls int
}

func (c *countingTips) Generate(context.Context, string) ([]string, error) {
	c.calls++
	return []string{"Switch off the water heater overnight."}, nil
}

func logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T) *storage.SQLite {
	t.Helper()
	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "summary.db"), storage.WithLocation(time.UTC))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMonthlySender_Run(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	for _, u := range []model.User{
		{ExternalID: "a", Email: "a@example.com", Name: "Dewi"},
		{ExternalID: "b", Email: "b@example.com"},
		{ExternalID: "c"},
	} {
		require.NoError(t, store.UpsertUser(ctx, &u))
	}

	insert := func(series model.Series, ts time.Time, price, energy float64) {
		require.NoError(t, store.InsertReading(ctx, series, &model.Reading{Timestamp: ts, Price: price, Energy: energy}))
	}
	insert(model.SeriesA, time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC), 9_999, 9)
	insert(model.SeriesA, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 100_000, 69.25)
	insert(model.SeriesB, time.Date(2024, 1, 31, 23, 59, 59, 999_000_000, time.UTC), 50_000, 34.63)
	insert(model.SeriesB, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 7_777, 5)

	sender := &fakeSender{}
	gen := &countingTips{}
	s := summary.NewMonthlySender(store, usage.NewAggregator(store, nil, logger()), gen, sender, time.UTC, logger())

	report, err := s.Run(ctx, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "January", report.Month)
	assert.InDelta(t, 150_000.0, report.TotalCost, 1e-9)
	assert.InDelta(t, 103.88, report.TotalEnergy, 1e-9)
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, report.Failures)
	assert.Equal(t, 1, gen.calls, "tips are generated once per run")

	require.Len(t, sender.sent, 2)
	first := sender.sent[0]
	assert.Equal(t, "January Summary - Energy usage overview", first.Subject)
	assert.Contains(t, first.HTML, "Hi Dewi")
	assert.Contains(t, first.HTML, "Rp 150.000")
	assert.Contains(t, first.HTML, "103.88 kWh")
	assert.Contains(t, first.HTML, "Switch off the water heater overnight.")
	assert.Contains(t, sender.sent[1].HTML, "Hi Customer")
}

func TestMonthlySender_Run_FallbackTipsAndFailures(t *testing.T) {
	store := setup(t)
	ctx := context.Background()
	for _, id := range []string{"ok", "bad"} {
		u := model.User{ExternalID: id, Email: id + "@example.com"}
		require.NoError(t, store.UpsertUser(ctx, &u))
	}

	sender := &fakeSender{failFor: map[string]bool{"bad@example.com": true}}
	s := summary.NewMonthlySender(store, usage.NewAggregator(store, nil, logger()), nil, sender, time.UTC, logger())

	report, err := s.Run(ctx, time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "February", report.Month)
	assert.Equal(t, 1, report.Sent)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "bad@example.com", report.Failures[0].Email)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].HTML, "Rp 0")
	for _, tip := range tips.Fallback {
		assert.Contains(t, sender.sent[0].Text, tip)
	}
}

func TestMonthlySender_Run_ListFailure(t *testing.T) {
	store := setup(t)
	require.NoError(t, store.Close())

	s := summary.NewMonthlySender(store, usage.NewAggregator(store, nil, logger()), nil, &fakeSender{}, time.UTC, logger())
	_, err := s.Run(context.Background(), time.Now())
	assert.Error(t, err)
}
