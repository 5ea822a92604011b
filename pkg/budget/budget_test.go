package budget_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/wattsense/pkg/alerts"
	"github.com/ogulcanaydogan/wattsense/pkg/budget"
	"github.com/ogulcanaydogan/wattsense/pkg/metrics"
	"github.com/ogulcanaydogan/wattsense/pkg/model"
	"github.com/ogulcanaydogan/wattsense/pkg/storage"
	"github.com/ogulcanaydogan/wattsense/pkg/usage"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []alerts.Message
	failFor map[string]bool
	err     error
}

func (f *fakeSender) Send(_ context.Context, msg alerts.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.failFor[msg.To] {
		return errors.New("mailbox unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type env struct {
	store   *storage.SQLite
	path    string
	sender  *fakeSender
	alerter *budget.Alerter
	eval    *budget.Evaluator
	svc     *budget.Service
	now     time.Time
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEnv(t *testing.T) *env {
	t.Helper()
	path := filepath.Join(t.TempDir(), "budget.db")
	store, err := storage.NewSQLite(path, storage.WithLocation(time.UTC))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	e := &env{
		store:  store,
		path:   path,
		sender: &fakeSender{},
		now:    time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
	}
	m := metrics.New()
	agg := usage.NewAggregator(store, m, testLogger())
	e.eval = budget.NewEvaluator(agg)
	e.alerter = budget.NewAlerter(store, e.sender, budget.DefaultPolicy(), m, testLogger())
	e.svc = budget.NewService(store, e.eval, e.alerter, testLogger(),
		budget.WithLocation(time.UTC),
		budget.WithClock(func() time.Time { return e.now }),
	)
	return e
}

func (e *env) user(t *testing.T, externalID, email string) *model.User {
	t.Helper()
	u := &model.User{ExternalID: externalID, Email: email}
	require.NoError(t, e.store.UpsertUser(context.Background(), u))
	return u
}

func (e *env) reading(t *testing.T, series model.Series, ts time.Time, price float64) {
	t.Helper()
	require.NoError(t, e.store.InsertReading(context.Background(), series, &model.Reading{
		Timestamp: ts,
		Price:     price,
		Energy:    price / 1444,
	}))
}

func (e *env) budgetFor(t *testing.T, userID string, amount int64) *model.Budget {
	t.Helper()
	b, err := e.store.UpsertBudget(context.Background(), &model.Budget{
		UserID: userID,
		Amount: decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	return b
}

func date(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}
