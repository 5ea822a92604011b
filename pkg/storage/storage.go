package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ogulcanaydogan/wattsense/pkg/model"
)

// ErrNotFound is returned when a requested user or budget does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines the persistence layer for users, budgets and sensor readings.
type Storage interface {
	// FindUserByExternalID looks up a user by identity subject.
	FindUserByExternalID(ctx context.Context, externalID string) (*model.User, error)

	// UpsertUser creates or updates a user keyed by external ID.
	UpsertUser(ctx context.Context, user *model.User) error

	// ListUsers returns every user.
	ListUsers(ctx context.Context) ([]model.User, error)

	// FindBudgetByUser returns the budget owned by userID or ErrNotFound.
	FindBudgetByUser(ctx context.Context, userID string) (*model.Budget, error)

	// UpsertBudget creates or fully replaces amount and window of the user's
	// budget. LastAlertSent is never written.
	UpsertBudget(ctx context.Context, budget *model.Budget) (*model.Budget, error)

	// UpdateBudgetAlertTimestamp sets last_alert_sent to at, only if it still
	// equals prev. It reports whether the row was updated.
	UpdateBudgetAlertTimestamp(ctx context.Context, budgetID string, prev *time.Time, at time.Time) (bool, error)

	// ListBudgetsWithOwner returns all budgets joined with their owners.
	ListBudgetsWithOwner(ctx context.Context) ([]model.BudgetWithOwner, error)

	// SumMetric sums metric over a series' readings inside window.
	SumMetric(ctx context.Context, series model.Series, metric model.Metric, window model.Window) (float64, error)

	// InsertReading stores a sensor reading.
	InsertReading(ctx context.Context, series model.Series, reading *model.Reading) error

	// LatestReadings returns up to limit most recent readings, oldest first.
	LatestReadings(ctx context.Context, series model.Series, limit int) ([]model.Reading, error)

	// Close releases resources.
	Close() error
}
