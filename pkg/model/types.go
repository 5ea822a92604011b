package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultName is used in notifications when a user has no display name.
const DefaultName = "Customer"

// User is the owner of a budget. ExternalID is the identity subject issued
// by the authentication provider.
type User struct {
	ID         string    `json:"id" db:"id"`
	ExternalID string    `json:"external_id" db:"external_id"`
	Email      string    `json:"email,omitempty" db:"email"`
	Name       string    `json:"name,omitempty" db:"name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// DisplayName returns the user's name or DefaultName.
func (u User) DisplayName() string {
	if u.Name == "" {
		return DefaultName
	}
	return u.Name
}

// Budget is a spend limit in IDR over an optional calendar-date window.
// StartDate and EndDate are midnight of the respective calendar day.
type Budget struct {
	ID            string          `json:"id" db:"id"`
	UserID        string          `json:"user_id" db:"user_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	StartDate     *time.Time      `json:"start_date" db:"start_date"`
	EndDate       *time.Time      `json:"end_date" db:"end_date"`
	LastAlertSent *time.Time      `json:"last_alert_sent" db:"last_alert_sent"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// AmountIDR returns the budget amount as a float for percentage math.
func (b *Budget) AmountIDR() float64 {
	return b.Amount.InexactFloat64()
}

// Window returns the usage window the budget is evaluated over.
func (b *Budget) Window() Window {
	return BudgetWindow(b.StartDate, b.EndDate)
}

// BudgetWithOwner pairs a budget with the user that owns it.
type BudgetWithOwner struct {
	Budget
	Owner User `json:"owner"`
}

// Series identifies one of the two sensor data streams.
type Series string

const (
	SeriesA Series = "a"
	SeriesB Series = "b"
)

// AllSeries lists every monitored sensor series in display order.
var AllSeries = []Series{SeriesA, SeriesB}

// Label returns the display name of the sensor behind the series.
func (s Series) Label() string {
	switch s {
	case SeriesA:
		return "PZEM A"
	case SeriesB:
		return "PZEM B"
	default:
		return string(s)
	}
}

// Metric is a summable column of a sensor reading.
type Metric string

const (
	MetricPrice  Metric = "price"
	MetricEnergy Metric = "energy"
)

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	return m == MetricPrice || m == MetricEnergy
}

// Reading is a single immutable sample from a sensor.
type Reading struct {
	ID          string    `json:"id" db:"id"`
	Series      Series    `json:"-"`
	Sensor      string    `json:"sensor"`
	Timestamp   time.Time `json:"timestamp" db:"ts"`
	Voltage     float64   `json:"voltage" db:"voltage"`
	Ampere      float64   `json:"ampere" db:"ampere"`
	Power       float64   `json:"power" db:"power"`
	Energy      float64   `json:"energy" db:"energy"`
	PowerFactor float64   `json:"pf" db:"pf"`
	Price       float64   `json:"price" db:"price"`
}

// Window bounds a usage aggregation. Both bounds are inclusive; a zero
// bound is unbounded on that side.
type Window struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// Unbounded reports whether the window covers all readings.
func (w Window) Unbounded() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// EndOfDay returns 23:59:59.999 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// BudgetWindow builds the window for optional start and end dates. The end
// date is inclusive through the end of its day.
func BudgetWindow(start, end *time.Time) Window {
	var w Window
	if start != nil {
		w.Start = *start
	}
	if end != nil {
		w.End = EndOfDay(*end)
	}
	return w
}

// PreviousMonth returns the window covering the calendar month before now,
// in now's location.
func PreviousMonth(now time.Time) Window {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	start := first.AddDate(0, -1, 0)
	return Window{
		Start: start,
		End:   first.Add(-time.Millisecond),
	}
}
