// Package summary sends the monthly energy usage email to every user.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ogulcanaydogan/wattsense/pkg/alerts"
	"github.com/ogulcanaydogan/wattsense/pkg/model"
	"github.com/ogulcanaydogan/wattsense/pkg/tips"
	"github.com/ogulcanaydogan/wattsense/pkg/units"
	"github.com/ogulcanaydogan/wattsense/pkg/usage"
)

// UserLister lists summary recipients.
type UserLister interface {
	ListUsers(ctx context.Context) ([]model.User, error)
}

// Aggregator sums a metric over a window.
type Aggregator interface {
	Aggregate(ctx context.Context, window model.Window, metric model.Metric) usage.Sum
}

// Sender delivers a rendered notification.
type Sender interface {
	Send(ctx context.Context, msg alerts.Message) error
}

// Failure describes a user whose summary could not be sent.
type Failure struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Error  string `json:"error"`
}

// Report summarises a summary run.
type Report struct {
	Month       string    `json:"month"`
	TotalCost   float64   `json:"total_cost"`
	TotalEnergy float64   `json:"total_energy"`
	Processed   int       `json:"processed"`
	Sent        int       `json:"sent"`
	Skipped     int       `json:"skipped"`
	Failures    []Failure `json:"failures"`
}

// MonthlySender composes and delivers monthly summaries.
type MonthlySender struct {
	users  UserLister
	agg    Aggregator
	tips   tips.Generator
	sender Sender
	loc    *time.Location
	logger *slog.Logger
}

// NewMonthlySender creates a monthly summary sender. gen may be nil, in
// which case the fallback tips are used.
func NewMonthlySender(users UserLister, agg Aggregator, gen tips.Generator, sender Sender, loc *time.Location, logger *slog.Logger) *MonthlySender {
	if loc == nil {
		loc = time.Local
	}
	return &MonthlySender{
		users:  users,
		agg:    agg,
		tips:   gen,
		sender: sender,
		loc:    loc,
		logger: logger,
	}
}

// Run emails every user with an address a summary of the calendar month
// before now. Usage covers all readings, since readings are not tied to a
// user. Per-user send failures are collected; only listing users fails
// the run.
func (s *MonthlySender) Run(ctx context.Context, now time.Time) (*Report, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	window := model.PreviousMonth(now.In(s.loc))
	month := window.Start.Month().String()

	cost := s.agg.Aggregate(ctx, window, model.MetricPrice)
	energy := s.agg.Aggregate(ctx, window, model.MetricEnergy)
	monthTips := tips.Ensure(ctx, s.tips, s.logger)

	report := &Report{
		Month:       month,
		TotalCost:   cost.Total,
		TotalEnergy: energy.Total,
		Failures:    []Failure{},
	}

	for _, u := range users {
		report.Processed++
		if u.Email == "" {
			report.Skipped++
			continue
		}

		msg, err := alerts.MonthlySummary(u.Email, alerts.MonthlySummaryData{
			Name:        u.DisplayName(),
			Month:       month,
			TotalCost:   units.FormatIDR(cost.Total),
			TotalEnergy: units.FormatKWh(energy.Total),
			Tips:        monthTips,
		})
		if err == nil {
			err = s.sender.Send(ctx, msg)
		}
		if err != nil {
			s.logger.Error("monthly summary failed", "user", u.ID, "error", err)
			report.Failures = append(report.Failures, Failure{
				UserID: u.ID,
				Email:  u.Email,
				Error:  err.Error(),
			})
			continue
		}
		report.Sent++
	}

	s.logger.Info("monthly summary finished",
		"month", month,
		"sent", report.Sent,
		"skipped", report.Skipped,
		"failures", len(report.Failures),
	)
	return report, nil
}
