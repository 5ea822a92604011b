package budget

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ogulcanaydogan/wattsense/pkg/alerts"
	"github.com/ogulcanaydogan/wattsense/pkg/metrics"
	"github.com/ogulcanaydogan/wattsense/pkg/model"
	"github.com/ogulcanaydogan/wattsense/pkg/storage"
	"github.com/ogulcanaydogan/wattsense/pkg/units"
)

// Alert triggers, used as metric labels.
const (
	TriggerWrite = "write"
	TriggerSweep = "sweep"
)

// Outcome is the result of running the alert path for one budget.
type Outcome string

const (
	OutcomeBelowThreshold Outcome = "below_threshold"
	OutcomeNoRecipient    Outcome = "no_recipient"
	OutcomeThrottled      Outcome = "throttled"
	OutcomeSent           Outcome = "sent"
	OutcomeFailed         Outcome = "failed"
)

// Sender delivers a rendered notification.
type Sender interface {
	Send(ctx context.Context, msg alerts.Message) error
}

// Alerter runs threshold check, throttle, dispatch and timestamp persistence
// for a single evaluated budget, in that order.
type Alerter struct {
	store   storage.Storage
	sender  Sender
	policy  Policy
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewAlerter creates an alerter.
func NewAlerter(store storage.Storage, sender Sender, policy Policy, m *metrics.Metrics, logger *slog.Logger) *Alerter {
	return &Alerter{
		store:   store,
		sender:  sender,
		policy:  policy,
		metrics: m,
		logger:  logger,
	}
}

// Policy returns the policy the alerter applies.
func (a *Alerter) Policy() Policy {
	return a.policy
}

// Process fires a warning for b when eval crosses the threshold and the
// throttle allows it. On success b.LastAlertSent is advanced to now.
// A dispatch failure is returned wrapped in ErrNotificationFailed and leaves
// the stored timestamp untouched.
func (a *Alerter) Process(ctx context.Context, b *model.Budget, owner model.User, eval Evaluation, trigger string, now time.Time) (Outcome, error) {
	a.metrics.RecordBudgetUsage(b.ID, eval.PercentUsed)

	if !a.policy.ShouldAlert(eval) {
		return OutcomeBelowThreshold, nil
	}
	if owner.Email == "" {
		return OutcomeNoRecipient, nil
	}
	if !a.policy.Throttle.ShouldSend(b, now) {
		a.metrics.RecordThrottled(trigger)
		a.logger.Debug("budget alert throttled",
			"budget", b.ID,
			"last_alert_sent", b.LastAlertSent,
		)
		return OutcomeThrottled, nil
	}

	level := a.policy.Level(eval.PercentUsed)
	msg, err := alerts.BudgetWarning(owner.Email, alerts.BudgetWarningData{
		Name:         owner.DisplayName(),
		PercentUsed:  eval.PercentUsed,
		BudgetLabel:  units.Label(eval.BudgetAmount),
		SpentLabel:   units.Label(eval.Usage),
		ThresholdPct: a.policy.AlertThresholdPct,
	}, &alerts.Alert{
		Level:        level.alertLevel(),
		BudgetID:     b.ID,
		UserID:       b.UserID,
		BudgetIDR:    eval.BudgetAmount,
		UsageIDR:     eval.Usage,
		PercentUsed:  eval.PercentUsed,
		ThresholdPct: a.policy.AlertThresholdPct,
	})
	if err != nil {
		return OutcomeFailed, fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	if err := a.sender.Send(ctx, msg); err != nil {
		a.metrics.RecordAlert(trigger, err)
		a.logger.Error("budget alert dispatch failed",
			"budget", b.ID,
			"trigger", trigger,
			"error", err,
		)
		return OutcomeFailed, fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	a.metrics.RecordAlert(trigger, nil)

	updated, err := a.store.UpdateBudgetAlertTimestamp(ctx, b.ID, b.LastAlertSent, now)
	if err != nil {
		return OutcomeSent, fmt.Errorf("persist alert timestamp: %w", err)
	}
	if !updated {
		a.logger.Warn("alert timestamp changed concurrently, keeping newer value",
			"budget", b.ID,
			"trigger", trigger,
		)
	}

	sent := now
	b.LastAlertSent = &sent
	a.logger.Info("budget alert sent",
		"budget", b.ID,
		"level", level,
		"pct", eval.PercentUsed,
		"trigger", trigger,
	)
	return OutcomeSent, nil
}
