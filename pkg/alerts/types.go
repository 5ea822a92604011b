package alerts

import (
	"context"
	"errors"
)

// ErrTransportDisabled is returned by a mailer that has no credentials.
var ErrTransportDisabled = errors.New("email transport not configured")

// AlertLevel indicates the severity of a budget alert.
type AlertLevel string

const (
	AlertWarning  AlertLevel = "warning"  // Approaching the budget
	AlertCritical AlertLevel = "critical" // At or past the alert threshold
	AlertExceeded AlertLevel = "exceeded" // Budget fully used
)

// Alert carries the structured budget data behind a warning message.
type Alert struct {
	Level        AlertLevel `json:"level"`
	BudgetID     string     `json:"budget_id"`
	UserID       string     `json:"user_id"`
	BudgetIDR    float64    `json:"budget_idr"`
	UsageIDR     float64    `json:"usage_idr"`
	PercentUsed  float64    `json:"percent_used"`
	ThresholdPct float64    `json:"threshold_pct"`
}

// Message is a rendered notification addressed to one recipient.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"-"`
	Text    string `json:"text"`
	Alert   *Alert `json:"alert,omitempty"`
}

// Mailer delivers messages to an external system.
type Mailer interface {
	// Name returns the transport identifier.
	Name() string

	// Send delivers a message. Implementations must be safe for concurrent use.
	Send(ctx context.Context, msg Message) error
}
