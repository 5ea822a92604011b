package budget

import (
	"time"

	"github.com/ogulcanaydogan/wattsense/pkg/alerts"
)

const (
	// DefaultAlertThresholdPct is the usage percentage at which a warning fires.
	DefaultAlertThresholdPct = 90.0

	// DefaultThrottleWindow is the minimum gap between two warnings for a budget.
	DefaultThrottleWindow = 24 * time.Hour

	warningLevelPct = 75.0
)

// Level buckets usage for display.
type Level string

const (
	LevelOK       Level = "ok"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
	LevelExceeded Level = "exceeded"
)

// Policy holds the alerting rules applied to every budget.
type Policy struct {
	AlertThresholdPct float64
	Throttle          Throttle
}

// DefaultPolicy returns the 90% / 24h policy.
func DefaultPolicy() Policy {
	return Policy{
		AlertThresholdPct: DefaultAlertThresholdPct,
		Throttle:          Throttle{Window: DefaultThrottleWindow},
	}
}

// ShouldAlert reports whether an evaluation crosses the alert threshold.
func (p Policy) ShouldAlert(e Evaluation) bool {
	return e.PercentUsed >= p.AlertThresholdPct
}

// Level buckets percentUsed: warning from 75%, critical from the alert
// threshold, exceeded from 100%.
func (p Policy) Level(percentUsed float64) Level {
	switch {
	case percentUsed >= 100:
		return LevelExceeded
	case percentUsed >= p.AlertThresholdPct:
		return LevelCritical
	case percentUsed >= warningLevelPct:
		return LevelWarning
	default:
		return LevelOK
	}
}

func (l Level) alertLevel() alerts.AlertLevel {
	switch l {
	case LevelExceeded:
		return alerts.AlertExceeded
	case LevelCritical:
		return alerts.AlertCritical
	default:
		return alerts.AlertWarning
	}
}
