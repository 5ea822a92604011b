package budget

import (
	"time"

	"github.com/ogulcanaydogan/wattsense/pkg/model"
)

// Throttle limits warnings to one per budget per rolling window.
type Throttle struct {
	Window time.Duration
}

// ShouldSend is false iff a warning was sent less than Window before now.
func (t Throttle) ShouldSend(b *model.Budget, now time.Time) bool {
	if b.LastAlertSent == nil {
		return true
	}
	return now.Sub(*b.LastAlertSent) >= t.Window
}
