package alerts

import (
	"context"
	"fmt"
	"log/slog"
)

// Dispatcher delivers a message through a primary mailer and, once that
// succeeds, copies it to best-effort mirrors.
type Dispatcher struct {
	primary Mailer
	mirrors []Mailer
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher. primary must not be nil.
func NewDispatcher(primary Mailer, mirrors []Mailer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		primary: primary,
		mirrors: mirrors,
		logger:  logger,
	}
}

// Send returns the primary mailer's error; mirror failures are only logged.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	if err := d.primary.Send(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", d.primary.Name(), err)
	}

	for _, m := range d.mirrors {
		if err := m.Send(ctx, msg); err != nil {
			d.logger.Error("mirror notification failed",
				"notifier", m.Name(),
				"subject", msg.Subject,
				"error", err,
			)
		}
	}
	return nil
}
