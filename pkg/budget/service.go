// Package budget evaluates energy spend budgets and fires throttled warnings.
package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogulcanaydogan/wattsense/pkg/model"
	"github.com/ogulcanaydogan/wattsense/pkg/storage"
	"github.com/ogulcanaydogan/wattsense/pkg/units"
)

// Unit of a submitted budget value.
type Unit string

const (
	UnitIDR Unit = "idr"
	UnitKWh Unit = "kwh"
)

// Input is a budget submission. Dates are "2006-01-02" or RFC3339; empty
// means unbounded.
type Input struct {
	Value string `json:"value"`
	Unit  Unit   `json:"unit"`
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// View is the read model of a user's budget.
type View struct {
	Budget          *model.Budget `json:"budget"`
	AmountKWh       float64       `json:"amount_kwh"`
	CurrentExpenses float64       `json:"current_expenses"`
	PercentUsed     float64       `json:"percent_used"`
	Level           Level         `json:"level"`
}

// WriteResult is returned by Write.
type WriteResult struct {
	Budget     *model.Budget `json:"budget"`
	Evaluation Evaluation    `json:"evaluation"`
	Alert      Outcome       `json:"alert"`
}

// Status is the side-effect-free summary served to dashboards.
type Status struct {
	PercentUsed   float64    `json:"percentUsed"`
	LastAlertSent *time.Time `json:"lastAlertSent"`
}

// Service implements the budget read, write and status operations for an
// authenticated identity.
type Service struct {
	store     storage.Storage
	evaluator *Evaluator
	alerter   *Alerter
	logger    *slog.Logger
	loc       *time.Location
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLocation sets the zone calendar dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a budget service.
func NewService(store storage.Storage, evaluator *Evaluator, alerter *Alerter, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		evaluator: evaluator,
		alerter:   alerter,
		logger:    logger,
		loc:       time.Local,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) owner(ctx context.Context, identity string) (*model.User, error) {
	if identity == "" {
		return nil, ErrUnauthenticated
	}
	user, err := s.store.FindUserByExternalID(ctx, identity)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrOwnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// Read returns the caller's budget with its current expenses. A caller
// without a budget gets a nil Budget and zero expenses.
func (s *Service) Read(ctx context.Context, identity string) (*View, error) {
	user, err := s.owner(ctx, identity)
	if err != nil {
		return nil, err
	}

	b, err := s.store.FindBudgetByUser(ctx, user.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return &View{Level: LevelOK}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find budget: %w", err)
	}

	eval := s.evaluator.Evaluate(ctx, b)
	return &View{
		Budget:          b,
		AmountKWh:       units.ToEnergy(eval.BudgetAmount),
		CurrentExpenses: eval.Usage,
		PercentUsed:     eval.PercentUsed,
		Level:           s.alerter.Policy().Level(eval.PercentUsed),
	}, nil
}

// Write validates and stores the caller's budget, then re-evaluates it over
// the new window and sends a warning synchronously if one is due. When only
// the warning fails, the saved budget is returned together with an error
// wrapping ErrNotificationFailed.
func (s *Service) Write(ctx context.Context, identity string, in Input) (*WriteResult, error) {
	if identity == "" {
		return nil, ErrUnauthenticated
	}
	amount, err := parseAmount(in.Value, in.Unit)
	if err != nil {
		return nil, err
	}
	start, end, err := s.parseWindow(in.Start, in.End)
	if err != nil {
		return nil, err
	}

	user, err := s.owner(ctx, identity)
	if err != nil {
		return nil, err
	}

	b, err := s.store.UpsertBudget(ctx, &model.Budget{
		UserID:    user.ID,
		Amount:    amount,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return nil, fmt.Errorf("save budget: %w", err)
	}
	s.logger.Info("budget saved",
		"budget", b.ID,
		"user", user.ExternalID,
		"amount", b.Amount.String(),
	)

	eval := s.evaluator.Evaluate(ctx, b)
	res := &WriteResult{Budget: b, Evaluation: eval}
	res.Alert, err = s.alerter.Process(ctx, b, *user, eval, TriggerWrite, s.now())
	return res, err
}

// Status returns percent used and the last alert time. It never fails:
// any error is logged and yields the zero Status.
func (s *Service) Status(ctx context.Context, identity string) Status {
	user, err := s.owner(ctx, identity)
	if err != nil {
		s.logger.Debug("budget status unavailable", "error", err)
		return Status{}
	}
	b, err := s.store.FindBudgetByUser(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("budget status unavailable", "error", err)
		}
		return Status{}
	}
	eval := s.evaluator.Evaluate(ctx, b)
	return Status{
		PercentUsed:   eval.PercentUsed,
		LastAlertSent: b.LastAlertSent,
	}
}

func parseAmount(value string, unit Unit) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	v, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	if !v.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}

	switch Unit(strings.ToLower(string(unit))) {
	case UnitIDR, "":
	case UnitKWh:
		v = v.Mul(decimal.NewFromInt(units.RateIDRPerKWh))
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}

	// Percentages and the storage CHECK work on the float64 value.
	f := v.InexactFloat64()
	if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, value)
	}
	return v, nil
}

func (s *Service) parseWindow(startRaw, endRaw string) (start, end *time.Time, err error) {
	if start, err = s.parseDate(startRaw); err != nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidStartDate, startRaw)
	}
	if end, err = s.parseDate(endRaw); err != nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidEndDate, endRaw)
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, nil, ErrStartAfterEnd
	}
	return start, end, nil
}

// parseDate returns midnight of the given calendar day in the service zone.
func (s *Service) parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, s.loc)
	if err != nil {
		rfc, rfcErr := time.Parse(time.RFC3339, raw)
		if rfcErr != nil {
			return nil, err
		}
		rfc = rfc.In(s.loc)
		t = time.Date(rfc.Year(), rfc.Month(), rfc.Day(), 0, 0, 0, 0, s.loc)
	}
	return &t, nil
}
