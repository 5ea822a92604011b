package budget

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ogulcanaydogan/wattsense/pkg/model"
	"github.com/ogulcanaydogan/wattsense/pkg/storage"
)

// DefaultSweepWorkers bounds concurrent budget processing in a sweep.
const DefaultSweepWorkers = 4

// Failure describes a budget the sweep could not process.
type Failure struct {
	BudgetID string `json:"budget_id"`
	UserID   string `json:"user_id"`
	Error    string `json:"error"`
}

// Report summarises a sweep.
type Report struct {
	Processed int       `json:"processed"`
	Alerted   int       `json:"alerted"`
	Throttled int       `json:"throttled"`
	Skipped   int       `json:"skipped"`
	Failures  []Failure `json:"failures"`
}

// Sweep evaluates every stored budget and sends due warnings.
type Sweep struct {
	store     storage.Storage
	evaluator *Evaluator
	alerter   *Alerter
	workers   int
	logger    *slog.Logger
}

// NewSweep creates a sweep running up to workers budgets at once.
func NewSweep(store storage.Storage, evaluator *Evaluator, alerter *Alerter, workers int, logger *slog.Logger) *Sweep {
	if workers <= 0 {
		workers = DefaultSweepWorkers
	}
	return &Sweep{
		store:     store,
		evaluator: evaluator,
		alerter:   alerter,
		workers:   workers,
		logger:    logger,
	}
}

// Run processes all budgets. Only a failure to list budgets is returned as
// an error; per-budget failures are collected in the report.
func (s *Sweep) Run(ctx context.Context, now time.Time) (*Report, error) {
	budgets, err := s.store.ListBudgetsWithOwner(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	report := &Report{Failures: []Failure{}}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range budgets {
		item := &budgets[i]
		g.Go(func() error {
			outcome, err := s.process(ctx, item, now)

			mu.Lock()
			defer mu.Unlock()
			report.Processed++
			switch outcome {
			case OutcomeSent:
				report.Alerted++
			case OutcomeThrottled:
				report.Throttled++
			case OutcomeNoRecipient:
				report.Skipped++
			}
			if err != nil {
				report.Failures = append(report.Failures, Failure{
					BudgetID: item.ID,
					UserID:   item.UserID,
					Error:    err.Error(),
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("budget sweep finished",
		"processed", report.Processed,
		"alerted", report.Alerted,
		"throttled", report.Throttled,
		"skipped", report.Skipped,
		"failures", len(report.Failures),
	)
	return report, nil
}

func (s *Sweep) process(ctx context.Context, item *model.BudgetWithOwner, now time.Time) (Outcome, error) {
	if item.Owner.Email == "" {
		return OutcomeNoRecipient, nil
	}
	if err := ctx.Err(); err != nil {
		return OutcomeFailed, err
	}
	eval := s.evaluator.Evaluate(ctx, &item.Budget)
	return s.alerter.Process(ctx, &item.Budget, item.Owner, eval, TriggerSweep, now)
}
