package budget

import (
	"context"
	"math"

	"github.com/ogulcanaydogan/wattsense/pkg/model"
	"github.com/ogulcanaydogan/wattsense/pkg/usage"
)

// Aggregator is the usage source for evaluation.
type Aggregator interface {
	Aggregate(ctx context.Context, window model.Window, metric model.Metric) usage.Sum
}

// Evaluation is the derived state of one budget at one point in time.
type Evaluation struct {
	PercentUsed  float64 `json:"percent_used"`
	Usage        float64 `json:"usage"`
	BudgetAmount float64 `json:"budget_amount"`
	Degraded     bool    `json:"degraded,omitempty"`
}

// Evaluator computes budget usage over the budget's window.
type Evaluator struct {
	agg Aggregator
}

// NewEvaluator creates an evaluator.
func NewEvaluator(agg Aggregator) *Evaluator {
	return &Evaluator{agg: agg}
}

// Evaluate aggregates price over b's window and relates it to b's amount.
func (e *Evaluator) Evaluate(ctx context.Context, b *model.Budget) Evaluation {
	sum := e.agg.Aggregate(ctx, b.Window(), model.MetricPrice)
	amount := b.AmountIDR()
	return Evaluation{
		PercentUsed:  PercentUsed(sum.Total, amount),
		Usage:        sum.Total,
		BudgetAmount: amount,
		Degraded:     sum.IsDegraded(),
	}
}

// PercentUsed returns usage as a percentage of amount. A non-positive or
// non-finite amount yields 0.
func PercentUsed(used, amount float64) float64 {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	pct := used / amount * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0
	}
	return pct
}
