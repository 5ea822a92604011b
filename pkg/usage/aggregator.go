// Package usage sums sensor metrics across every monitored series.
package usage

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/ogulcanaydogan/wattsense/pkg/metrics"
	"github.com/ogulcanaydogan/wattsense/pkg/model"
)

var errNonFinite = errors.New("non-finite sum")

// Reader is the storage capability the aggregator needs.
type Reader interface {
	SumMetric(ctx context.Context, series model.Series, metric model.Metric, window model.Window) (float64, error)
}

// Sum is the result of an aggregation. A series whose read failed
// contributes zero to Total and is listed in Degraded.
type Sum struct {
	Total    float64                   `json:"total"`
	BySeries map[model.Series]float64 `json:"by_series"`
	Degraded []model.Series            `json:"degraded,omitempty"`
}

// IsDegraded reports whether any series was counted as zero due to an error.
func (s Sum) IsDegraded() bool {
	return len(s.Degraded) > 0
}

// Aggregator sums a metric over a window across all sensor series.
type Aggregator struct {
	reader  Reader
	series  []model.Series
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewAggregator creates an aggregator over model.AllSeries.
func NewAggregator(reader Reader, m *metrics.Metrics, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		reader:  reader,
		series:  model.AllSeries,
		metrics: m,
		logger:  logger,
	}
}

// Aggregate reads every series concurrently and returns the combined sum.
// It never fails: unreadable series are reported in Sum.Degraded.
func (a *Aggregator) Aggregate(ctx context.Context, window model.Window, metric model.Metric) Sum {
	totals := make([]float64, len(a.series))
	errs := make([]error, len(a.series))

	var g errgroup.Group
	for i, series := range a.series {
		g.Go(func() error {
			totals[i], errs[i] = a.reader.SumMetric(ctx, series, metric, window)
			return nil
		})
	}
	_ = g.Wait()

	sum := Sum{BySeries: make(map[model.Series]float64, len(a.series))}
	for i, series := range a.series {
		v := totals[i]
		if errs[i] == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
			errs[i] = errNonFinite
		}
		if errs[i] != nil {
			a.logger.Warn("sensor series unavailable, counting as zero",
				"series", string(series),
				"metric", string(metric),
				"error", errs[i],
			)
			a.metrics.RecordDegraded(string(series))
			sum.Degraded = append(sum.Degraded, series)
			v = 0
		}
		sum.BySeries[series] = v
		sum.Total += v
	}
	return sum
}

