// Package metrics exposes Prometheus collectors for budget evaluation,
// alert dispatch and scheduled jobs. A nil *Metrics is valid and records
// nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the Prometheus collectors used across the service.
type Metrics struct {
	registry *prometheus.Registry

	aggregationDegraded *prometheus.CounterVec
	budgetUsage         *prometheus.GaugeVec
	alertsSent          *prometheus.CounterVec
	alertFailures       *prometheus.CounterVec
	alertsThrottled     *prometheus.CounterVec
	jobRuns             *prometheus.CounterVec
	jobDuration         *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		aggregationDegraded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wattsense_aggregation_degraded_total",
				Help: "Sensor series reads that failed and were counted as zero",
			},
			[]string{"series"},
		),

		budgetUsage: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wattsense_budget_usage_percent",
				Help: "Last evaluated budget usage as a percentage of the budget amount",
			},
			[]string{"budget"},
		),

		alertsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wattsense_budget_alerts_sent_total",
				Help: "Budget warning notifications delivered",
			},
			[]string{"trigger"},
		),

		alertFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wattsense_budget_alert_failures_total",
				Help: "Budget warning notifications that failed to send",
			},
			[]string{"trigger"},
		),

		alertsThrottled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wattsense_budget_alerts_throttled_total",
				Help: "Budget warnings suppressed by the throttle window",
			},
			[]string{"trigger"},
		),

		jobRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wattsense_job_runs_total",
				Help: "Scheduled job executions",
			},
			[]string{"job", "result"},
		),

		jobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wattsense_job_duration_seconds",
				Help:    "Duration of scheduled job executions",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"job"},
		),
	}
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns an HTTP handler serving the exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordDegraded records a series read that fell back to zero.
func (m *Metrics) RecordDegraded(series string) {
	if m == nil {
		return
	}
	m.aggregationDegraded.WithLabelValues(series).Inc()
}

// RecordBudgetUsage records the percent used of a budget.
func (m *Metrics) RecordBudgetUsage(budgetID string, percent float64) {
	if m == nil {
		return
	}
	m.budgetUsage.WithLabelValues(budgetID).Set(percent)
}

// RecordAlert records the outcome of a budget warning dispatch.
func (m *Metrics) RecordAlert(trigger string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.alertFailures.WithLabelValues(trigger).Inc()
		return
	}
	m.alertsSent.WithLabelValues(trigger).Inc()
}

// RecordThrottled records a warning suppressed by the throttle.
func (m *Metrics) RecordThrottled(trigger string) {
	if m == nil {
		return
	}
	m.alertsThrottled.WithLabelValues(trigger).Inc()
}

// RecordJob records a scheduled job execution.
func (m *Metrics) RecordJob(job string, seconds float64, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
	m.jobDuration.WithLabelValues(job).Observe(seconds)
}
