package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ogulcanaydogan/wattsense/internal/auth"
	"github.com/ogulcanaydogan/wattsense/pkg/budget"
	"github.com/ogulcanaydogan/wattsense/pkg/metrics"
	"github.com/ogulcanaydogan/wattsense/pkg/model"
	"github.com/ogulcanaydogan/wattsense/pkg/summary"
)

const (
	requestTimeout = 10 * time.Second

	defaultReadingsLimit = 200
	maxReadingsLimit     = 1000
)

// Job names shared with the scheduler.
const (
	JobBudgetAlerts   = "budget-alerts"
	JobMonthlySummary = "monthly-summary"
)

// ReadingSource provides the latest sensor readings.
type ReadingSource interface {
	LatestReadings(ctx context.Context, series model.Series, limit int) ([]model.Reading, error)
}

// SweepRunner runs the budget alert sweep.
type SweepRunner interface {
	Run(ctx context.Context, now time.Time) (*budget.Report, error)
}

// SummaryRunner runs the monthly summary job.
type SummaryRunner interface {
	Run(ctx context.Context, now time.Time) (*summary.Report, error)
}

// Options wires the server's collaborators.
type Options struct {
	Budgets  *budget.Service
	Sweep    SweepRunner
	Summary  SummaryRunner
	Readings ReadingSource
	Tokens   *auth.Tokens
	Admins   []string
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Server provides the budget, readings and job trigger API.
type Server struct {
	opts   Options
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer creates an API server.
func NewServer(opts Options) *Server {
	s := &Server{
		opts:   opts,
		mux:    http.NewServeMux(),
		logger: opts.Logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	protect := s.opts.Tokens.Middleware
	admin := func(h http.HandlerFunc) http.Handler {
		return protect(auth.RequireSubjects(s.opts.Admins)(h))
	}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", s.opts.Metrics.Handler())

	s.mux.Handle("GET /api/budget/status", protect(http.HandlerFunc(s.handleStatus)))
	s.mux.Handle("GET /api/v1/budget", protect(http.HandlerFunc(s.handleGetBudget)))
	s.mux.Handle("PUT /api/v1/budget", protect(http.HandlerFunc(s.handlePutBudget)))
	s.mux.Handle("GET /api/v1/readings", protect(http.HandlerFunc(s.handleReadings)))
	s.mux.Handle("POST /api/v1/jobs/budget-alerts", admin(s.handleSweep))
	s.mux.Handle("POST /api/v1/jobs/monthly-summary", admin(s.handleSummary))
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	writeJSON(w, http.StatusOK, s.opts.Budgets.Status(ctx, auth.IdentityFrom(ctx)))
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	view, err := s.opts.Budgets.Read(ctx, auth.IdentityFrom(ctx))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type putBudgetRequest struct {
	Value     json.Number `json:"value"`
	Unit      string      `json:"unit"`
	StartDate string      `json:"start_date"`
	EndDate   string      `json:"end_date"`
}

type putBudgetResponse struct {
	*budget.WriteResult
	AlertError string `json:"alert_error,omitempty"`
}

func (s *Server) handlePutBudget(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req putBudgetRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	res, err := s.opts.Budgets.Write(ctx, auth.IdentityFrom(ctx), budget.Input{
		Value: req.Value.String(),
		Unit:  budget.Unit(req.Unit),
		Start: req.StartDate,
		End:   req.EndDate,
	})
	if err != nil && errors.Is(err, budget.ErrNotificationFailed) && res != nil {
		writeJSON(w, http.StatusOK, putBudgetResponse{WriteResult: res, AlertError: err.Error()})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, putBudgetResponse{WriteResult: res})
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	limit := defaultReadingsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = min(n, maxReadingsLimit)
	}

	out := make(map[model.Series][]model.Reading, len(model.AllSeries))
	for _, series := range model.AllSeries {
		readings, err := s.opts.Readings.LatestReadings(ctx, series, limit)
		if err != nil {
			s.logger.Warn("readings unavailable", "series", string(series), "error", err)
			readings = []model.Reading{}
		}
		out[series] = readings
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	report, err := s.opts.Sweep.Run(r.Context(), start)
	s.opts.Metrics.RecordJob(JobBudgetAlerts, time.Since(start).Seconds(), err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	report, err := s.opts.Summary.Run(r.Context(), start)
	s.opts.Metrics.RecordJob(JobMonthlySummary, time.Since(start).Seconds(), err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case budget.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, budget.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, budget.ErrOwnerNotFound):
		status = http.StatusNotFound
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
		msg = "internal error"
	} else {
		s.logger.Debug("request rejected", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
