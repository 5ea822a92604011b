// Package scheduler runs the recurring budget alert and monthly summary jobs
// on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ogulcanaydogan/wattsense/pkg/metrics"
)

// Job is a named unit of scheduled work.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context, now time.Time) error
}

// Scheduler triggers jobs using standard five-field cron expressions
// evaluated in a fixed location.
type Scheduler struct {
	cron    *cron.Cron
	metrics *metrics.Metrics
	logger  *slog.Logger
	entries map[string]cron.EntryID

	mu      sync.Mutex
	running bool
}

// New creates a scheduler evaluating schedules in loc.
func New(loc *time.Location, m *metrics.Metrics, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		metrics: m,
		logger:  logger.With("component", "scheduler"),
		entries: make(map[string]cron.EntryID),
	}
}

// Add registers a job. An empty schedule disables the job.
func (s *Scheduler) Add(ctx context.Context, job Job) error {
	if job.Schedule == "" {
		s.logger.Info("job schedule not configured, skipping", "job", job.Name)
		return nil
	}
	if _, err := cron.ParseStandard(job.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q for %s: %w", job.Schedule, job.Name, err)
	}

	id, err := s.cron.AddFunc(job.Schedule, func() {
		s.execute(ctx, job)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name, err)
	}

	s.mu.Lock()
	s.entries[job.Name] = id
	s.mu.Unlock()
	return nil
}

// Execute runs job once immediately, recording duration and outcome.
func (s *Scheduler) Execute(ctx context.Context, job Job) error {
	return s.execute(ctx, job)
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	start := time.Now()
	s.logger.Info("job started", "job", job.Name)

	err := job.Run(ctx, start)
	s.metrics.RecordJob(job.Name, time.Since(start).Seconds(), err)
	if err != nil {
		s.logger.Error("job failed", "job", job.Name, "error", err)
		return err
	}
	s.logger.Info("job completed", "job", job.Name, "duration", time.Since(start))
	return nil
}

// Start begins running scheduled jobs. They stop when ctx is cancelled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started", "jobs", len(s.entries))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop stops the scheduler and waits for any running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	done := s.cron.Stop()
	<-done.Done()
	s.running = false
	s.logger.Info("scheduler stopped")
}

// IsRunning reports whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next run time of the named job, or nil if the job is
// unknown or the scheduler has not been started.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	entry := s.cron.Entry(id)
	if entry.Next.IsZero() {
		return nil
	}
	next := entry.Next
	return &next
}
