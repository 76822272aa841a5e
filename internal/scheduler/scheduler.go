// Package scheduler re-runs the station jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climate-station-etl/internal/config"
	"github.com/couchcryptid/climate-station-etl/internal/observability"
	"github.com/go-co-op/gocron"
)

// JobRunner runs a batch of station jobs.
type JobRunner interface {
	RunAll(ctx context.Context, jobs []config.Job) error
}

// Scheduler triggers JobRunner.RunAll on a cron expression. Passes never
// overlap: a tick that arrives while a pass is still running is skipped.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    JobRunner
	jobs      []config.Job
	logger    *slog.Logger
	metrics   *observability.Metrics

	ctx     context.Context
	running atomic.Bool

	mu       sync.Mutex
	stopped  bool
	inFlight sync.WaitGroup
}

// New creates a Scheduler. Cron expressions are evaluated in UTC.
func New(runner JobRunner, jobs []config.Job, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		jobs:      jobs,
		logger:    logger,
		metrics:   metrics,
		ctx:       context.Background(),
	}
}

// Start schedules the jobs on expr and starts the scheduler in the
// background. ctx bounds every pass.
func (s *Scheduler) Start(ctx context.Context, expr string) error {
	s.ctx = ctx
	_, err := s.scheduler.Cron(expr).SingletonMode().Do(func() { s.RunNow() })
	if err != nil {
		return fmt.Errorf("schedule %q: %w", expr, err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "cron", expr, "jobs", len(s.jobs))
	return nil
}

// RunNow performs one pass over every job. It reports false when another
// pass was already in progress or the scheduler has been stopped.
func (s *Scheduler) RunNow() bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.inFlight.Add(1)
	s.mu.Unlock()
	defer s.inFlight.Done()

	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous pass still running, skipping")
		return false
	}
	defer s.running.Store(false)

	s.metrics.SchedulerRunning.Set(1)
	defer s.metrics.SchedulerRunning.Set(0)

	start := clock.Now()
	if err := s.runner.RunAll(s.ctx, s.jobs); err != nil {
		s.logger.Error("scheduled pass finished with failures", "error", err, "duration", clock.Since(start))
		return true
	}
	s.logger.Info("scheduled pass complete", "jobs", len(s.jobs), "duration", clock.Since(start))
	return true
}

// Stop cancels future passes and waits for a running one to return, or for
// ctx to end. A running pass is not interrupted; cancel the Start context
// for that.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.scheduler.Stop()

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inFlight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for running pass: %w", ctx.Err())
	}
}
