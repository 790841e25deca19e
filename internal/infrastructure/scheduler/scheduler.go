package scheduler

import (
	"context"
	"errors"
	"fmt"

	"flight-dashboard/internal/domain/entity"
	"flight-dashboard/internal/usecase"
	"flight-dashboard/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Runner starts one refresh run
type Runner interface {
	Run(ctx context.Context, origin string) (*entity.RefreshRun, error)
}

// Scheduler triggers refresh runs on a cron schedule with a seconds field
type Scheduler struct {
	spec   string
	runner Runner
	logger logger.Logger
	cron   *cron.Cron
}

// New creates a scheduler for spec, e.g. "0 */5 * * * *"
func New(spec string, runner Runner, log logger.Logger) *Scheduler {
	cl := cronLogger{log: log}
	return &Scheduler{
		spec:   spec,
		runner: runner,
		logger: log,
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
	}
}

// Start registers the refresh job and blocks until ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("Scheduled refresh failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job %q: %w", s.spec, err)
	}

	s.logger.Info("Refresh scheduler started", "schedule", s.spec)
	s.cron.Start()

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("Refresh scheduler stopped")
	return ctx.Err()
}

// RunOnce starts a scheduled run. A run already in progress is skipped.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	run, err := s.runner.Run(ctx, entity.OriginScheduled)
	if errors.Is(err, usecase.ErrRefreshInProgress) {
		s.logger.Info("Skipping scheduled refresh, a run is in progress")
		return nil
	}
	if err != nil {
		return fmt.Errorf("scheduled refresh: %w", err)
	}
	if run.Status == entity.RunFailed {
		return fmt.Errorf("scheduled refresh %s failed: %s", run.ID, run.ErrorDetail)
	}
	return nil
}

// cronLogger adapts the dashboard logger to cron.Logger
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
