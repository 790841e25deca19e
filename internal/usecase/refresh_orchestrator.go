package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flight-dashboard/internal/domain/entity"
	"flight-dashboard/internal/domain/repository"
	"flight-dashboard/pkg/logger"
	"flight-dashboard/pkg/metrics"
)

// ErrRefreshInProgress is returned when a run is requested while the trigger
// control is disabled by another run
var ErrRefreshInProgress = errors.New("refresh already in progress")

// Progress labels
const (
	LabelStarting         = "Starting refresh…"
	LabelRefreshingCache  = "Refreshing flight data…"
	LabelReloading        = "Reloading schedules…"
	LabelDone             = "Done"
	LabelFailed           = "Refresh failed"
	LabelInitializingMap  = "Initializing map…"
	LabelLoadingFlights   = "Loading flight data…"
	LabelUpdatingCache    = "Updating flight cache…"
	LabelReloadingUpdated = "Reloading updated data…"
	LabelLoadFailed       = "Failed to load data"
)

// RefreshSettings tunes the cosmetic timing of a refresh run
type RefreshSettings struct {
	Tick               time.Duration
	IntermediateTarget float64
	NearFinalTarget    float64
	SettleWait         time.Duration
	FinishDelay        time.Duration
	FailureDelay       time.Duration
}

// Reloader re-renders the dashboard from a fresh fetch
type Reloader interface {
	InitializeMap() error
	Reload(ctx context.Context) (int, error)
}

// RefreshOrchestrator sequences a refresh run: cache refresh on the backend,
// reload of every widget, and the progress overlay around both
type RefreshOrchestrator struct {
	source    repository.FlightSource
	dashboard Reloader
	progress  *ProgressController
	overlay   Overlay
	trigger   TriggerControl
	runs      repository.RefreshRunRepository
	settings  RefreshSettings
	logger    logger.Logger
	metrics   *metrics.Metrics
}

// NewRefreshOrchestrator creates a refresh orchestrator
func NewRefreshOrchestrator(
	source repository.FlightSource,
	dashboard Reloader,
	progress *ProgressController,
	overlay Overlay,
	trigger TriggerControl,
	runs repository.RefreshRunRepository,
	settings RefreshSettings,
	logger logger.Logger,
	m *metrics.Metrics,
) *RefreshOrchestrator {
	return &RefreshOrchestrator{
		source:    source,
		dashboard: dashboard,
		progress:  progress,
		overlay:   overlay,
		trigger:   trigger,
		runs:      runs,
		settings:  settings,
		logger:    logger,
		metrics:   m,
	}
}

// Run executes one refresh run. It returns ErrRefreshInProgress when another
// run holds the trigger. A failing run is not an error: it is logged, shown
// as "Refresh failed" on the progress bar and recorded with status FAILED.
func (o *RefreshOrchestrator) Run(ctx context.Context, origin string) (*entity.RefreshRun, error) {
	if !o.trigger.TryDisable() {
		return nil, ErrRefreshInProgress
	}
	defer o.trigger.Enable()

	run := o.startRun(ctx, origin)
	log := o.logger.With("runID", run.ID, "origin", origin)

	o.overlay.ShowOverlay()
	o.progress.Reset(LabelStarting)

	count, err := o.refresh(ctx, log)
	if err != nil {
		o.fail(ctx, log, run, err, LabelFailed)
		return run, nil
	}

	settled := o.progress.AnimateTo(o.settings.NearFinalTarget, o.settings.Tick)
	select {
	case <-settled:
	case <-time.After(o.settings.SettleWait):
		log.Debug("Near-final animation still running, finishing anyway")
	case <-ctx.Done():
	}

	o.complete(ctx, log, run, count)
	return run, nil
}

// refresh runs the cache refresh while the bar animates toward the
// intermediate target, then reloads the widgets
func (o *RefreshOrchestrator) refresh(ctx context.Context, log logger.Logger) (int, error) {
	o.progress.SetLabel(LabelRefreshingCache)
	o.progress.AnimateTo(o.settings.IntermediateTarget, o.settings.Tick)

	log.Info("Refreshing backend flight cache")
	if err := o.source.RefreshCache(ctx); err != nil {
		return 0, fmt.Errorf("cache refresh failed: %w", err)
	}

	o.progress.SetLabel(LabelReloading)
	count, err := o.dashboard.Reload(ctx)
	if err != nil {
		return 0, fmt.Errorf("reload failed: %w", err)
	}
	return count, nil
}

// Initialize runs the page-load sequence with discrete milestones: map, first
// load, cache refresh, reload. A failed first load is tolerated; a failed cache
// refresh or reload ends the run as failed.
func (o *RefreshOrchestrator) Initialize(ctx context.Context) (*entity.RefreshRun, error) {
	if !o.trigger.TryDisable() {
		return nil, ErrRefreshInProgress
	}
	defer o.trigger.Enable()

	run := o.startRun(ctx, entity.OriginStartup)
	log := o.logger.With("runID", run.ID, "origin", entity.OriginStartup)

	o.overlay.ShowOverlay()

	o.progress.SetImmediate(10, LabelInitializingMap)
	if err := o.dashboard.InitializeMap(); err != nil {
		log.Warn("Map initialization failed", "error", err)
	}

	o.progress.SetImmediate(30, LabelLoadingFlights)
	if _, err := o.dashboard.Reload(ctx); err != nil {
		log.Warn("Initial flight load failed", "error", err)
	}

	o.progress.SetImmediate(60, LabelUpdatingCache)
	if err := o.source.RefreshCache(ctx); err != nil {
		o.fail(ctx, log, run, fmt.Errorf("cache refresh failed: %w", err), LabelLoadFailed)
		return run, nil
	}

	o.progress.SetImmediate(80, LabelReloadingUpdated)
	count, err := o.dashboard.Reload(ctx)
	if err != nil {
		o.fail(ctx, log, run, fmt.Errorf("reload failed: %w", err), LabelLoadFailed)
		return run, nil
	}

	o.complete(ctx, log, run, count)
	return run, nil
}

// Progress exposes the progress controller
func (o *RefreshOrchestrator) Progress() *ProgressController {
	return o.progress
}

func (o *RefreshOrchestrator) complete(ctx context.Context, log logger.Logger, run *entity.RefreshRun, count int) {
	o.progress.SetImmediate(100, LabelDone)
	sleep(ctx, o.settings.FinishDelay)
	o.overlay.HideOverlay()

	run.Status = entity.RunCompleted
	run.FlightCount = count
	o.finishRun(ctx, run)
	log.Info("Refresh completed", "flights", count, "duration", run.Duration())
}

func (o *RefreshOrchestrator) fail(ctx context.Context, log logger.Logger, run *entity.RefreshRun, err error, label string) {
	log.Error("Refresh failed", "error", err)

	o.progress.SetImmediate(100, label)
	sleep(ctx, o.settings.FailureDelay)
	o.overlay.HideOverlay()

	run.Status = entity.RunFailed
	run.ErrorDetail = err.Error()
	o.finishRun(ctx, run)
}

func (o *RefreshOrchestrator) startRun(ctx context.Context, origin string) *entity.RefreshRun {
	run := &entity.RefreshRun{
		Origin:    origin,
		Status:    entity.RunRunning,
		StartedAt: time.Now(),
	}
	if err := o.runs.Save(ctx, run); err != nil {
		o.logger.Error("Failed to record refresh run", "origin", origin, "error", err)
	}
	return run
}

func (o *RefreshOrchestrator) finishRun(ctx context.Context, run *entity.RefreshRun) {
	run.FinishedAt = time.Now()

	// the run's own context may already be cancelled at shutdown
	saveCtx := context.WithoutCancel(ctx)
	if err := o.runs.Save(saveCtx, run); err != nil {
		o.logger.Error("Failed to record refresh run", "runID", run.ID, "error", err)
	}

	if o.metrics != nil {
		outcome := "completed"
		if run.Status == entity.RunFailed {
			outcome = "failed"
		}
		o.metrics.RefreshRuns.WithLabelValues(run.Origin, outcome).Inc()
		o.metrics.RefreshDuration.Observe(run.Duration().Seconds())
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
