package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flight-dashboard/internal/domain/entity"
	"flight-dashboard/pkg/logger"
	"flight-dashboard/pkg/metrics"
)

type orchestratorFixture struct {
	*dashboardFixture
	sink         *recordingSink
	overlay      *fakeOverlay
	trigger      *fakeTrigger
	runs         *memRuns
	progress     *ProgressController
	orchestrator *RefreshOrchestrator
}

func testRefreshSettings() RefreshSettings {
	return RefreshSettings{
		Tick:               time.Millisecond,
		IntermediateTarget: 70,
		NearFinalTarget:    90,
		SettleWait:         2 * time.Second,
		FinishDelay:        time.Millisecond,
		FailureDelay:       time.Millisecond,
	}
}

func newOrchestratorFixture(flights ...entity.FlightRecord) *orchestratorFixture {
	dash := newDashboardFixture(flights...)
	fx := &orchestratorFixture{
		dashboardFixture: dash,
		sink:             &recordingSink{},
		overlay:          &fakeOverlay{},
		trigger:          &fakeTrigger{},
		runs:             newMemRuns(),
	}
	fx.progress = NewProgressController(fx.sink, logger.NewNopLogger(), dash.metrics)
	fx.orchestrator = NewRefreshOrchestrator(
		dash.source, dash.svc, fx.progress, fx.overlay, fx.trigger, fx.runs,
		testRefreshSettings(), logger.NewNopLogger(), dash.metrics,
	)
	return fx
}

// distinctLabels collapses consecutive repeats
func distinctLabels(labels []string) []string {
	var out []string
	for _, l := range labels {
		if len(out) == 0 || out[len(out)-1] != l {
			out = append(out, l)
		}
	}
	return out
}

func TestRunSuccess(t *testing.T) {
	fx := newOrchestratorFixture(flight("AA1", 45, ""), flight("BB2", 5, ""))

	run, err := fx.orchestrator.Run(context.Background(), entity.OriginManual)
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.Equal(t, entity.RunCompleted, run.Status)
	assert.Equal(t, 2, run.FlightCount)
	assert.False(t, run.FinishedAt.Before(run.StartedAt))

	snap := fx.progress.Snapshot()
	assert.Equal(t, 100.0, snap.Percent)
	assert.Equal(t, LabelDone, snap.Label)
	assert.Zero(t, fx.progress.ActiveTimers())

	assert.False(t, fx.overlay.isVisible())
	assert.Equal(t, 1, fx.overlay.shows)
	assert.False(t, fx.trigger.isDisabled())
	assert.Equal(t, []bool{true, false}, fx.trigger.history)
	assert.Equal(t, 1, fx.source.refreshCalls)

	_, labels := fx.sink.snapshot()
	assert.Equal(t,
		[]string{LabelStarting, LabelRefreshingCache, LabelReloading, LabelDone},
		distinctLabels(labels))

	recent, err := fx.runs.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, entity.RunCompleted, recent[0].Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.RefreshRuns.WithLabelValues(entity.OriginManual, "completed")))
}

func TestRunProgressNeverDecreasesBeforeDone(t *testing.T) {
	fx := newOrchestratorFixture(flight("AA1", 45, ""))

	_, err := fx.orchestrator.Run(context.Background(), entity.OriginManual)
	require.NoError(t, err)

	values, _ := fx.sink.snapshot()
	require.NotEmpty(t, values)
	assert.Equal(t, 0.0, values[0], "run starts from an empty bar")
	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i], values[i-1], "fill went backwards at %d", i)
	}
	assert.Equal(t, 100.0, values[len(values)-1])
}

func TestRunCacheFailure(t *testing.T) {
	fx := newOrchestratorFixture(flight("AA1", 45, ""))
	fx.source.refreshErr = errBackend

	run, err := fx.orchestrator.Run(context.Background(), entity.OriginManual)
	require.NoError(t, err)

	assert.Equal(t, entity.RunFailed, run.Status)
	assert.Contains(t, run.ErrorDetail, errBackend.Error())

	snap := fx.progress.Snapshot()
	assert.Equal(t, 100.0, snap.Percent)
	assert.Equal(t, LabelFailed, snap.Label)
	assert.Zero(t, fx.progress.ActiveTimers())

	assert.False(t, fx.overlay.isVisible(), "overlay hidden after failure")
	assert.False(t, fx.trigger.isDisabled(), "trigger re-enabled after failure")
	assert.Zero(t, fx.source.fetchCalls, "no reload after failed cache refresh")
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.RefreshRuns.WithLabelValues(entity.OriginManual, "failed")))
}

func TestRunReloadFailure(t *testing.T) {
	fx := newOrchestratorFixture()
	fx.source.fetchErr = errBackend

	run, err := fx.orchestrator.Run(context.Background(), entity.OriginScheduled)
	require.NoError(t, err)

	assert.Equal(t, entity.RunFailed, run.Status)
	assert.Equal(t, LabelFailed, fx.progress.Snapshot().Label)
	assert.False(t, fx.trigger.isDisabled())
}

func TestRunRejectsOverlap(t *testing.T) {
	fx := newOrchestratorFixture(flight("AA1", 45, ""))
	gate := make(chan struct{})
	fx.source.refreshGate = gate

	var wg sync.WaitGroup
	wg.Add(1)
	var first *entity.RefreshRun
	go func() {
		defer wg.Done()
		first, _ = fx.orchestrator.Run(context.Background(), entity.OriginManual)
	}()

	require.Eventually(t, fx.trigger.isDisabled, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		return fx.progress.Snapshot().Percent > 0
	}, time.Second, time.Millisecond, "bar animates while the cache refresh is pending")
	assert.LessOrEqual(t, fx.progress.Snapshot().Percent, 70.0)
	assert.True(t, fx.overlay.isVisible())

	_, err := fx.orchestrator.Run(context.Background(), entity.OriginScheduled)
	assert.ErrorIs(t, err, ErrRefreshInProgress)

	close(gate)
	wg.Wait()

	require.NotNil(t, first)
	assert.Equal(t, entity.RunCompleted, first.Status)
	assert.Equal(t, 1, fx.source.refreshCalls)
	assert.LessOrEqual(t, fx.progress.ActiveTimers(), 1)
}

func TestRunCancelledContext(t *testing.T) {
	fx := newOrchestratorFixture(flight("AA1", 45, ""))
	fx.source.refreshGate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := fx.orchestrator.Run(ctx, entity.OriginManual)
	require.NoError(t, err)

	assert.Equal(t, entity.RunFailed, run.Status)
	assert.False(t, fx.trigger.isDisabled())
	assert.False(t, fx.overlay.isVisible())
}

func TestInitializeMilestones(t *testing.T) {
	fx := newOrchestratorFixture(flight("AA1", 45, ""))

	run, err := fx.orchestrator.Initialize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.OriginStartup, run.Origin)
	assert.Equal(t, entity.RunCompleted, run.Status)
	assert.Equal(t, 1, fx.mapView.initialized)
	assert.Equal(t, 2, fx.source.fetchCalls)
	assert.Equal(t, 1, fx.source.refreshCalls)

	values, labels := fx.sink.snapshot()
	assert.Equal(t, []float64{10, 30, 60, 80, 100}, values)
	assert.Equal(t, []string{
		LabelInitializingMap, LabelLoadingFlights, LabelUpdatingCache, LabelReloadingUpdated, LabelDone,
	}, labels)
	assert.False(t, fx.overlay.isVisible())
}

func TestInitializeToleratesFirstLoadFailure(t *testing.T) {
	fx := newOrchestratorFixture(flight("AA1", 45, ""))
	fx.source.fetchErr = errBackend
	fx.source.refreshGate = make(chan struct{})

	done := make(chan *entity.RefreshRun)
	go func() {
		run, _ := fx.orchestrator.Initialize(context.Background())
		done <- run
	}()

	require.Eventually(t, func() bool {
		return fx.progress.Snapshot().Label == LabelUpdatingCache
	}, time.Second, time.Millisecond)
	fx.source.setFetchErr(nil)
	close(fx.source.refreshGate)

	run := <-done
	assert.Equal(t, entity.RunCompleted, run.Status)
	assert.Equal(t, 1, run.FlightCount)
}

func TestInitializeCacheFailure(t *testing.T) {
	fx := newOrchestratorFixture(flight("AA1", 45, ""))
	fx.source.refreshErr = errBackend

	run, err := fx.orchestrator.Initialize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.RunFailed, run.Status)
	snap := fx.progress.Snapshot()
	assert.Equal(t, 100.0, snap.Percent)
	assert.Equal(t, LabelLoadFailed, snap.Label)
	assert.False(t, fx.trigger.isDisabled())
}

func TestRunSurvivesHistoryStoreFailure(t *testing.T) {
	fx := newOrchestratorFixture(flight("AA1", 45, ""))
	fx.runs.err = errBackend

	run, err := fx.orchestrator.Run(context.Background(), entity.OriginManual)
	require.NoError(t, err)
	assert.Equal(t, entity.RunCompleted, run.Status)

	fx.runs.err = nil
	recent, err := fx.runs.ListRecent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestOrchestratorExposesProgress(t *testing.T) {
	fx := newOrchestratorFixture()
	orch := NewRefreshOrchestrator(fx.source, fx.svc, fx.progress, fx.overlay, fx.trigger, fx.runs,
		testRefreshSettings(), logger.NewNopLogger(), metrics.Nop())
	assert.Same(t, fx.progress, orch.Progress())
}
