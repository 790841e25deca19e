package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flight-dashboard/internal/domain/entity"
	"flight-dashboard/internal/interface/backend"
	"flight-dashboard/internal/interface/repository"
	"flight-dashboard/internal/interface/view"
	"flight-dashboard/internal/usecase"
	"flight-dashboard/pkg/logger"
	"flight-dashboard/pkg/metrics"
)

const flightsJSON = `{"data":[
	{"id": 1, "flight_iata": "AA1", "departure_airport": "JFK", "arrival_airport": "LHR",
	 "arrival_delay": 45, "flight_status": "active", "live_latitude": 40.6, "live_longitude": -73.8},
	{"id": 2, "flight_iata": "BB2", "departure_airport": "CDG", "arrival_airport": "FRA",
	 "arrival_delay": 5, "flight_status": "scheduled"}
]}`

type testServer struct {
	router       *gin.Engine
	handler      *Handler
	doc          *view.Document
	dashboard    *usecase.DashboardService
	cacheCalls   atomic.Int32
	cacheStatus  atomic.Int32
	cacheRelease chan struct{}
}

func newTestServer(t *testing.T) *testServer {
	return newGatedTestServer(t, nil)
}

// newGatedTestServer holds every cache refresh until release is closed
func newGatedTestServer(t *testing.T, release chan struct{}) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{cacheRelease: release}
	ts.cacheStatus.Store(http.StatusOK)

	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/flights":
			w.Write([]byte(flightsJSON))
		case r.URL.Path == "/flights/1/passengers":
			w.Write([]byte(`{"data":[{"first_name":"Ada","last_name":"Lovelace","checked_in":true}]}`))
		case r.URL.Path == "/cache-flights" && r.Method == http.MethodPost:
			ts.cacheCalls.Add(1)
			if ts.cacheRelease != nil {
				<-ts.cacheRelease
			}
			w.WriteHeader(int(ts.cacheStatus.Load()))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(backendSrv.Close)

	log := logger.NewNopLogger()
	m := metrics.Nop()
	doc := view.NewDocument()
	source := backend.NewFlightClient(backendSrv.URL, 0, log, m)
	tables := view.NewTableRenderer(doc, view.NewTimeFormatter(nil, log))
	chart := view.NewChartViewWithRenderer(doc, func(entity.StatusCounts) ([]byte, error) {
		return []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), nil
	}, log)
	mapView := view.NewMapView(doc, "https://tiles/{z}/{x}/{y}.png", "osm", log)
	dashboard := usecase.NewDashboardService(source, tables, chart, mapView, log, m, 5)
	progress := usecase.NewProgressController(doc, log, m)
	trigger, err := doc.Control(view.ElementRefreshDataButton)
	require.NoError(t, err)
	runs := repository.NewMemoryRefreshRunRepository(10)

	orchestrator := usecase.NewRefreshOrchestrator(source, dashboard, progress, doc, trigger, runs,
		usecase.RefreshSettings{
			Tick:               time.Millisecond,
			IntermediateTarget: 70,
			NearFinalTarget:    90,
			SettleWait:         time.Second,
			FinishDelay:        time.Millisecond,
			FailureDelay:       time.Millisecond,
		}, log, m)

	require.NoError(t, dashboard.InitializeMap())

	ts.doc = doc
	ts.dashboard = dashboard
	ts.handler = NewHandler(context.Background(), Deps{
		Document:     doc,
		Dashboard:    dashboard,
		Orchestrator: orchestrator,
		Chart:        chart,
		Map:          mapView,
		Runs:         runs,
		Logger:       log,
		Version:      "test",
	})
	ts.router = NewRouter(ts.handler, promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{}))
	return ts
}

func (ts *testServer) do(method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestPagesAndHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="majorDelaysTable"`)
	assert.Contains(t, w.Body.String(), `id="flightStatusChart"`)

	w = ts.do(http.MethodGet, "/schedules")
	assert.Equal(t, http.StatusOK, w.Code)
	for _, id := range []string{"timeTable", "passengersContainer", "flightMap", "loadingOverlay",
		"progressFill", "progressText", "refreshDataButton", "flightSearch", "sortDelay"} {
		assert.Contains(t, w.Body.String(), `id="`+id+`"`)
	}

	w = ts.do(http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", decode[map[string]string](t, w)["version"])

	w = ts.do(http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRefreshWaitRendersEverything(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/refresh?wait=true")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	run := decode[entity.RefreshRun](t, w)
	assert.Equal(t, entity.RunCompleted, run.Status)
	assert.Equal(t, 2, run.FlightCount)
	assert.Equal(t, int32(1), ts.cacheCalls.Load())

	w = ts.do(http.MethodGet, "/api/fragments/majorDelaysTable?format=html")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Less(t, strings.Index(body, "AA1"), strings.Index(body, "BB2"), "largest delay first")

	w = ts.do(http.MethodGet, "/api/chart/status.svg")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))

	w = ts.do(http.MethodGet, "/api/state")
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[stateResponse](t, w)
	assert.Equal(t, 2, state.Flights)
	assert.Equal(t, 100.0, state.Document.Progress.Percent)
	assert.Equal(t, usecase.LabelDone, state.Document.Progress.Label)
	assert.False(t, state.Document.OverlayVisible)
	assert.False(t, state.Document.Disabled[view.ElementRefreshDataButton])

	w = ts.do(http.MethodGet, "/api/refresh-runs?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	runs := decode[map[string][]entity.RefreshRun](t, w)["runs"]
	require.Len(t, runs, 1)
	assert.Equal(t, entity.OriginManual, runs[0].Origin)
}

func TestRefreshFailureReportedInState(t *testing.T) {
	ts := newTestServer(t)
	ts.cacheStatus.Store(http.StatusBadGateway)

	w := ts.do(http.MethodPost, "/api/refresh?wait=true")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entity.RunFailed, decode[entity.RefreshRun](t, w).Status)

	state := decode[stateResponse](t, ts.do(http.MethodGet, "/api/state"))
	assert.Equal(t, usecase.LabelFailed, state.Document.Progress.Label)
	assert.False(t, state.Document.OverlayVisible)
	assert.False(t, state.Document.Disabled[view.ElementRefreshDataButton])
}

func TestRefreshConflictWhileRunning(t *testing.T) {
	release := make(chan struct{})
	ts := newGatedTestServer(t, release)

	w := ts.do(http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusAccepted, w.Code)

	require.Eventually(t, func() bool {
		return ts.doc.Snapshot().Disabled[view.ElementRefreshDataButton]
	}, time.Second, time.Millisecond)

	w = ts.do(http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(http.MethodPost, "/api/refresh?wait=true")
	assert.Equal(t, http.StatusConflict, w.Code)

	close(release)
	ts.handler.Wait()

	assert.Equal(t, int32(1), ts.cacheCalls.Load())
	assert.False(t, ts.doc.Snapshot().Disabled[view.ElementRefreshDataButton])
}

func TestSearchSortAndSelect(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.dashboard.Reload(context.Background())
	require.NoError(t, err)

	w := ts.do(http.MethodGet, "/api/search?q=cdg")
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[flightsResponse](t, w)
	require.Equal(t, 1, found.Count)
	assert.Equal(t, "BB2", found.Flights[0].FlightIATA)

	frag := ts.do(http.MethodGet, "/api/fragments/timeTable?format=html").Body.String()
	assert.Contains(t, frag, "BB2")
	assert.NotContains(t, frag, "AA1")

	w = ts.do(http.MethodPost, "/api/sort/delay")
	require.Equal(t, http.StatusOK, w.Code)
	sorted := decode[flightsResponse](t, w)
	assert.Equal(t, "AA1", sorted.Flights[0].FlightIATA)

	w = ts.do(http.MethodPost, "/api/flights/1/select")
	require.Equal(t, http.StatusOK, w.Code)

	frag = ts.do(http.MethodGet, "/api/fragments/passengersContainer?format=html").Body.String()
	assert.Contains(t, frag, "Ada Lovelace")

	w = ts.do(http.MethodGet, "/api/map")
	mapState := decode[view.MapState](t, w)
	require.NotNil(t, mapState.Marker)
	assert.Equal(t, "1", mapState.Marker.FlightID)
	assert.Equal(t, view.FlightMapZoom, mapState.Zoom)

	w = ts.do(http.MethodPost, "/api/flights/999/select")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotFoundAndBadRequests(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/fragments/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "element not found")

	w = ts.do(http.MethodGet, "/api/chart/status.svg")
	assert.Equal(t, http.StatusNotFound, w.Code, "no chart before the first load")

	w = ts.do(http.MethodGet, "/api/refresh-runs?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
