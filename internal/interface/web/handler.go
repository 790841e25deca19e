package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"flight-dashboard/internal/domain/entity"
	"flight-dashboard/internal/domain/repository"
	"flight-dashboard/internal/interface/view"
	"flight-dashboard/internal/usecase"
	"flight-dashboard/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// Handler serves the dashboard pages and its JSON API
type Handler struct {
	doc          *view.Document
	dashboard    *usecase.DashboardService
	orchestrator *usecase.RefreshOrchestrator
	chart        *view.ChartView
	mapView      *view.MapView
	runs         repository.RefreshRunRepository
	logger       logger.Logger
	version      string

	// runs started over HTTP outlive the request
	baseCtx context.Context
	wg      sync.WaitGroup
}

// Deps are the collaborators of the handler
type Deps struct {
	Document     *view.Document
	Dashboard    *usecase.DashboardService
	Orchestrator *usecase.RefreshOrchestrator
	Chart        *view.ChartView
	Map          *view.MapView
	Runs         repository.RefreshRunRepository
	Logger       logger.Logger
	Version      string
}

// NewHandler creates a handler. Background refresh runs use ctx and stop
// when it is cancelled.
func NewHandler(ctx context.Context, deps Deps) *Handler {
	return &Handler{
		doc:          deps.Document,
		dashboard:    deps.Dashboard,
		orchestrator: deps.Orchestrator,
		chart:        deps.Chart,
		mapView:      deps.Map,
		runs:         deps.Runs,
		logger:       deps.Logger,
		version:      deps.Version,
		baseCtx:      ctx,
	}
}

// Wait blocks until background refresh runs have finished
func (h *Handler) Wait() {
	h.wg.Wait()
}

type stateResponse struct {
	Document   view.DocumentState      `json:"document"`
	Progress   usecase.ProgressSnapshot `json:"progress"`
	Flights    int                      `json:"flights"`
	SelectedID string                   `json:"selectedId,omitempty"`
	LoadedAt   *time.Time               `json:"loadedAt,omitempty"`
}

type flightsResponse struct {
	Count   int                   `json:"count"`
	Flights []entity.FlightRecord `json:"flights"`
}

func (h *Handler) dashboardPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(dashboardHTML))
}

func (h *Handler) schedulesPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(schedulesHTML))
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

func (h *Handler) state(c *gin.Context) {
	resp := stateResponse{
		Document:   h.doc.Snapshot(),
		Progress:   h.orchestrator.Progress().Snapshot(),
		Flights:    len(h.dashboard.Flights()),
		SelectedID: h.dashboard.SelectedID(),
	}
	if loaded := h.dashboard.LoadedAt(); !loaded.IsZero() {
		resp.LoadedAt = &loaded
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) fragment(c *gin.Context) {
	f, err := h.doc.Fragment(c.Param("id"))
	if err != nil {
		h.abort(c, err)
		return
	}
	if c.Query("format") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(f.HTML))
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) chartSVG(c *gin.Context) {
	inst, err := h.chart.Current()
	if err != nil {
		h.abort(c, err)
		return
	}
	svg, err := inst.SVG()
	if err != nil {
		h.abort(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml", svg)
}

func (h *Handler) mapState(c *gin.Context) {
	c.JSON(http.StatusOK, h.mapView.State())
}

// refresh starts a manual run in the background. With wait=true it runs in
// the request and returns the finished run.
func (h *Handler) refresh(c *gin.Context) {
	if c.Query("wait") == "true" {
		run, err := h.orchestrator.Run(c.Request.Context(), entity.OriginManual)
		if err != nil {
			h.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, run)
		return
	}

	if h.doc.Snapshot().Disabled[view.ElementRefreshDataButton] {
		h.abort(c, usecase.ErrRefreshInProgress)
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if _, err := h.orchestrator.Run(h.baseCtx, entity.OriginManual); err != nil {
			h.logger.Warn("Manual refresh not started", "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func (h *Handler) search(c *gin.Context) {
	flights, err := h.dashboard.Search(c.Query("q"))
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, flightsResponse{Count: len(flights), Flights: flights})
}

func (h *Handler) sortByDelay(c *gin.Context) {
	flights, err := h.dashboard.SortByDelay()
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, flightsResponse{Count: len(flights), Flights: flights})
}

func (h *Handler) selectFlight(c *gin.Context) {
	f, err := h.dashboard.SelectFlight(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) refreshRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// abort maps domain errors to HTTP status codes
func (h *Handler) abort(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, view.ErrElementNotFound),
		errors.Is(err, view.ErrNoChart),
		errors.Is(err, usecase.ErrFlightNotFound):
		status = http.StatusNotFound
	case errors.Is(err, usecase.ErrRefreshInProgress):
		status = http.StatusConflict
	default:
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
