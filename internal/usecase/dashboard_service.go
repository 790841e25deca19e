package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"flight-dashboard/internal/domain/entity"
	"flight-dashboard/internal/domain/repository"
	"flight-dashboard/pkg/logger"
	"flight-dashboard/pkg/metrics"
)

// ErrFlightNotFound is returned when a flight id is not in the current snapshot
var ErrFlightNotFound = errors.New("flight not found")

// Widget names used in logs and render error metrics
const (
	widgetSchedule   = "schedule"
	widgetTopDelays  = "top_delays"
	widgetChart      = "chart"
	widgetMap        = "map"
	widgetPassengers = "passengers"
)

// DashboardService holds the current flight snapshot and re-renders the
// dashboard widgets from it
type DashboardService struct {
	source  repository.FlightSource
	tables  TableRenderer
	chart   ChartView
	mapView MapView
	logger  logger.Logger
	metrics *metrics.Metrics
	topN    int

	mu         sync.RWMutex
	flights    []entity.FlightRecord
	selectedID string
	loadedAt   time.Time
}

// NewDashboardService creates a dashboard service
func NewDashboardService(
	source repository.FlightSource,
	tables TableRenderer,
	chart ChartView,
	mapView MapView,
	logger logger.Logger,
	m *metrics.Metrics,
	topN int,
) *DashboardService {
	return &DashboardService{
		source:  source,
		tables:  tables,
		chart:   chart,
		mapView: mapView,
		logger:  logger,
		metrics: m,
		topN:    topN,
	}
}

// InitializeMap resets the map widget to its default view
func (s *DashboardService) InitializeMap() error {
	if err := s.mapView.Initialize(); err != nil {
		s.renderFailed(widgetMap, err)
		return fmt.Errorf("failed to initialize map: %w", err)
	}
	return nil
}

// Reload fetches a fresh snapshot and re-renders every widget from it. Only a
// failed fetch is returned; a widget that fails to render is logged and the
// others still render.
func (s *DashboardService) Reload(ctx context.Context) (int, error) {
	flights, err := s.source.FetchFlights(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load flights: %w", err)
	}

	s.mu.Lock()
	s.flights = flights
	s.loadedAt = time.Now()
	selected := s.selectedID
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.FlightsLoaded.Set(float64(len(flights)))
	}
	s.logger.Info("Flight snapshot loaded", "count", len(flights))

	if err := s.tables.RenderSchedule(flights); err != nil {
		s.renderFailed(widgetSchedule, err)
	}
	if err := s.tables.RenderTopDelays(TopDelayed(flights, s.topN)); err != nil {
		s.renderFailed(widgetTopDelays, err)
	}
	if err := s.chart.Render(StatusDistribution(flights)); err != nil {
		s.renderFailed(widgetChart, err)
	}
	if selected != "" {
		if f, ok := findFlight(flights, selected); ok && f.HasLiveCoordinates() {
			if err := s.mapView.ShowFlight(f); err != nil {
				s.renderFailed(widgetMap, err)
			}
		}
	}

	return len(flights), nil
}

// Search re-renders the schedule table with the flights matching term
func (s *DashboardService) Search(term string) ([]entity.FlightRecord, error) {
	filtered := FilterFlights(s.Flights(), term)
	if err := s.tables.RenderSchedule(filtered); err != nil {
		s.renderFailed(widgetSchedule, err)
		return nil, fmt.Errorf("failed to render search results: %w", err)
	}
	return filtered, nil
}

// SortByDelay re-renders the schedule table ordered by delay, largest first
func (s *DashboardService) SortByDelay() ([]entity.FlightRecord, error) {
	sorted := SortByDelay(s.Flights())
	if err := s.tables.RenderSchedule(sorted); err != nil {
		s.renderFailed(widgetSchedule, err)
		return nil, fmt.Errorf("failed to render sorted flights: %w", err)
	}
	return sorted, nil
}

// SelectFlight marks a flight as selected, shows it on the map and loads its
// passengers. Map and passenger failures are logged independently; only an
// unknown flight id is returned as an error.
func (s *DashboardService) SelectFlight(ctx context.Context, flightID string) (entity.FlightRecord, error) {
	s.mu.Lock()
	f, ok := findFlight(s.flights, flightID)
	if ok {
		s.selectedID = flightID
	}
	s.mu.Unlock()

	if !ok {
		return entity.FlightRecord{}, fmt.Errorf("select %q: %w", flightID, ErrFlightNotFound)
	}

	if err := s.mapView.ShowFlight(f); err != nil {
		s.renderFailed(widgetMap, err)
	}

	passengers, err := s.source.FetchPassengers(ctx, flightID)
	if err != nil {
		s.logger.Error("Failed to load passengers", "flightID", flightID, "error", err)
		if s.metrics != nil {
			s.metrics.RenderError(widgetPassengers)
		}
		return f, nil
	}
	if err := s.tables.RenderPassengers(passengers); err != nil {
		s.renderFailed(widgetPassengers, err)
	}

	return f, nil
}

// Flights returns a copy of the current snapshot
func (s *DashboardService) Flights() []entity.FlightRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.FlightRecord, len(s.flights))
	copy(out, s.flights)
	return out
}

// SelectedID is the id of the selected flight, empty when none
func (s *DashboardService) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedID
}

// LoadedAt is when the current snapshot was fetched
func (s *DashboardService) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

func (s *DashboardService) renderFailed(widget string, err error) {
	s.logger.Error("Failed to render widget", "widget", widget, "error", err)
	if s.metrics != nil {
		s.metrics.RenderError(widget)
	}
}

func findFlight(flights []entity.FlightRecord, id string) (entity.FlightRecord, bool) {
	for _, f := range flights {
		if f.ID == id {
			return f, true
		}
	}
	return entity.FlightRecord{}, false
}
