package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"flight-dashboard/internal/domain/entity"
	"flight-dashboard/internal/domain/repository"
	"flight-dashboard/pkg/logger"
	"flight-dashboard/pkg/metrics"
	"flight-dashboard/pkg/utils"
)

// Endpoint labels used in logs and metrics
const (
	endpointFlights    = "flights"
	endpointPassengers = "passengers"
	endpointCache      = "cache-flights"
)

// ErrFlightNotFound is returned when the backend has no such flight
var ErrFlightNotFound = errors.New("flight not found")

// FlightClient fetches flights and passengers from the flight backend
type FlightClient struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewFlightClient creates a backend client. A zero timeout leaves requests
// unbounded apart from the caller's context.
func NewFlightClient(baseURL string, timeout time.Duration, logger logger.Logger, m *metrics.Metrics) *FlightClient {
	return &FlightClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		metrics: m,
	}
}

var _ repository.FlightSource = (*FlightClient)(nil)

// flightDTO is the wire shape of one flight
type flightDTO struct {
	ID               utils.FlexString `json:"id"`
	FlightIATA       *string          `json:"flight_iata"`
	DepartureAirport *string          `json:"departure_airport"`
	ArrivalAirport   *string          `json:"arrival_airport"`
	DepartureTime    *string          `json:"departure_time"`
	ArrivalTime      *string          `json:"arrival_time"`
	ArrivalDelay     utils.FlexFloat  `json:"arrival_delay"`
	FlightStatus     *string          `json:"flight_status"`
	LiveLatitude     utils.FlexFloat  `json:"live_latitude"`
	LiveLongitude    utils.FlexFloat  `json:"live_longitude"`
}

type passengerDTO struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	CheckedIn *bool   `json:"checked_in"`
}

type envelope[T any] struct {
	Data []T `json:"data"`
}

// FetchFlights calls GET /flights and normalizes every record
func (c *FlightClient) FetchFlights(ctx context.Context) ([]entity.FlightRecord, error) {
	var body envelope[flightDTO]
	if err := c.getJSON(ctx, endpointFlights, "/flights", &body); err != nil {
		return nil, err
	}

	flights := make([]entity.FlightRecord, 0, len(body.Data))
	for _, dto := range body.Data {
		if fields := dto.malformedFields(); len(fields) > 0 {
			c.logger.Warn("Ignoring malformed flight fields", "flightID", string(dto.ID), "fields", fields)
		}
		flights = append(flights, dto.normalize())
	}

	c.logger.Debug("Fetched flights", "count", len(flights))
	return flights, nil
}

// FetchPassengers calls GET /flights/:id/passengers
func (c *FlightClient) FetchPassengers(ctx context.Context, flightID string) ([]entity.PassengerRecord, error) {
	if flightID == "" {
		return nil, fmt.Errorf("fetch passengers: %w", ErrFlightNotFound)
	}

	var body envelope[passengerDTO]
	path := fmt.Sprintf("/flights/%s/passengers", url.PathEscape(flightID))
	if err := c.getJSON(ctx, endpointPassengers, path, &body); err != nil {
		return nil, err
	}

	passengers := make([]entity.PassengerRecord, 0, len(body.Data))
	for _, dto := range body.Data {
		passengers = append(passengers, entity.PassengerRecord{
			FirstName: deref(dto.FirstName),
			LastName:  deref(dto.LastName),
			CheckedIn: dto.CheckedIn != nil && *dto.CheckedIn,
		})
	}
	return passengers, nil
}

// RefreshCache calls POST /cache-flights. Only the status is consumed.
func (c *FlightClient) RefreshCache(ctx context.Context) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cache-flights", nil)
	if err != nil {
		return fmt.Errorf("failed to create cache request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.observe(endpointCache, "error", start)
		return fmt.Errorf("failed to refresh flight cache: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe(endpointCache, "error", start)
		return fmt.Errorf("cache refresh returned status %d", resp.StatusCode)
	}

	c.observe(endpointCache, "ok", start)
	c.logger.Info("Flight cache refreshed", "duration", time.Since(start))
	return nil
}

func (c *FlightClient) getJSON(ctx context.Context, endpoint, path string, out interface{}) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.observe(endpoint, "error", start)
		return fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && endpoint == endpointPassengers {
		c.observe(endpoint, "error", start)
		return fmt.Errorf("fetch %s: %w", endpoint, ErrFlightNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		c.observe(endpoint, "error", start)
		return fmt.Errorf("%s returned status %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.observe(endpoint, "error", start)
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}

	c.observe(endpoint, "ok", start)
	return nil
}

func (c *FlightClient) observe(endpoint, outcome string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.BackendRequests.WithLabelValues(endpoint, outcome).Inc()
	c.metrics.BackendLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (dto flightDTO) normalize() entity.FlightRecord {
	record := entity.FlightRecord{
		ID:               string(dto.ID),
		FlightIATA:       deref(dto.FlightIATA),
		DepartureAirport: deref(dto.DepartureAirport),
		ArrivalAirport:   deref(dto.ArrivalAirport),
		ArrivalDelay:     dto.ArrivalDelay.Or(0),
		FlightStatus:     deref(dto.FlightStatus),
		LiveLatitude:     dto.LiveLatitude.Ptr(),
		LiveLongitude:    dto.LiveLongitude.Ptr(),
	}
	if record.FlightStatus == "" {
		record.FlightStatus = entity.StatusUnknown
	}
	if t, ok := utils.ParseTimestamp(deref(dto.DepartureTime)); ok {
		record.DepartureTime = t
	}
	if t, ok := utils.ParseTimestamp(deref(dto.ArrivalTime)); ok {
		record.ArrivalTime = t
	}
	return record
}

func (dto flightDTO) malformedFields() []string {
	var fields []string
	for name, v := range map[string]utils.FlexFloat{
		"arrival_delay":  dto.ArrivalDelay,
		"live_latitude":  dto.LiveLatitude,
		"live_longitude": dto.LiveLongitude,
	} {
		if v.Malformed() {
			fields = append(fields, name+"="+v.Raw)
		}
	}
	sort.Strings(fields)
	return fields
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
