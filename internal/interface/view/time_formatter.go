package view

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"flight-dashboard/internal/domain/repository"
	"flight-dashboard/pkg/logger"
)

const (
	scheduleTimeLayout = "2006-01-02 15:04 MST"
	airportLookupLimit = 2 * time.Second
)

// TimeFormatter renders schedule times in the local time of the airport they
// belong to. Without an airport repository, or for an airport it does not
// know, times render in UTC. Resolved zones and unknown airports are cached
// per airport code; failed lookups are retried on the next render.
type TimeFormatter struct {
	airports repository.AirportRepository
	logger   logger.Logger

	mu    sync.Mutex
	zones map[string]*time.Location
}

// NewTimeFormatter creates a time formatter; airports may be nil
func NewTimeFormatter(airports repository.AirportRepository, logger logger.Logger) *TimeFormatter {
	return &TimeFormatter{
		airports: airports,
		logger:   logger,
		zones:    make(map[string]*time.Location),
	}
}

// Format returns "N/A" for a zero time
func (f *TimeFormatter) Format(t time.Time, airportCode string) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.In(f.location(airportCode)).Format(scheduleTimeLayout)
}

func (f *TimeFormatter) location(airportCode string) *time.Location {
	code := strings.ToUpper(strings.TrimSpace(airportCode))
	if f.airports == nil || code == "" {
		return time.UTC
	}

	f.mu.Lock()
	loc, ok := f.zones[code]
	f.mu.Unlock()
	if ok {
		return loc
	}

	loc, cacheable := f.lookup(code)
	if cacheable {
		f.mu.Lock()
		f.zones[code] = loc
		f.mu.Unlock()
	}
	return loc
}

// lookup resolves the zone of an airport. cacheable is false when the
// repository failed for a reason other than an unknown airport.
func (f *TimeFormatter) lookup(code string) (loc *time.Location, cacheable bool) {
	ctx, cancel := context.WithTimeout(context.Background(), airportLookupLimit)
	defer cancel()

	airport, err := f.airports.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrAirportNotFound) {
		f.logger.Debug("Airport time zone not found, using UTC", "airport", code)
		return time.UTC, true
	}
	if err != nil {
		f.logger.Warn("Airport time zone lookup failed, using UTC", "airport", code, "error", err)
		return time.UTC, false
	}

	loc, err = time.LoadLocation(airport.TzName)
	if err != nil {
		f.logger.Warn("Invalid airport time zone, using UTC", "airport", code, "tz", airport.TzName, "error", err)
		return time.UTC, true
	}
	return loc, true
}
