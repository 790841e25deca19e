package entity

import (
	"strings"
	"time"
)

// Inferred flight statuses
const (
	StatusOnTime    = "on_time"
	StatusDelayed   = "delayed"
	StatusCancelled = "cancelled"
	StatusDiverted  = "diverted"
	StatusUnknown   = "unknown"
)

// FlightRecord is one flight as returned by the backend, with missing fields
// already normalized: zero times when absent, zero delay when absent or null,
// "unknown" status when absent.
type FlightRecord struct {
	ID               string    `json:"id"`
	FlightIATA       string    `json:"flight_iata"`
	DepartureAirport string    `json:"departure_airport"`
	ArrivalAirport   string    `json:"arrival_airport"`
	DepartureTime    time.Time `json:"departure_time"`
	ArrivalTime      time.Time `json:"arrival_time"`
	ArrivalDelay     float64   `json:"arrival_delay"`
	FlightStatus     string    `json:"flight_status"`
	LiveLatitude     *float64  `json:"live_latitude,omitempty"`
	LiveLongitude    *float64  `json:"live_longitude,omitempty"`
}

// HasLiveCoordinates reports whether the flight carries a usable live
// position. A zero coordinate counts as missing.
func (f FlightRecord) HasLiveCoordinates() bool {
	return f.LiveLatitude != nil && f.LiveLongitude != nil &&
		*f.LiveLatitude != 0 && *f.LiveLongitude != 0
}

// InferredStatus folds the raw backend status and the delay into one of the
// five dashboard statuses.
func (f FlightRecord) InferredStatus() string {
	raw := strings.ToLower(strings.TrimSpace(f.FlightStatus))
	switch {
	case raw == StatusCancelled:
		return StatusCancelled
	case raw == StatusDiverted:
		return StatusDiverted
	case f.ArrivalDelay > 0:
		return StatusDelayed
	case raw == "" || raw == StatusUnknown:
		return StatusUnknown
	default:
		return StatusOnTime
	}
}
