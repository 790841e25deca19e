package usecase

import (
	"flight-dashboard/internal/domain/entity"
)

// TableRenderer rebuilds the flight and passenger tables wholesale on every call
type TableRenderer interface {
	RenderTopDelays(flights []entity.FlightRecord) error
	RenderSchedule(flights []entity.FlightRecord) error
	RenderPassengers(passengers []entity.PassengerRecord) error
}

// ChartView owns the single status chart instance
type ChartView interface {
	Render(counts entity.StatusCounts) error
}

// MapView owns the map widget and its single flight marker
type MapView interface {
	Initialize() error
	ShowFlight(flight entity.FlightRecord) error
}

// ProgressSink displays the progress fill and label
type ProgressSink interface {
	SetProgress(percent float64, label string)
}

// Overlay is the loading overlay shown during a refresh run
type Overlay interface {
	ShowOverlay()
	HideOverlay()
}

// TriggerControl is the control that starts a refresh run. TryDisable
// reports false when the control is already disabled.
type TriggerControl interface {
	TryDisable() bool
	Enable()
}
