package entity

import "time"

// Refresh run origins
const (
	OriginManual    = "manual"
	OriginScheduled = "scheduled"
	OriginStartup   = "startup"
)

// Refresh run status
const (
	RunRunning   = "RUNNING"
	RunCompleted = "COMPLETED"
	RunFailed    = "FAILED"
)

// RefreshRun records one end-to-end refresh, bounded by the trigger control
// being disabled and re-enabled.
type RefreshRun struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Origin      string    `bson:"origin" json:"origin"`
	Status      string    `bson:"status" json:"status"`
	StartedAt   time.Time `bson:"startedAt" json:"startedAt"`
	FinishedAt  time.Time `bson:"finishedAt,omitempty" json:"finishedAt,omitempty"`
	ErrorDetail string    `bson:"errorDetail,omitempty" json:"errorDetail,omitempty"`
	FlightCount int       `bson:"flightCount" json:"flightCount"`
}

// Duration is the wall time of a finished run
func (r RefreshRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
