package repository

import (
	"context"
	"errors"

	"flight-dashboard/internal/domain/entity"
)

// ErrAirportNotFound is returned for an airport code with no time zone row
var ErrAirportNotFound = errors.New("airport not found")

// AirportRepository defines the interface for airport lookups
type AirportRepository interface {
	GetByCode(ctx context.Context, code string) (*entity.Airport, error)
}
