package repository

import (
	"context"

	"flight-dashboard/internal/domain/entity"
)

// FlightSource defines the backend operations the dashboard consumes
type FlightSource interface {
	FetchFlights(ctx context.Context) ([]entity.FlightRecord, error)
	FetchPassengers(ctx context.Context, flightID string) ([]entity.PassengerRecord, error)
	RefreshCache(ctx context.Context) error
}
