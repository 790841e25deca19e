package repository

import (
	"context"

	"flight-dashboard/internal/domain/entity"
)

// RefreshRunRepository defines the interface for refresh run history
type RefreshRunRepository interface {
	Save(ctx context.Context, run *entity.RefreshRun) error
	ListRecent(ctx context.Context, limit int) ([]*entity.RefreshRun, error)
}
