package repository

import (
	"context"
	"sync"

	"flight-dashboard/internal/domain/entity"
	"flight-dashboard/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultRunHistory is how many runs the in-memory repository keeps
const DefaultRunHistory = 100

// MemoryRefreshRunRepository keeps the latest refresh runs in memory when no
// MongoDB is configured
type MemoryRefreshRunRepository struct {
	mu       sync.RWMutex
	capacity int
	runs     []entity.RefreshRun
	index    map[string]int
}

// NewMemoryRefreshRunRepository creates a repository holding at most capacity runs
func NewMemoryRefreshRunRepository(capacity int) repository.RefreshRunRepository {
	return newMemoryRefreshRunRepository(capacity)
}

func newMemoryRefreshRunRepository(capacity int) *MemoryRefreshRunRepository {
	if capacity <= 0 {
		capacity = DefaultRunHistory
	}
	return &MemoryRefreshRunRepository{
		capacity: capacity,
		index:    make(map[string]int),
	}
}

// Save inserts a new run or updates an existing one. The oldest run is
// evicted once the repository is full.
func (r *MemoryRefreshRunRepository) Save(ctx context.Context, run *entity.RefreshRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = primitive.NewObjectID().Hex()
	}

	if i, ok := r.index[run.ID]; ok {
		r.runs[i] = *run
		return nil
	}

	if len(r.runs) == r.capacity {
		r.runs = r.runs[1:]
		r.reindex()
	}
	r.runs = append(r.runs, *run)
	r.index[run.ID] = len(r.runs) - 1
	return nil
}

// ListRecent returns the latest runs, newest first
func (r *MemoryRefreshRunRepository) ListRecent(ctx context.Context, limit int) ([]*entity.RefreshRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		return []*entity.RefreshRun{}, nil
	}

	out := make([]*entity.RefreshRun, 0, min(limit, len(r.runs)))
	for i := len(r.runs) - 1; i >= 0 && len(out) < limit; i-- {
		run := r.runs[i]
		out = append(out, &run)
	}
	return out, nil
}

func (r *MemoryRefreshRunRepository) reindex() {
	clear(r.index)
	for i, run := range r.runs {
		r.index[run.ID] = i
	}
}
