package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"flight-dashboard/internal/domain/entity"
)

var errBackend = errors.New("backend unavailable")

type fakeSource struct {
	mu           sync.Mutex
	flights      []entity.FlightRecord
	passengers   map[string][]entity.PassengerRecord
	fetchErr     error
	passengerErr error
	refreshErr   error
	refreshGate  chan struct{}
	fetchCalls   int
	refreshCalls int
}

func (s *fakeSource) FetchFlights(ctx context.Context) ([]entity.FlightRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchCalls++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return append([]entity.FlightRecord(nil), s.flights...), nil
}

func (s *fakeSource) FetchPassengers(ctx context.Context, flightID string) ([]entity.PassengerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.passengerErr != nil {
		return nil, s.passengerErr
	}
	return s.passengers[flightID], nil
}

func (s *fakeSource) RefreshCache(ctx context.Context) error {
	s.mu.Lock()
	s.refreshCalls++
	gate := s.refreshGate
	err := s.refreshErr
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (s *fakeSource) setFetchErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr = err
}

type fakeTables struct {
	mu         sync.Mutex
	schedule   []entity.FlightRecord
	topDelays  []entity.FlightRecord
	passengers []entity.PassengerRecord
	renders    int
	err        error
}

func (t *fakeTables) RenderTopDelays(flights []entity.FlightRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.topDelays = flights
	return t.err
}

func (t *fakeTables) RenderSchedule(flights []entity.FlightRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.schedule = flights
	t.renders++
	return t.err
}

func (t *fakeTables) RenderPassengers(passengers []entity.PassengerRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.passengers = passengers
	return t.err
}

type fakeChart struct {
	mu     sync.Mutex
	counts []entity.StatusCounts
	err    error
}

func (c *fakeChart) Render(counts entity.StatusCounts) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = append(c.counts, counts)
	return c.err
}

type fakeMap struct {
	mu          sync.Mutex
	initialized int
	shown       []string
	initErr     error
}

func (m *fakeMap) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized++
	return m.initErr
}

func (m *fakeMap) ShowFlight(f entity.FlightRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !f.HasLiveCoordinates() {
		return nil
	}
	m.shown = append(m.shown, f.ID)
	return nil
}

type fakeOverlay struct {
	mu      sync.Mutex
	visible bool
	shows   int
	hides   int
}

func (o *fakeOverlay) ShowOverlay() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.visible = true
	o.shows++
}

func (o *fakeOverlay) HideOverlay() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.visible = false
	o.hides++
}

func (o *fakeOverlay) isVisible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

type fakeTrigger struct {
	mu       sync.Mutex
	disabled bool
	history  []bool
}

func (t *fakeTrigger) TryDisable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disabled {
		return false
	}
	t.disabled = true
	t.history = append(t.history, true)
	return true
}

func (t *fakeTrigger) Enable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disabled = false
	t.history = append(t.history, false)
}

func (t *fakeTrigger) isDisabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disabled
}

type memRuns struct {
	mu    sync.Mutex
	runs  map[string]entity.RefreshRun
	order []string
	err   error
}

func newMemRuns() *memRuns {
	return &memRuns{runs: make(map[string]entity.RefreshRun)}
}

func (r *memRuns) Save(ctx context.Context, run *entity.RefreshRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if run.ID == "" {
		run.ID = fmt.Sprintf("run-%d", len(r.order)+1)
		r.order = append(r.order, run.ID)
	}
	r.runs[run.ID] = *run
	return nil
}

func (r *memRuns) ListRecent(ctx context.Context, limit int) ([]*entity.RefreshRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.RefreshRun, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		run := r.runs[r.order[i]]
		out = append(out, &run)
	}
	return out, nil
}

func coord(v float64) *float64 {
	return &v
}
