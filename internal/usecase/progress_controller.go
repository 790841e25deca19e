package usecase

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"flight-dashboard/pkg/logger"
	"flight-dashboard/pkg/metrics"
)

const (
	progressEaseFactor = 0.08
	progressMinStep    = 0.15
)

// ProgressState is the state of the progress animation
type ProgressState int

const (
	ProgressIdle ProgressState = iota
	ProgressAnimating
	ProgressSettled
)

func (s ProgressState) String() string {
	switch s {
	case ProgressAnimating:
		return "animating"
	case ProgressSettled:
		return "settled"
	default:
		return "idle"
	}
}

// ProgressSnapshot is a point-in-time copy of the progress bar
type ProgressSnapshot struct {
	Percent float64 `json:"percent"`
	Label   string  `json:"label"`
	State   string  `json:"state"`
}

// NextFill advances current one tick toward target. The step is 8% of the
// remaining distance but never less than 0.15 points; the value snaps to
// target once it would reach or pass it.
func NextFill(current, target float64) (next float64, settled bool) {
	if current >= target {
		return target, true
	}
	step := math.Max(progressEaseFactor*(target-current), progressMinStep)
	next = current + step
	if next >= target {
		return target, true
	}
	return next, false
}

type animation struct {
	target  float64
	stop    chan struct{}
	done    chan struct{}
	settled chan struct{}
}

// ProgressController drives the cosmetic progress bar. At most one animation
// timer runs at any time: starting a new animation or setting a value
// directly stops the running timer and waits for it to exit first.
type ProgressController struct {
	sink    ProgressSink
	logger  logger.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	percent float64
	label   string
	state   ProgressState
	anim    *animation

	active atomic.Int32
}

// NewProgressController creates an idle controller at 0%
func NewProgressController(sink ProgressSink, logger logger.Logger, m *metrics.Metrics) *ProgressController {
	return &ProgressController{
		sink:    sink,
		logger:  logger,
		metrics: m,
	}
}

// AnimateTo eases the fill toward target, one step per tick. The returned
// channel is closed once the animation settles or is superseded. A target at
// or below the current fill settles at once without lowering the bar.
func (c *ProgressController) AnimateTo(target float64, tick time.Duration) <-chan struct{} {
	target = clampPercent(target)

	c.mu.Lock()
	prev := c.detachLocked()
	if target <= c.percent {
		c.state = ProgressSettled
		c.mu.Unlock()
		waitStopped(prev)
		return closedChan()
	}

	a := &animation{
		target:  target,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		settled: make(chan struct{}),
	}
	c.anim = a
	c.state = ProgressAnimating
	c.mu.Unlock()

	waitStopped(prev)

	c.active.Add(1)
	go c.run(a, tick)

	return a.settled
}

// SetImmediate stops any animation and sets the fill and label directly
func (c *ProgressController) SetImmediate(percent float64, label string) {
	c.mu.Lock()
	prev := c.detachLocked()
	c.percent = clampPercent(percent)
	c.label = label
	c.state = ProgressSettled
	c.publishLocked()
	c.mu.Unlock()

	waitStopped(prev)
}

// Reset returns the bar to 0% and idle for the start of a new run
func (c *ProgressController) Reset(label string) {
	c.mu.Lock()
	prev := c.detachLocked()
	c.percent = 0
	c.label = label
	c.state = ProgressIdle
	c.publishLocked()
	c.mu.Unlock()

	waitStopped(prev)
}

// SetLabel changes the label and keeps any running animation
func (c *ProgressController) SetLabel(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.label = label
	c.publishLocked()
}

// Stop cancels a running animation and leaves the fill where it is
func (c *ProgressController) Stop() {
	c.mu.Lock()
	prev := c.detachLocked()
	if prev != nil {
		c.state = ProgressSettled
	}
	c.mu.Unlock()

	waitStopped(prev)
}

// Snapshot returns the current fill, label and state
func (c *ProgressController) Snapshot() ProgressSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return ProgressSnapshot{
		Percent: c.percent,
		Label:   c.label,
		State:   c.state.String(),
	}
}

// ActiveTimers is the number of animation timers currently running
func (c *ProgressController) ActiveTimers() int {
	return int(c.active.Load())
}

func (c *ProgressController) run(a *animation, tick time.Duration) {
	defer func() {
		c.active.Add(-1)
		close(a.done)
		close(a.settled)
	}()

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			if c.step(a) {
				return
			}
		}
	}
}

// step applies one tick and reports whether the animation is over
func (c *ProgressController) step(a *animation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	// superseded between the tick firing and acquiring the lock
	if c.anim != a {
		return true
	}

	next, settled := NextFill(c.percent, a.target)
	c.percent = next
	if settled {
		// c.anim stays set until detached so a successor waits for this
		// goroutine to exit before starting its own
		c.state = ProgressSettled
		c.logger.Debug("Progress settled", "percent", next)
	}
	if c.metrics != nil {
		c.metrics.ProgressTicks.Inc()
	}
	c.publishLocked()

	return settled
}

func (c *ProgressController) detachLocked() *animation {
	prev := c.anim
	if prev != nil {
		close(prev.stop)
		c.anim = nil
	}
	return prev
}

func (c *ProgressController) publishLocked() {
	if c.sink != nil {
		c.sink.SetProgress(c.percent, c.label)
	}
}

func waitStopped(a *animation) {
	if a != nil {
		<-a.done
	}
}

func clampPercent(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
