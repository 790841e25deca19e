package view

import (
	"errors"
	"fmt"
	"html/template"
	"sync"
	"time"

	"flight-dashboard/internal/domain/entity"
	"flight-dashboard/pkg/logger"
)

// ErrNoChart is returned when there is no live chart instance
var ErrNoChart = errors.New("no chart instance")

// ChartInstance is one rendered status chart. A destroyed instance no
// longer serves its SVG.
type ChartInstance struct {
	ID        uint64
	Counts    entity.StatusCounts
	CreatedAt time.Time

	mu        sync.Mutex
	svg       []byte
	destroyed bool
}

// Empty reports whether the instance was built for an all-zero distribution
func (c *ChartInstance) Empty() bool {
	return c.Counts.Total() == 0
}

// SVG returns the rendered chart
func (c *ChartInstance) SVG() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return nil, ErrNoChart
	}
	if len(c.svg) == 0 {
		return nil, fmt.Errorf("chart %d has no data: %w", c.ID, ErrNoChart)
	}
	return c.svg, nil
}

// Destroy releases the rendered chart
func (c *ChartInstance) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.destroyed = true
	c.svg = nil
}

// Destroyed reports whether Destroy was called
func (c *ChartInstance) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

// ChartRenderer draws a distribution as SVG
type ChartRenderer func(counts entity.StatusCounts) ([]byte, error)

// ChartView owns the single status chart instance. Every render destroys the
// current instance before building its replacement.
type ChartView struct {
	doc    *Document
	draw   ChartRenderer
	logger logger.Logger

	mu      sync.Mutex
	current *ChartInstance
	nextID  uint64
	live    int
}

// NewChartView creates a chart view drawing doughnuts with go-chart
func NewChartView(doc *Document, logger logger.Logger) *ChartView {
	return NewChartViewWithRenderer(doc, renderStatusDonut, logger)
}

// NewChartViewWithRenderer creates a chart view with a custom renderer
func NewChartViewWithRenderer(doc *Document, draw ChartRenderer, logger logger.Logger) *ChartView {
	return &ChartView{
		doc:    doc,
		draw:   draw,
		logger: logger,
	}
}

// Render replaces the chart with one for counts
func (v *ChartView) Render(counts entity.StatusCounts) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.current != nil {
		v.current.Destroy()
		v.current = nil
		v.live--
	}

	v.nextID++
	inst := &ChartInstance{
		ID:        v.nextID,
		Counts:    counts,
		CreatedAt: time.Now(),
	}

	if !inst.Empty() {
		svg, err := v.draw(counts)
		if err != nil {
			if rerr := v.doc.Replace(ElementFlightStatusChart, chartFailedFragment()); rerr != nil {
				v.logger.Warn("Failed to clear status chart", "error", rerr)
			}
			return fmt.Errorf("failed to build chart: %w", err)
		}
		inst.svg = svg
	}

	v.current = inst
	v.live++
	v.logger.Debug("Status chart rendered", "chartID", inst.ID, "total", counts.Total())

	return v.doc.Replace(ElementFlightStatusChart, chartFragment(inst))
}

// Current returns the live chart instance
func (v *ChartView) Current() (*ChartInstance, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.current == nil {
		return nil, ErrNoChart
	}
	return v.current, nil
}

// LiveInstances is the number of chart instances not yet destroyed
func (v *ChartView) LiveInstances() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.live
}

func chartFragment(inst *ChartInstance) template.HTML {
	if inst.Empty() {
		return template.HTML(fmt.Sprintf(
			`<div class="chart-empty" data-chart-id="%d"><h3>%s</h3><p>No flight data</p></div>`,
			inst.ID, template.HTMLEscapeString(ChartTitle)))
	}
	return template.HTML(fmt.Sprintf(
		`<img src="/api/chart/status.svg?v=%d" alt="%s" data-chart-id="%d">`,
		inst.ID, template.HTMLEscapeString(ChartTitle), inst.ID))
}

func chartFailedFragment() template.HTML {
	return template.HTML(fmt.Sprintf(
		`<div class="chart-empty chart-failed"><h3>%s</h3><p>Chart unavailable</p></div>`,
		template.HTMLEscapeString(ChartTitle)))
}
