package view

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"flight-dashboard/internal/domain/entity"
)

// ChartTitle is the title of the status chart
const ChartTitle = "Flight Status Distribution (Latest Flights)"

const (
	donutWidth  = 480
	donutHeight = 480
)

// StatusSlice is one segment of the status chart
type StatusSlice struct {
	Label string
	Count int
	Color drawing.Color
}

// StatusSlices lists the chart segments in display order
func StatusSlices(counts entity.StatusCounts) []StatusSlice {
	return []StatusSlice{
		{Label: "On Time", Count: counts.OnTime, Color: drawing.Color{R: 128, G: 255, B: 99, A: 255}},
		{Label: "Delayed", Count: counts.Delayed, Color: drawing.Color{R: 235, G: 217, B: 54, A: 255}},
		{Label: "Cancelled", Count: counts.Cancelled, Color: drawing.Color{R: 255, G: 86, B: 86, A: 255}},
		{Label: "Diverted", Count: counts.Diverted, Color: drawing.Color{R: 98, G: 79, B: 242, A: 255}},
	}
}

// renderStatusDonut draws the distribution as an SVG doughnut. Empty
// segments are left out; the caller handles an all-zero distribution.
func renderStatusDonut(counts entity.StatusCounts) ([]byte, error) {
	values := make([]chart.Value, 0, 4)
	for _, s := range StatusSlices(counts) {
		if s.Count == 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: float64(s.Count),
			Label: fmt.Sprintf("%s (%d)", s.Label, s.Count),
			Style: chart.Style{
				FillColor:   s.Color,
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 2,
			},
		})
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no flights to chart")
	}

	donut := chart.DonutChart{
		Title:  ChartTitle,
		Width:  donutWidth,
		Height: donutHeight,
		Values: values,
	}

	var buf bytes.Buffer
	if err := donut.Render(chart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render status chart: %w", err)
	}
	return buf.Bytes(), nil
}
