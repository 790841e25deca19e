package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	RefreshRuns      *prometheus.CounterVec
	RefreshDuration  prometheus.Histogram
	BackendRequests  *prometheus.CounterVec
	BackendLatency   *prometheus.HistogramVec
	ProgressTicks    prometheus.Counter
	FlightsLoaded    prometheus.Gauge
	RenderErrorCount *prometheus.CounterVec
}

// NewMetrics creates the dashboard metrics and registers them on reg.
// Pass prometheus.DefaultRegisterer in main and a fresh registry in tests.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RefreshRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_runs_total",
			Help:      "The total number of refresh runs by outcome",
		}, []string{"origin", "outcome"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time taken by a refresh run from trigger to overlay dismissal",
			Buckets:   prometheus.DefBuckets,
		}),
		BackendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "The total number of backend requests",
		}, []string{"endpoint", "outcome"}),
		BackendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		ProgressTicks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "progress_ticks_total",
			Help:      "The total number of progress animation ticks",
		}),
		FlightsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "flights_loaded",
			Help:      "Number of flights in the current snapshot",
		}),
		RenderErrorCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "The total number of widget render failures",
		}, []string{"widget"}),
	}
}

// Nop returns metrics registered on a throwaway registry.
func Nop() *Metrics {
	return NewMetrics("test", prometheus.NewRegistry())
}

// RenderError records a failed widget render
func (m *Metrics) RenderError(widget string) {
	m.RenderErrorCount.WithLabelValues(widget).Inc()
}
