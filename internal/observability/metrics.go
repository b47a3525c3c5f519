package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flightmap"

// Metrics holds the Prometheus counters, histograms, and gauges for the map service.
type Metrics struct {
	Uploads            *prometheus.CounterVec // labels: outcome={accepted,rejected}
	RowsParsed         *prometheus.CounterVec // labels: outcome={ok,failed}
	FlightsVisualized  prometheus.Counter
	UnresolvedAirports prometheus.Counter
	RenderDuration     prometheus.Histogram

	// Playback metrics.
	PlaybackRuns    *prometheus.CounterVec // labels: outcome={completed,cancelled}
	PlaybackRunning prometheus.Gauge

	// Session event publishing.
	EventsPublished *prometheus.CounterVec // labels: type, outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Flight CSV uploads by outcome.",
		}, []string{"outcome"}),
		RowsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_parsed_total",
			Help:      "Flight CSV data rows by parse outcome.",
		}, []string{"outcome"}),
		FlightsVisualized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_visualized_total",
			Help:      "Flights whose airports both resolved.",
		}),
		UnresolvedAirports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unresolved_airports_total",
			Help:      "Distinct airport codes per upload missing from the reference data.",
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time to draw the static scene.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		PlaybackRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_runs_total",
			Help:      "Finished playbacks by outcome.",
		}, []string{"outcome"}),
		PlaybackRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "playback_running",
			Help:      "1 while a playback is in progress, 0 otherwise.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Session events handed to the event sink.",
		}, []string{"type", "outcome"}),
	}

	prometheus.MustRegister(
		m.Uploads,
		m.RowsParsed,
		m.FlightsVisualized,
		m.UnresolvedAirports,
		m.RenderDuration,
		m.PlaybackRuns,
		m.PlaybackRunning,
		m.EventsPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Uploads:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "uploads_total"}, []string{"outcome"}),
		RowsParsed:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "rows_parsed_total"}, []string{"outcome"}),
		FlightsVisualized:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "flights_visualized_total"}),
		UnresolvedAirports: prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "unresolved_airports_total"}),
		RenderDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "render_duration_seconds"}),
		PlaybackRuns:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "playback_runs_total"}, []string{"outcome"}),
		PlaybackRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "playback_running"}),
		EventsPublished:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "events_published_total"}, []string{"type", "outcome"}),
	}
}
