package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the relay.
type Metrics struct {
	RequestTotal        *prometheus.CounterVec
	RequestDurationMs   *prometheus.HistogramVec
	UpstreamDurationMs  *prometheus.HistogramVec
	UpstreamErrorsTotal *prometheus.CounterVec
	ExtractFieldTotal   *prometheus.CounterVec
	InFlight            prometheus.Gauge
}

// NewMetrics creates the relay metrics and registers them with reg. A nil reg
// registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_request_total",
			Help: "Total number of requests answered by the relay.",
		}, []string{"route", "status", "kind"}),

		RequestDurationMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relay_request_duration_ms",
			Help:    "Total request duration in milliseconds (including upstream latency).",
			Buckets: []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"route"}),

		UpstreamDurationMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relay_upstream_duration_ms",
			Help:    "Duration of the upstream call in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"route", "outcome"}),

		UpstreamErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_upstream_errors_total",
			Help: "Upstream failures by error kind.",
		}, []string{"route", "kind"}),

		ExtractFieldTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_extract_field_total",
			Help: "Which upstream response field the generated text was taken from.",
		}, []string{"field"}),

		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_in_flight",
			Help: "In-flight HTTP requests.",
		}),
	}
}

// RequestLabels holds the label values for recording a request.
type RequestLabels struct {
	Route      string
	Status     string
	Kind       string
	DurationMs float64
}

// RecordRequest records metrics for a completed request.
func (m *Metrics) RecordRequest(labels RequestLabels) {
	kind := labels.Kind
	if kind == "" {
		kind = "none"
	}
	m.RequestTotal.WithLabelValues(labels.Route, labels.Status, kind).Inc()
	m.RequestDurationMs.WithLabelValues(labels.Route).Observe(labels.DurationMs)
}

// RecordUpstream records one upstream call. kind is empty on success.
func (m *Metrics) RecordUpstream(route, kind string, durationMs float64) {
	outcome := "success"
	if kind != "" {
		outcome = "error"
		m.UpstreamErrorsTotal.WithLabelValues(route, kind).Inc()
	}
	m.UpstreamDurationMs.WithLabelValues(route, outcome).Observe(durationMs)
}

// RecordExtractField counts which response field produced the output.
func (m *Metrics) RecordExtractField(field string) {
	m.ExtractFieldTotal.WithLabelValues(field).Inc()
}
