// Package metrics exposes Prometheus collectors for the prediction pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "playervalue"

// Outcome label value for successful predictions.
const OutcomeOK = "ok"

// Metrics bundles the collectors and the registry they are registered on.
type Metrics struct {
	registry *prometheus.Registry

	predictions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	modelLoads  *prometheus.CounterVec
	values      *prometheus.HistogramVec
}

// New creates a Metrics instance with its own registry, including the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Prediction requests by outcome (ok or error kind).",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "End-to-end pipeline latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"outcome"}),
		modelLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_loads_total",
			Help:      "Model artifact acquisitions by position and source (cache or store).",
		}, []string{"position", "source"}),
		values: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "predicted_value_eur",
			Help:      "Distribution of predicted market values.",
			Buckets:   prometheus.ExponentialBuckets(10_000, 4, 10),
		}, []string{"position"}),
	}
	reg.MustRegister(
		m.predictions,
		m.duration,
		m.modelLoads,
		m.values,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObservePrediction records one finished request.
func (m *Metrics) ObservePrediction(outcome string, elapsed time.Duration) {
	m.predictions.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveModelLoad records where an artifact came from.
func (m *Metrics) ObserveModelLoad(position string, cached bool) {
	source := "store"
	if cached {
		source = "cache"
	}
	m.modelLoads.WithLabelValues(position, source).Inc()
}

// ObserveValue records a predicted value.
func (m *Metrics) ObserveValue(position string, eur float64) {
	m.values.WithLabelValues(position).Observe(eur)
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
