// Package metrics exports engine progress as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/mhpenta/tryon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "tryon"

// Collector records engine events. It owns its registry so that several
// collectors (one per test, say) never clash on registration.
type Collector struct {
	registry *prometheus.Registry

	attemptsTotal   *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	backoffSeconds  prometheus.Histogram
	generations     *prometheus.CounterVec
}

// Ensure Collector can observe the engine.
var _ tryon.Observer = (*Collector)(nil)

// NewCollector creates a collector on a fresh registry that also carries the
// Go runtime and process collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		attemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "attempts_total",
				Help:      "Total number of generation attempts by outcome",
			},
			[]string{"model", "api_version", "outcome"},
		),

		attemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "attempt_duration_seconds",
				Help:      "Duration of a single generation attempt in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"model"},
		),

		backoffSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "backoff_seconds",
				Help:      "Backoff delays scheduled between retries in seconds",
				Buckets:   prometheus.LinearBuckets(1, 1, 8),
			},
		),

		generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "generations_total",
				Help:      "Total number of generation invocations by result",
			},
			[]string{"result"},
		),
	}
}

// AttemptFinished counts the attempt and its duration.
func (c *Collector) AttemptFinished(_ context.Context, e tryon.AttemptEvent) {
	c.attemptsTotal.WithLabelValues(e.Model, e.APIVersion, e.Kind.String()).Inc()
	c.attemptDuration.WithLabelValues(e.Model).Observe(e.Duration.Seconds())
}

// BackoffScheduled records the delay before a retry.
func (c *Collector) BackoffScheduled(_ context.Context, e tryon.BackoffEvent) {
	c.backoffSeconds.Observe(e.Delay.Seconds())
}

// GenerationFinished counts the invocation under its failure kind, or
// "success".
func (c *Collector) GenerationFinished(_ context.Context, e tryon.FinishEvent) {
	result := "success"
	if e.Failure != "" {
		result = string(e.Failure)
	}
	c.generations.WithLabelValues(result).Inc()
}

// Registry returns the registry the metrics live on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
