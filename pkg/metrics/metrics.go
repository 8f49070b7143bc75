// Package metrics exposes the engine's Prometheus instrumentation: one
// counter/histogram set per executor outcome (spec.md §9's observability
// is left to the host, but a production deployment needs these to alert
// on, so they're part of the ambient stack rather than the core).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pama-lee/ordo/pkg/executor"
	"github.com/pama-lee/ordo/pkg/ordoerr"
)

// Metrics holds the engine's Prometheus collectors on a private registry,
// so embedding Ordo in a larger process never collides with its metric
// namespace.
type Metrics struct {
	executionsTotal      *prometheus.CounterVec
	executionDuration    prometheus.Histogram
	depthExceededTotal   prometheus.Counter
	timeoutsTotal        prometheus.Counter
	validationErrorsTotal prometheus.Counter

	registry *prometheus.Registry
}

// Config configures the metric namespace.
type Config struct {
	Namespace string
}

// DefaultConfig is the namespace used when none is given.
func DefaultConfig() Config {
	return Config{Namespace: "ordo"}
}

// New creates and registers the engine's metrics under config.Namespace.
func New(config Config) *Metrics {
	if config.Namespace == "" {
		config = DefaultConfig()
	}

	registry := prometheus.NewRegistry()
	m := &Metrics{registry: registry}

	m.executionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "executions_total",
			Help:      "Total number of ruleset executions, by terminal result code.",
		},
		[]string{"code"},
	)
	m.executionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "execution_duration_seconds",
			Help:      "Wall-clock duration of a successful ruleset execution.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 16),
		},
	)
	m.depthExceededTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "depth_exceeded_total",
			Help:      "Total number of executions aborted by DepthExceeded.",
		},
	)
	m.timeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "timeouts_total",
			Help:      "Total number of executions aborted by Timeout.",
		},
	)
	m.validationErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "validation_errors_total",
			Help:      "Total number of rulesets that failed structural validation.",
		},
	)

	registry.MustRegister(
		m.executionsTotal,
		m.executionDuration,
		m.depthExceededTotal,
		m.timeoutsTotal,
		m.validationErrorsTotal,
	)

	return m
}

// RecordResult updates the counters/histogram from one Execute call's
// outcome. Call it once per execution, whichever branch runs.
func (m *Metrics) RecordResult(res *executor.Result, execErr *executor.ExecutionError) {
	if execErr != nil {
		switch execErr.Err.(type) {
		case *ordoerr.DepthExceeded:
			m.depthExceededTotal.Inc()
		case *ordoerr.Timeout:
			m.timeoutsTotal.Inc()
		case *ordoerr.ValidationError:
			m.validationErrorsTotal.Inc()
		}
		return
	}
	m.executionsTotal.WithLabelValues(res.Code).Inc()
	m.executionDuration.Observe(float64(res.DurationMicros) / 1e6)
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry exposes the underlying registry for callers that want to add
// their own collectors alongside Ordo's.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
