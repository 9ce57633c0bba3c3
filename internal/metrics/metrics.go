// Package metrics exposes Prometheus instrumentation for counter operations,
// persistence attempts and HTTP traffic. A nil *Metrics is valid and records
// nothing, so short-lived CLI invocations can skip instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the registry and the collectors registered on it.
type Metrics struct {
	registry        *prometheus.Registry
	operations      *prometheus.CounterVec
	persistAttempts prometheus.Counter
	persistFailures prometheus.Counter
	counters        prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates a registry with Go/process collectors and tally's own metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_operations_total",
				Help: "Counter operations applied, by operation",
			},
			[]string{"op"},
		),
		persistAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tally_persist_attempts_total",
			Help: "Writes of counters.json attempted",
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tally_persist_failures_total",
			Help: "Writes of counters.json that failed and were discarded",
		}),
		counters: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tally_counters",
			Help: "Number of counters in the collection",
		}),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tally_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	registry.MustRegister(
		m.operations,
		m.persistAttempts,
		m.persistFailures,
		m.counters,
		m.requestsTotal,
		m.requestDuration,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOperation counts one applied counter operation.
func (m *Metrics) ObserveOperation(op string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op).Inc()
}

// ObservePersist records the outcome of one write of the collection.
func (m *Metrics) ObservePersist(err error) {
	if m == nil {
		return
	}
	m.persistAttempts.Inc()
	if err != nil {
		m.persistFailures.Inc()
	}
}

// SetCounterCount records the current collection size.
func (m *Metrics) SetCounterCount(n int) {
	if m == nil {
		return
	}
	m.counters.Set(float64(n))
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
