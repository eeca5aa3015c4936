// Package metrics exposes Prometheus instrumentation for the dispatcher.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the dispatch server.
type Metrics struct {
	registry           *prometheus.Registry
	requestsTotal      prometheus.Counter
	dispatchedTotal    *prometheus.CounterVec
	refusedTotal       prometheus.Counter
	malformedTotal     prometheus.Counter
	backendErrorsTotal *prometheus.CounterVec
	activeWorkers      prometheus.Gauge
}

// New creates and registers the dispatcher's Prometheus metrics on a private
// registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_requests_total",
		Help: "Total number of client connections accepted",
	})
	dispatchedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_dispatched_total",
		Help: "Requests forwarded to a backend, by backend index",
	}, []string{"backend"})
	refusedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_refused_total",
		Help: "Client connections refused because the worker ceiling was reached",
	})
	malformedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_malformed_total",
		Help: "Client connections dropped due to short or invalid requests",
	})
	backendErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_backend_errors_total",
		Help: "Backend connect or I/O failures, by backend index",
	}, []string{"backend"})
	activeWorkers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_active_workers",
		Help: "Number of dispatch workers currently running",
	})

	registry.MustRegister(
		requestsTotal,
		dispatchedTotal,
		refusedTotal,
		malformedTotal,
		backendErrorsTotal,
		activeWorkers,
	)

	return &Metrics{
		registry:           registry,
		requestsTotal:      requestsTotal,
		dispatchedTotal:    dispatchedTotal,
		refusedTotal:       refusedTotal,
		malformedTotal:     malformedTotal,
		backendErrorsTotal: backendErrorsTotal,
		activeWorkers:      activeWorkers,
	}
}

// IncRequests increments the accepted-connections counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncDispatched increments the forwarded-requests counter for a backend index.
func (m *Metrics) IncDispatched(backend int) {
	m.dispatchedTotal.WithLabelValues(strconv.Itoa(backend)).Inc()
}

// IncRefused increments the governor-refusal counter.
func (m *Metrics) IncRefused() {
	m.refusedTotal.Inc()
}

// IncMalformed increments the invalid-request counter.
func (m *Metrics) IncMalformed() {
	m.malformedTotal.Inc()
}

// IncBackendErrors increments the backend-failure counter for a backend index.
func (m *Metrics) IncBackendErrors(backend int) {
	m.backendErrorsTotal.WithLabelValues(strconv.Itoa(backend)).Inc()
}

// SetActiveWorkers sets the active-workers gauge.
func (m *Metrics) SetActiveWorkers(n int) {
	m.activeWorkers.Set(float64(n))
}

// Handler returns an http.Handler that serves the Prometheus registry.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
