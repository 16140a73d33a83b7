// Package metrics provides Prometheus metrics for the catalog server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Each instance owns its registry so
// tests and multiple servers do not collide.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	mutationsTotal   *prometheus.CounterVec
	loadsTotal       *prometheus.CounterVec
	products         prometheus.Gauge
}

// New creates and registers the metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockgrid_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockgrid_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method", "route"},
		),
		requestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "stockgrid_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
		mutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockgrid_product_mutations_total",
				Help: "Product create/update/delete operations by result",
			},
			[]string{"op", "result"},
		),
		loadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockgrid_product_loads_total",
				Help: "Collection loads from the configured source by result",
			},
			[]string{"result"},
		),
		products: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "stockgrid_products",
				Help: "Number of products currently held",
			},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RecordHTTPRequest records metrics for an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncRequestsInFlight increments the in-flight requests gauge.
func (m *Metrics) IncRequestsInFlight() { m.requestsInFlight.Inc() }

// DecRequestsInFlight decrements the in-flight requests gauge.
func (m *Metrics) DecRequestsInFlight() { m.requestsInFlight.Dec() }

// RecordMutation counts a store write. result is "ok", "invalid" or "not_found".
func (m *Metrics) RecordMutation(op, result string) {
	m.mutationsTotal.WithLabelValues(op, result).Inc()
}

// RecordLoad counts a source load.
func (m *Metrics) RecordLoad(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.loadsTotal.WithLabelValues(result).Inc()
}

// SetProducts sets the collection size gauge.
func (m *Metrics) SetProducts(n int) { m.products.Set(float64(n)) }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
