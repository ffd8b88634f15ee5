// Package metrics defines the Prometheus collectors for the tracker.
package metrics

import (
	"time"

	"github.com/mikepea/tracker/pkg/tracker/outcome"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Results reported for an operation.
const (
	ResultSucceeded = "succeeded"
	ResultDenied    = "denied"
	ResultFailed    = "failed"
)

// Metrics holds the HTTP and operation collectors.
type Metrics struct {
	HTTPInFlight        prometheus.Gauge
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Lifecycle and role-update outcomes; phase is empty unless the result is failed
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),

		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_operations_total",
			Help: "Lifecycle and role-update operations by result and failure phase.",
		}, []string{"operation", "result", "phase"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tracker_operation_duration_seconds",
			Help:    "Duration of lifecycle and role-update operations.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}

// ObserveOperation records the outcome of one operation.
func (m *Metrics) ObserveOperation(op outcome.Operation, result, phase string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(string(op), result, phase).Inc()
	m.OperationDuration.WithLabelValues(string(op)).Observe(elapsed.Seconds())
}

// ObserveRequest records a completed HTTP request.
func (m *Metrics) ObserveRequest(method, path, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(elapsed.Seconds())
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}
