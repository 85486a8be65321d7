// Package metrics exposes the Prometheus instrumentation surfaced by the
// admin HTTP listener's /metrics endpoint: per-server request counters,
// connection gauges, backend selection counts, and a tagged error counter
// keyed by rxerr.Kind.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts every request the router dispatched, labeled by
	// the matching pattern's listen address and the outcome status code.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rxh_requests_total",
			Help: "Total number of requests dispatched by the router",
		},
		[]string{"listen", "status_code"},
	)

	// RequestDuration tracks request handling latency, from the router's
	// dispatch of a parsed request to the return of its handler.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rxh_request_duration_seconds",
			Help:    "Request handling duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"listen"},
	)

	// ActiveConnections is the current number of open connections per
	// listener, mirroring each Server's connection-count semaphore.
	ActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rxh_active_connections",
			Help: "Current number of open connections per listener",
		},
		[]string{"listen"},
	)

	// BackendSelectedTotal counts how many times the scheduler handed out
	// each backend address, labeled by the owning pattern's listen address.
	BackendSelectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rxh_backend_selected_total",
			Help: "Total number of times a backend was selected by the scheduler",
		},
		[]string{"listen", "backend"},
	)

	// ErrorsTotal counts tagged errors, labeled by rxerr.Kind, so config,
	// I/O, and codec failures can be told apart without log scraping.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rxh_errors_total",
			Help: "Total number of tagged errors by kind",
		},
		[]string{"kind"},
	)

	// AdminRequestsTotal counts requests served by the admin listener
	// itself (/metrics, /healthz), separately from proxied traffic.
	AdminRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rxh_admin_requests_total",
			Help: "Total number of requests served by the admin listener",
		},
		[]string{"method", "path", "status_code"},
	)

	// AdminRequestDuration tracks admin endpoint latency.
	AdminRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rxh_admin_request_duration_seconds",
			Help:    "Admin endpoint request duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"method", "path"},
	)

	// AdminActiveRequests is the number of admin requests currently being
	// handled.
	AdminActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rxh_admin_active_requests",
			Help: "Current number of active admin requests",
		},
	)
)

// RecordRequest records the outcome of a proxied or served request.
func RecordRequest(listen, statusCode string, duration time.Duration) {
	RequestsTotal.WithLabelValues(listen, statusCode).Inc()
	RequestDuration.WithLabelValues(listen).Observe(duration.Seconds())
}

// SetActiveConnections reports the current connection count for a listener.
func SetActiveConnections(listen string, n int) {
	ActiveConnections.WithLabelValues(listen).Set(float64(n))
}

// RecordBackendSelected records that the scheduler handed out backend for
// a request arriving on listen.
func RecordBackendSelected(listen, backend string) {
	BackendSelectedTotal.WithLabelValues(listen, backend).Inc()
}

// RecordError records a tagged error by kind. Pass the empty string if the
// error carries no kind.
func RecordError(kind string) {
	if kind == "" {
		return
	}
	ErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordAPIRequest records an admin endpoint request, used by
// middleware.PrometheusMetrics.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	AdminRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	AdminRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the admin active-request
// gauge, used by middleware.PrometheusMetrics.
func TrackActiveRequest(inc bool) {
	if inc {
		AdminActiveRequests.Inc()
	} else {
		AdminActiveRequests.Dec()
	}
}
