// Package admin builds the observability HTTP surface — /metrics and
// /healthz — served on its own listener, separate from proxied traffic.
package admin

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/rxh/internal/middleware"
)

// HealthReporter reports whether the process considers itself healthy.
// cmd/rxh wires this to the Master.
type HealthReporter interface {
	Healthy() bool
}

// healthResponse is the /healthz JSON body.
type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// Mux builds the admin router. reporter may be nil, in which case /healthz
// always reports healthy (useful before the Master has finished starting
// up listeners).
func Mux(reporter HealthReporter) http.Handler {
	r := chi.NewRouter()

	r.Get("/metrics", wrap(promhttp.Handler()))
	r.Get("/healthz", wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if reporter != nil && !reporter.Healthy() {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(healthResponse{Status: status, Time: time.Now()})
	})))

	return r
}

// wrap applies the shared request-ID and metrics middleware to an admin
// endpoint and adapts it back to a chi-compatible handler.
func wrap(h http.Handler) http.HandlerFunc {
	return middleware.RequestID(middleware.PrometheusMetrics(h.ServeHTTP))
}
