/*
Package middleware provides the small HTTP middleware stack used by the
admin surface (/metrics, /healthz).

Key components:

  - RequestID: UUID-based request tracking for structured logs
  - PrometheusMetrics: request/response instrumentation for admin handlers

Typical stack for an admin endpoint:

	r := chi.NewRouter()
	r.Get("/healthz",
	    middleware.RequestID(
	        middleware.PrometheusMetrics(
	            handler.ServeHTTP,
	        ),
	    ),
	)
*/
package middleware
