/*
Package metrics provides Prometheus instrumentation for the proxy and its
admin surface.

# Overview

The package exposes:
  - rxh_requests_total / rxh_request_duration_seconds: proxied/served traffic
  - rxh_active_connections: per-listener open connection gauge
  - rxh_backend_selected_total: scheduler backend selection counts
  - rxh_errors_total: tagged error counts by rxerr.Kind
  - rxh_admin_*: instrumentation for the admin listener itself

# Usage

	metrics.RecordRequest(listen, "200", elapsed)
	metrics.SetActiveConnections(listen, openConns)
	metrics.RecordBackendSelected(listen, backendAddr)
	metrics.RecordError(string(kind))

The admin HTTP surface exposes these via promhttp.Handler() mounted at
/metrics.
*/
package metrics
