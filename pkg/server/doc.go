// Package server provides the gateway's HTTP server.
//
// # Routes
//
//   - /health/live, /health/ready - probes (paths from telemetry.health)
//   - /version                    - build information
//   - /metrics                    - Prometheus exposition, when enabled
//   - /admin/snapshot             - JSON export of the cache, when enabled
//   - everything else             - the gateway handler
//
// The gateway handler builds a match.Request, runs the dispatch engine and
// writes its decision: a plugin response, a rejection with the configured
// status, or a reverse proxy to gateway.upstream. A pass-through with no
// upstream configured is answered with 502.
//
// # Middleware Chain
//
// Requests pass through the following middleware (outermost first):
//  1. Recovery: recovers from panics and returns 500
//  2. RequestID: assigns X-Request-ID and stores it for logging
//  3. Logging: logs one record per request
//  4. Tracing: joins the caller's trace context
//  5. Metrics: request counters and latency histograms
//
// # Graceful Shutdown
//
// Start blocks until ctx is cancelled, then drains connections for up to
// gateway.shutdown_timeout.
package server
