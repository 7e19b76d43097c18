// Package metrics provides Prometheus metrics collection for the gateway.
//
// # Overview
//
// A Collector owns one registry and four metric groups. Each group is the
// observer of the component it measures:
//
//   - Sync: session state, applied and dropped events, reconnects, snapshot apply time
//   - Dispatch: dispatches by action, dispatch latency, plugin hits and misses
//   - Cache: entries per configuration kind
//   - Requests: HTTP middleware for the gateway listener
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	c := cache.New(cache.WithObserver(collector.Cache()))
//	session.SetObserver(collector.Sync())
//	engine.SetObserver(collector.Dispatch())
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// With metrics disabled nothing is registered and every observer method
// returns immediately.
//
// # Prometheus Endpoint
//
//	# HELP soul_gateway_dispatch_total Total number of dispatched requests by action
//	# TYPE soul_gateway_dispatch_total counter
//	soul_gateway_dispatch_total{action="pass_through"} 1234
//
// # Cardinality Management
//
// Plugin names are capped at 256 label values; further names are aggregated
// into "other".
package metrics
