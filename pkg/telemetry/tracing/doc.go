// Package tracing provides OpenTelemetry distributed tracing for the gateway.
//
// # Overview
//
// New installs a tracer provider exporting over OTLP gRPC together with the
// W3C Trace Context and Baggage propagators. Other packages start spans via
// otel.Tracer and decorate them with the helpers here:
//
//   - gateway.dispatch: one per dispatched request, with DispatchAttributes
//   - sync.snapshot and sync.apply: one per snapshot and per config event
//
// # Trace Context Propagation
//
// HTTPMiddleware extracts an incoming traceparent header so gateway spans join
// the caller's trace. Inject writes the context onto proxied requests.
//
//	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//
// # Sampling Strategies
//
//   - always: sample all traces
//   - never: sample no traces
//   - ratio: sample sample_ratio of root traces
//
// Every strategy honours the sampling decision of a remote parent.
package tracing
