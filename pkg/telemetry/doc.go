// Package telemetry wires the gateway's observability stack.
//
// # Components
//
//   - logging: slog loggers with context fields and secret redaction
//   - metrics: Prometheus collectors observing sync, cache and dispatch
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//   - health: liveness and readiness probes
//
// # Usage
//
//	tel, err := telemetry.New(&cfg.Telemetry, version, os.Stderr)
//	if err != nil {
//		return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	tel.Logger.Info("gateway starting")
//	engine.SetObserver(tel.Metrics.Dispatch())
package telemetry
