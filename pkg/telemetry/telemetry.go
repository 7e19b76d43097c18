package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"soul-hq/gateway/pkg/config"
	"soul-hq/gateway/pkg/telemetry/health"
	"soul-hq/gateway/pkg/telemetry/logging"
	"soul-hq/gateway/pkg/telemetry/metrics"
	"soul-hq/gateway/pkg/telemetry/tracing"
)

// Telemetry bundles the gateway's logger, metrics collector, tracer and
// health checker.
type Telemetry struct {
	Logger  *slog.Logger
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
	Health  *health.Checker
}

// New builds every telemetry component from cfg. Logs go to w. The logger is
// also installed as slog's default.
func New(cfg *config.TelemetryConfig, version string, w io.Writer) (*Telemetry, error) {
	logger, err := logging.New(logging.FromConfig(&cfg.Logging, w))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	slog.SetDefault(logger)

	tracer, err := tracing.New(&cfg.Tracing, version)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	return &Telemetry{
		Logger:  logger,
		Metrics: metrics.NewCollector(&cfg.Metrics, nil),
		Tracer:  tracer,
		Health:  health.New(cfg.Health.CheckTimeout),
	}, nil
}

// Shutdown flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.Tracer.Shutdown(ctx)
}
