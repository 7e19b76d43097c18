package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"soul-hq/gateway/pkg/config"
)

// RequestMetrics tracks HTTP requests served by the gateway listener.
//
// Metrics:
//   - soul_gateway_requests_total: requests by method and status code
//   - soul_gateway_request_duration_seconds: end-to-end latency including the upstream
//   - soul_gateway_response_size_bytes: response body sizes
//   - soul_gateway_requests_in_flight: requests currently being served
type RequestMetrics struct {
	enabled bool

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	sizeBytes       *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry, enabled bool) *RequestMetrics {
	rm := &RequestMetrics{
		enabled: enabled,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"method", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		sizeBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 8), // 256B to 4MB
			},
			[]string{"method"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),
	}

	if enabled {
		registry.MustRegister(
			rm.requestsTotal,
			rm.requestDuration,
			rm.sizeBytes,
			rm.inFlight,
		)
	}
	return rm
}

// Middleware instruments next. It returns next unchanged when metrics are
// disabled.
func (rm *RequestMetrics) Middleware(next http.Handler) http.Handler {
	if !rm.enabled {
		return next
	}
	return promhttp.InstrumentHandlerInFlight(rm.inFlight,
		promhttp.InstrumentHandlerCounter(rm.requestsTotal,
			promhttp.InstrumentHandlerDuration(rm.requestDuration,
				promhttp.InstrumentHandlerResponseSize(rm.sizeBytes, next),
			),
		),
	)
}
