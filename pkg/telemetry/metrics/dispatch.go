package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"soul-hq/gateway/pkg/config"
)

// maxPluginLabels bounds the plugin label; further names are counted as "other".
const maxPluginLabels = 256

// DispatchMetrics tracks the plugin dispatch engine.
//
// Metrics:
//   - soul_gateway_dispatch_total: dispatched requests by final action
//   - soul_gateway_dispatch_duration_seconds: dispatch latency
//   - soul_gateway_plugin_hits_total: requests a plugin's selector and rule matched
//   - soul_gateway_plugin_misses_total: requests a plugin did not match
type DispatchMetrics struct {
	enabled bool
	plugins *CardinalityLimiter

	dispatchTotal    *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
	hitsTotal        *prometheus.CounterVec
	missesTotal      *prometheus.CounterVec
}

// NewDispatchMetrics creates and registers dispatch metrics with the provided registry.
func NewDispatchMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry, enabled bool) *DispatchMetrics {
	dm := &DispatchMetrics{
		enabled: enabled,
		plugins: NewCardinalityLimiter(maxPluginLabels),
		dispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dispatch_total",
				Help:      "Total number of dispatched requests by action",
			},
			[]string{"action"},
		),
		dispatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dispatch_duration_seconds",
				Help:      "Time spent matching and running plugin handlers",
				Buckets:   cfg.DispatchDurationBuckets,
			},
		),
		hitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "plugin_hits_total",
				Help:      "Number of requests matched by a plugin selector and rule",
			},
			[]string{"plugin"},
		),
		missesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "plugin_misses_total",
				Help:      "Number of requests not matched by a plugin",
			},
			[]string{"plugin"},
		),
	}

	if enabled {
		registry.MustRegister(
			dm.dispatchTotal,
			dm.dispatchDuration,
			dm.hitsTotal,
			dm.missesTotal,
		)
	}
	return dm
}

// Dispatched records a finished dispatch.
func (dm *DispatchMetrics) Dispatched(action string, d time.Duration) {
	if !dm.enabled {
		return
	}
	dm.dispatchTotal.WithLabelValues(action).Inc()
	dm.dispatchDuration.Observe(d.Seconds())
}

// PluginMatched records whether plugin matched a request.
func (dm *DispatchMetrics) PluginMatched(plugin string, matched bool) {
	if !dm.enabled {
		return
	}
	if !dm.plugins.Allow(plugin) {
		plugin = "other"
	}
	if matched {
		dm.hitsTotal.WithLabelValues(plugin).Inc()
	} else {
		dm.missesTotal.WithLabelValues(plugin).Inc()
	}
}
