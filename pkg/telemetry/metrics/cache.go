package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"soul-hq/gateway/pkg/config"
	"soul-hq/gateway/pkg/dto"
)

// CacheMetrics tracks the configuration cache.
//
// Metrics:
//   - soul_gateway_cache_entries: current number of entries by kind
//   - soul_gateway_cache_updates_total: table replacements by kind
type CacheMetrics struct {
	enabled bool

	entries      *prometheus.GaugeVec
	updatesTotal *prometheus.CounterVec
}

// NewCacheMetrics creates and registers cache metrics with the provided registry.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry, enabled bool) *CacheMetrics {
	cm := &CacheMetrics{
		enabled: enabled,
		entries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_entries",
				Help:      "Current number of cached configuration entries",
			},
			[]string{"kind"},
		),
		updatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_updates_total",
				Help:      "Total number of cache table updates",
			},
			[]string{"kind"},
		),
	}

	if enabled {
		registry.MustRegister(cm.entries, cm.updatesTotal)
	}
	return cm
}

// EntriesChanged records the entry count of kind after an update.
func (cm *CacheMetrics) EntriesChanged(kind dto.ConfigGroup, count int) {
	if !cm.enabled {
		return
	}
	cm.entries.WithLabelValues(string(kind)).Set(float64(count))
	cm.updatesTotal.WithLabelValues(string(kind)).Inc()
}
