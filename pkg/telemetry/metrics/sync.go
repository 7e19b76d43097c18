package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"soul-hq/gateway/pkg/config"
	"soul-hq/gateway/pkg/datasync"
	"soul-hq/gateway/pkg/dto"
)

// SyncMetrics tracks the configuration sync session.
//
// Metrics:
//   - soul_gateway_sync_state: 1 for the current session state, 0 for the others
//   - soul_gateway_sync_events_applied_total: events applied by kind and op
//   - soul_gateway_sync_events_dropped_total: events dropped by kind and reason
//   - soul_gateway_sync_reconnects_total: reconnect attempts
//   - soul_gateway_sync_snapshot_apply_seconds: time to apply a full snapshot
type SyncMetrics struct {
	enabled bool

	state         *prometheus.GaugeVec
	appliedTotal  *prometheus.CounterVec
	droppedTotal  *prometheus.CounterVec
	reconnects    prometheus.Counter
	snapshotApply prometheus.Histogram
}

var syncStates = []datasync.State{
	datasync.StateDisconnected,
	datasync.StateConnecting,
	datasync.StateSynced,
}

// NewSyncMetrics creates and registers sync metrics with the provided registry.
func NewSyncMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry, enabled bool) *SyncMetrics {
	sm := &SyncMetrics{
		enabled: enabled,
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sync_state",
				Help:      "Current sync session state (1 = active state)",
			},
			[]string{"state"},
		),
		appliedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sync_events_applied_total",
				Help:      "Total number of configuration events applied",
			},
			[]string{"kind", "op"},
		),
		droppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sync_events_dropped_total",
				Help:      "Total number of configuration events dropped",
			},
			[]string{"kind", "reason"},
		),
		reconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sync_reconnects_total",
				Help:      "Total number of sync reconnect attempts",
			},
		),
		snapshotApply: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sync_snapshot_apply_seconds",
				Help:      "Time to apply a full configuration snapshot",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
			},
		),
	}

	if enabled {
		registry.MustRegister(
			sm.state,
			sm.appliedTotal,
			sm.droppedTotal,
			sm.reconnects,
			sm.snapshotApply,
		)
	}
	return sm
}

// StateChanged sets the state gauge.
func (sm *SyncMetrics) StateChanged(s datasync.State) {
	if !sm.enabled {
		return
	}
	for _, st := range syncStates {
		v := 0.0
		if st == s {
			v = 1
		}
		sm.state.WithLabelValues(st.String()).Set(v)
	}
}

// EventApplied counts an applied event.
func (sm *SyncMetrics) EventApplied(kind dto.ConfigGroup, op dto.DataEventType) {
	if !sm.enabled {
		return
	}
	sm.appliedTotal.WithLabelValues(string(kind), string(op)).Inc()
}

// EventDropped counts a dropped event.
func (sm *SyncMetrics) EventDropped(kind dto.ConfigGroup, reason string) {
	if !sm.enabled {
		return
	}
	sm.droppedTotal.WithLabelValues(string(kind), reason).Inc()
}

// Reconnecting counts a reconnect attempt.
func (sm *SyncMetrics) Reconnecting(time.Duration) {
	if !sm.enabled {
		return
	}
	sm.reconnects.Inc()
}

// SnapshotApplied observes how long a snapshot took to apply.
func (sm *SyncMetrics) SnapshotApplied(d time.Duration) {
	if !sm.enabled {
		return
	}
	sm.snapshotApply.Observe(d.Seconds())
}
