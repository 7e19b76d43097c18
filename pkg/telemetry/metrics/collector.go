package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"soul-hq/gateway/pkg/config"
)

// Collector owns the gateway's Prometheus registry and the metric groups of
// each subsystem. Every group satisfies the observer interface of the
// component it measures and records nothing when metrics are disabled.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	syncMetrics     *SyncMetrics
	dispatchMetrics *DispatchMetrics
	cacheMetrics    *CacheMetrics
	requestMetrics  *RequestMetrics
}

// NewCollector creates a collector registering into registry. If registry is
// nil a fresh one is created. The Go runtime and process collectors are
// always registered.
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	cache.New(cache.WithObserver(collector.Cache()))
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DispatchDurationBuckets) == 0 {
		cfg.DispatchDurationBuckets = append([]float64(nil), config.DefaultDispatchDurationBuckets...)
	}

	enabled := cfg.MetricsEnabled()
	c := &Collector{
		config:          cfg,
		registry:        registry,
		syncMetrics:     NewSyncMetrics(cfg, registry, enabled),
		dispatchMetrics: NewDispatchMetrics(cfg, registry, enabled),
		cacheMetrics:    NewCacheMetrics(cfg, registry, enabled),
		requestMetrics:  NewRequestMetrics(cfg, registry, enabled),
	}

	if enabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

// Enabled reports whether metrics are recorded.
func (c *Collector) Enabled() bool {
	return c.config.MetricsEnabled()
}

// Sync returns the sync session observer.
func (c *Collector) Sync() *SyncMetrics { return c.syncMetrics }

// Dispatch returns the dispatch engine observer.
func (c *Collector) Dispatch() *DispatchMetrics { return c.dispatchMetrics }

// Cache returns the cache observer.
func (c *Collector) Cache() *CacheMetrics { return c.cacheMetrics }

// Requests returns the HTTP request metrics.
func (c *Collector) Requests() *RequestMetrics { return c.requestMetrics }

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
