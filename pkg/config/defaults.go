package config

import "time"

// Default values for configuration fields.
const (
	// Gateway defaults
	DefaultListenAddress   = "127.0.0.1:9195"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Dispatch defaults
	DefaultDispatchPolicy = "pass-through"
	DefaultRejectStatus   = 403

	// Sync defaults
	DefaultSyncMode                = SyncModeWebsocket
	DefaultBackoffInitialInterval  = 500 * time.Millisecond
	DefaultBackoffMaxInterval      = 30 * time.Second
	DefaultBackoffMultiplier       = 2.0
	DefaultWebsocketReadLimit      = int64(10 << 20)
	DefaultWebsocketDialTimeout    = 10 * time.Second
	DefaultWebsocketWriteTimeout   = 5 * time.Second
	DefaultWebsocketPingInterval   = 30 * time.Second
	DefaultWebsocketPingTimeout    = 10 * time.Second
	DefaultWebsocketSnapshotWait   = 30 * time.Second
	DefaultWebsocketControlRate    = 1.0
	DefaultFileSnapshotPath        = "./snapshot.yaml"
	DefaultFileDebounce            = 100 * time.Millisecond
	DefaultGitBranch               = "main"
	DefaultGitSnapshotPath         = "snapshot.yaml"
	DefaultGitAuthType             = "none"
	DefaultGitPollInterval         = 30 * time.Second
	DefaultGitTimeout              = 30 * time.Second
	DefaultGitDepth                = 1

	// Store defaults
	DefaultStoreURL                = "sqlite://data/soul.db"
	DefaultStoreMaxOpenConns       = 4
	DefaultStoreMaxIdleConns       = 2
	DefaultStoreConnMaxLifetime    = 30 * time.Minute
	DefaultStoreCheckpointSchedule = "*/5 * * * *"

	// Register defaults
	DefaultRegisterRPCType    = "http"
	DefaultRegisterTimeout    = 5 * time.Second
	DefaultRegisterMaxRetries = 3

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultPrometheusPath      = "/metrics"
	DefaultMetricsNamespace    = "soul"
	DefaultMetricsSubsystem    = "gateway"
	DefaultTracingSampler      = "ratio"
	DefaultTracingSamplingRate = 1.0
	DefaultTracingServiceName  = "soul-gateway"
	DefaultTracingTimeout      = 10 * time.Second
	DefaultLivenessPath        = "/health/live"
	DefaultReadinessPath       = "/health/ready"
	DefaultHealthCheckTimeout  = 5 * time.Second
)

// DefaultDispatchDurationBuckets are sub-millisecond oriented since dispatch
// never leaves the process.
var DefaultDispatchDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1}

// ApplyDefaults fills every zero-valued field of cfg with its default.
// Fields already set are left untouched.
func ApplyDefaults(cfg *Config) {
	applyGatewayDefaults(&cfg.Gateway)

	if cfg.Dispatch.DefaultPolicy == "" {
		cfg.Dispatch.DefaultPolicy = DefaultDispatchPolicy
	}
	if cfg.Dispatch.RejectStatus == 0 {
		cfg.Dispatch.RejectStatus = DefaultRejectStatus
	}

	applySyncDefaults(&cfg.Sync)

	if cfg.Store.URL == "" {
		cfg.Store.URL = DefaultStoreURL
	}
	if cfg.Store.MaxOpenConns == 0 {
		cfg.Store.MaxOpenConns = DefaultStoreMaxOpenConns
	}
	if cfg.Store.MaxIdleConns == 0 {
		cfg.Store.MaxIdleConns = DefaultStoreMaxIdleConns
	}
	if cfg.Store.ConnMaxLifetime == 0 {
		cfg.Store.ConnMaxLifetime = DefaultStoreConnMaxLifetime
	}
	if cfg.Store.CheckpointSchedule == "" {
		cfg.Store.CheckpointSchedule = DefaultStoreCheckpointSchedule
	}

	if cfg.Register.RPCType == "" {
		cfg.Register.RPCType = DefaultRegisterRPCType
	}
	if cfg.Register.Timeout == 0 {
		cfg.Register.Timeout = DefaultRegisterTimeout
	}
	if cfg.Register.MaxRetries == 0 {
		cfg.Register.MaxRetries = DefaultRegisterMaxRetries
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyGatewayDefaults(g *GatewayConfig) {
	if g.ListenAddress == "" {
		g.ListenAddress = DefaultListenAddress
	}
	if g.ReadTimeout == 0 {
		g.ReadTimeout = DefaultReadTimeout
	}
	if g.WriteTimeout == 0 {
		g.WriteTimeout = DefaultWriteTimeout
	}
	if g.IdleTimeout == 0 {
		g.IdleTimeout = DefaultIdleTimeout
	}
	if g.ShutdownTimeout == 0 {
		g.ShutdownTimeout = DefaultShutdownTimeout
	}
	if g.MaxHeaderBytes == 0 {
		g.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
}

func applySyncDefaults(s *SyncConfig) {
	if s.Mode == "" {
		s.Mode = DefaultSyncMode
	}
	if s.Backoff.InitialInterval == 0 {
		s.Backoff.InitialInterval = DefaultBackoffInitialInterval
	}
	if s.Backoff.MaxInterval == 0 {
		s.Backoff.MaxInterval = DefaultBackoffMaxInterval
	}
	if s.Backoff.Multiplier == 0 {
		s.Backoff.Multiplier = DefaultBackoffMultiplier
	}

	ws := &s.Websocket
	if ws.ReadLimit == 0 {
		ws.ReadLimit = DefaultWebsocketReadLimit
	}
	if ws.DialTimeout == 0 {
		ws.DialTimeout = DefaultWebsocketDialTimeout
	}
	if ws.WriteTimeout == 0 {
		ws.WriteTimeout = DefaultWebsocketWriteTimeout
	}
	if ws.PingInterval == 0 {
		ws.PingInterval = DefaultWebsocketPingInterval
	}
	if ws.PingTimeout == 0 {
		ws.PingTimeout = DefaultWebsocketPingTimeout
	}
	if ws.SnapshotTimeout == 0 {
		ws.SnapshotTimeout = DefaultWebsocketSnapshotWait
	}
	if ws.ControlRate == 0 {
		ws.ControlRate = DefaultWebsocketControlRate
	}

	if s.File.Path == "" {
		s.File.Path = DefaultFileSnapshotPath
	}
	if s.File.Debounce == 0 {
		s.File.Debounce = DefaultFileDebounce
	}

	g := &s.Git
	if g.Branch == "" {
		g.Branch = DefaultGitBranch
	}
	if g.Path == "" {
		g.Path = DefaultGitSnapshotPath
	}
	if g.Auth.Type == "" {
		g.Auth.Type = DefaultGitAuthType
	}
	if g.PollInterval == 0 {
		g.PollInterval = DefaultGitPollInterval
	}
	if g.Timeout == 0 {
		g.Timeout = DefaultGitTimeout
	}
	if g.Depth == 0 {
		g.Depth = DefaultGitDepth
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}

	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultPrometheusPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if t.Metrics.Subsystem == "" {
		t.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(t.Metrics.DispatchDurationBuckets) == 0 {
		t.Metrics.DispatchDurationBuckets = append([]float64(nil), DefaultDispatchDurationBuckets...)
	}

	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingServiceName
	}
	if t.Tracing.Timeout == 0 {
		t.Tracing.Timeout = DefaultTracingTimeout
	}

	if t.Health.LivenessPath == "" {
		t.Health.LivenessPath = DefaultLivenessPath
	}
	if t.Health.ReadinessPath == "" {
		t.Health.ReadinessPath = DefaultReadinessPath
	}
	if t.Health.CheckTimeout == 0 {
		t.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
