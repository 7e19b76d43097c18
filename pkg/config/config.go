package config

import "time"

// Config is the root configuration structure for the soul gateway node.
// It contains the HTTP gateway, dispatch policy, control-plane sync,
// snapshot store, registration and telemetry sections.
type Config struct {
	// Gateway contains the HTTP server configuration including listen
	// address, timeouts and the upstream that pass-through traffic goes to.
	Gateway GatewayConfig `yaml:"gateway"`

	// Dispatch controls what happens when no plugin terminates a request.
	Dispatch DispatchConfig `yaml:"dispatch"`

	// Sync selects and configures the control-plane transport.
	Sync SyncConfig `yaml:"sync"`

	// Store configures persistence of the last known good snapshot.
	Store StoreConfig `yaml:"store"`

	// Register configures one-shot registration with the admin.
	Register RegisterConfig `yaml:"register"`

	// Telemetry contains configuration for observability including logging,
	// metrics, tracing and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// GatewayConfig contains configuration for the HTTP gateway server.
type GatewayConfig struct {
	// ListenAddress is the address the gateway listens on.
	// Default: "127.0.0.1:9195"
	ListenAddress string `yaml:"listen_address"`

	// Upstream is the base URL pass-through requests are proxied to.
	// Empty means pass-through requests are answered with 502.
	// Example: "http://127.0.0.1:8189"
	Upstream string `yaml:"upstream"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1MB
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// AdminEnabled exposes /admin/snapshot.
	// Default: false
	AdminEnabled bool `yaml:"admin_enabled"`
}

// DispatchConfig contains the default dispatch policy.
type DispatchConfig struct {
	// DefaultPolicy applies when the plugin chain finishes without a
	// terminal handler. Options: "pass-through", "reject".
	// Default: "pass-through"
	DefaultPolicy string `yaml:"default_policy"`

	// RejectStatus is the HTTP status used by the reject policy.
	// Default: 403
	RejectStatus int `yaml:"reject_status"`
}

// Sync modes.
const (
	SyncModeWebsocket = "websocket"
	SyncModeFile      = "file"
	SyncModeGit       = "git"
)

// SyncConfig selects the control-plane transport.
type SyncConfig struct {
	// Mode is one of "websocket", "file", "git".
	// Default: "websocket"
	Mode string `yaml:"mode"`

	// Backoff configures the reconnect schedule of the sync session.
	Backoff BackoffConfig `yaml:"backoff"`

	Websocket WebsocketSyncConfig `yaml:"websocket"`
	File      FileSyncConfig      `yaml:"file"`
	Git       GitSyncConfig       `yaml:"git"`
}

// BackoffConfig configures exponential reconnect backoff.
type BackoffConfig struct {
	// Default: 500ms
	InitialInterval time.Duration `yaml:"initial_interval"`

	// Default: 30s
	MaxInterval time.Duration `yaml:"max_interval"`

	// Default: 2
	Multiplier float64 `yaml:"multiplier"`
}

// WebsocketSyncConfig configures the websocket transport.
type WebsocketSyncConfig struct {
	// URLs of the admin websocket endpoints, tried in order.
	// Example: ["ws://localhost:9095/websocket"]
	URLs []string `yaml:"urls"`

	// NodeID identifies this node to the admin. Generated when empty.
	NodeID string `yaml:"node_id"`

	// ReadLimit is the maximum frame size in bytes.
	// Default: 10MB
	ReadLimit int64 `yaml:"read_limit"`

	// Default: 10s
	DialTimeout time.Duration `yaml:"dial_timeout"`

	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Default: 30s
	PingInterval time.Duration `yaml:"ping_interval"`

	// Default: 10s
	PingTimeout time.Duration `yaml:"ping_timeout"`

	// SnapshotTimeout bounds the wait for the five full-refresh frames.
	// Default: 30s
	SnapshotTimeout time.Duration `yaml:"snapshot_timeout"`

	// ControlRate is the maximum rate of control frames per second.
	// Default: 1
	ControlRate float64 `yaml:"control_rate"`
}

// FileSyncConfig configures the file transport.
type FileSyncConfig struct {
	// Path to a YAML or JSON snapshot file.
	// Default: "./snapshot.yaml"
	Path string `yaml:"path"`

	// Watch reloads the snapshot on file changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// Debounce coalesces bursts of file events.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce"`
}

// GitSyncConfig configures the git transport.
type GitSyncConfig struct {
	// Repository URL (HTTPS, SSH or a local path).
	// Example: "https://github.com/company/gateway-config.git"
	Repository string `yaml:"repository"`

	// Branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path of the snapshot file within the repository.
	// Default: "snapshot.yaml"
	Path string `yaml:"path"`

	// Auth configures Git authentication.
	Auth GitAuthConfig `yaml:"auth"`

	// PollInterval between fetches.
	// Default: 30s
	PollInterval time.Duration `yaml:"poll_interval"`

	// Timeout for a single git operation.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// Depth for shallow clones (0 = full clone).
	// Default: 1
	Depth int `yaml:"depth"`

	// LocalPath where the repository is cloned.
	// Default: system temp directory
	LocalPath string `yaml:"local_path"`

	// CleanOnStart removes the local clone before cloning.
	// Default: false
	CleanOnStart bool `yaml:"clean_on_start"`
}

// GitAuthConfig configures Git authentication.
type GitAuthConfig struct {
	// Type: "token", "ssh", "none"
	// Default: "none"
	Type string `yaml:"type"`

	// Token for HTTPS authentication.
	// Required when Type is "token".
	Token string `yaml:"token"`

	// SSHKeyPath for SSH authentication.
	// Required when Type is "ssh".
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassphrase for encrypted SSH keys.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`
}

// StoreConfig configures the snapshot store.
type StoreConfig struct {
	// Enabled turns on persistence and restore.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// URL selects the driver by scheme: sqlite://, sqlite3://, postgres://.
	// Default: "sqlite://data/soul.db"
	URL string `yaml:"url"`

	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns"`

	// Default: 2
	MaxIdleConns int `yaml:"max_idle_conns"`

	// Default: 30m
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`

	// CheckpointSchedule is a cron expression for periodic saves.
	// Default: "*/5 * * * *"
	CheckpointSchedule string `yaml:"checkpoint_schedule"`

	// RestoreOnStart loads the stored snapshot before syncing.
	// Default: true when the store is enabled
	RestoreOnStart *bool `yaml:"restore_on_start"`
}

// RegisterConfig configures client registration with the admin.
type RegisterConfig struct {
	// Enabled registers once during "run".
	// Default: false
	Enabled bool `yaml:"enabled"`

	// AdminURL is the HTTP base URL of the admin.
	// Example: "http://localhost:9095"
	AdminURL string `yaml:"admin_url"`

	AppName     string `yaml:"app_name"`
	ContextPath string `yaml:"context_path"`

	// Host defaults to the first non-loopback IPv4 address.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Full registers a single catch-all "<context_path>/**" route.
	Full bool `yaml:"full"`

	// Default: "http"
	RPCType string `yaml:"rpc_type"`

	// Paths registered when Full is false.
	Paths []string `yaml:"paths"`

	// Default: 5s
	Timeout time.Duration `yaml:"timeout"`

	// Default: 3
	MaxRetries int `yaml:"max_retries"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks app secrets, tokens and passwords in log records.
	// Default: true
	RedactSecrets *bool `yaml:"redact_secrets"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "soul"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "gateway"
	Subsystem string `yaml:"subsystem"`

	// DispatchDurationBuckets defines histogram buckets for dispatch latency (seconds).
	// Default: [0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1]
	DispatchDurationBuckets []float64 `yaml:"dispatch_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "soul-gateway"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the OTLP connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health/live"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/health/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// Restore reports whether the stored snapshot is restored at startup.
func (c *StoreConfig) Restore() bool {
	if c.RestoreOnStart == nil {
		return true
	}
	return *c.RestoreOnStart
}

// MetricsEnabled reports whether metrics are collected.
func (c *MetricsConfig) MetricsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// Redact reports whether secrets are masked in logs.
func (c *LoggingConfig) Redact() bool {
	if c.RedactSecrets == nil {
		return true
	}
	return *c.RedactSecrets
}
