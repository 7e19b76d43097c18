package config

import (
	"testing"
	"time"
)

// MinimalConfig returns a configuration that passes validation.
func MinimalConfig() *Config {
	cfg := &Config{
		Sync: SyncConfig{
			Websocket: WebsocketSyncConfig{URLs: []string{"ws://localhost:9095/websocket"}},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"listen address", cfg.Gateway.ListenAddress, DefaultListenAddress},
		{"read timeout", cfg.Gateway.ReadTimeout, DefaultReadTimeout},
		{"shutdown timeout", cfg.Gateway.ShutdownTimeout, DefaultShutdownTimeout},
		{"dispatch policy", cfg.Dispatch.DefaultPolicy, DefaultDispatchPolicy},
		{"reject status", cfg.Dispatch.RejectStatus, DefaultRejectStatus},
		{"sync mode", cfg.Sync.Mode, DefaultSyncMode},
		{"backoff initial", cfg.Sync.Backoff.InitialInterval, DefaultBackoffInitialInterval},
		{"backoff max", cfg.Sync.Backoff.MaxInterval, DefaultBackoffMaxInterval},
		{"backoff multiplier", cfg.Sync.Backoff.Multiplier, DefaultBackoffMultiplier},
		{"ws read limit", cfg.Sync.Websocket.ReadLimit, DefaultWebsocketReadLimit},
		{"git branch", cfg.Sync.Git.Branch, DefaultGitBranch},
		{"git auth", cfg.Sync.Git.Auth.Type, DefaultGitAuthType},
		{"git depth", cfg.Sync.Git.Depth, DefaultGitDepth},
		{"store url", cfg.Store.URL, DefaultStoreURL},
		{"checkpoint", cfg.Store.CheckpointSchedule, DefaultStoreCheckpointSchedule},
		{"rpc type", cfg.Register.RPCType, DefaultRegisterRPCType},
		{"log level", cfg.Telemetry.Logging.Level, DefaultLoggingLevel},
		{"metrics path", cfg.Telemetry.Metrics.Path, DefaultPrometheusPath},
		{"sampler", cfg.Telemetry.Tracing.Sampler, DefaultTracingSampler},
		{"readiness", cfg.Telemetry.Health.ReadinessPath, DefaultReadinessPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("default = %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Gateway:  GatewayConfig{ListenAddress: "0.0.0.0:1", ReadTimeout: time.Second},
		Dispatch: DispatchConfig{DefaultPolicy: "reject", RejectStatus: 451},
		Sync:     SyncConfig{Mode: "file", Backoff: BackoffConfig{Multiplier: 1.5}},
	}
	ApplyDefaults(cfg)

	if cfg.Gateway.ListenAddress != "0.0.0.0:1" {
		t.Errorf("ListenAddress = %q, want %q", cfg.Gateway.ListenAddress, "0.0.0.0:1")
	}
	if cfg.Gateway.ReadTimeout != time.Second {
		t.Errorf("ReadTimeout = %v, want %v", cfg.Gateway.ReadTimeout, time.Second)
	}
	if cfg.Dispatch.RejectStatus != 451 {
		t.Errorf("RejectStatus = %d, want 451", cfg.Dispatch.RejectStatus)
	}
	if cfg.Sync.Backoff.Multiplier != 1.5 {
		t.Errorf("Multiplier = %v, want 1.5", cfg.Sync.Backoff.Multiplier)
	}
}

func TestApplyDefaults_BucketsNotShared(t *testing.T) {
	a, b := &Config{}, &Config{}
	ApplyDefaults(a)
	ApplyDefaults(b)

	a.Telemetry.Metrics.DispatchDurationBuckets[0] = 42
	if b.Telemetry.Metrics.DispatchDurationBuckets[0] == 42 {
		t.Error("default buckets are shared between configs")
	}
	if DefaultDispatchDurationBuckets[0] == 42 {
		t.Error("package default buckets were mutated")
	}
}

func TestOptionalBools(t *testing.T) {
	on, off := true, false

	var store StoreConfig
	if !store.Restore() {
		t.Error("Restore() = false for unset, want true")
	}
	store.RestoreOnStart = &off
	if store.Restore() {
		t.Error("Restore() = true, want false")
	}

	var metrics MetricsConfig
	if !metrics.MetricsEnabled() {
		t.Error("MetricsEnabled() = false for unset, want true")
	}
	metrics.Enabled = &off
	if metrics.MetricsEnabled() {
		t.Error("MetricsEnabled() = true, want false")
	}

	logging := LoggingConfig{RedactSecrets: &on}
	if !logging.Redact() {
		t.Error("Redact() = false, want true")
	}
	logging.RedactSecrets = &off
	if logging.Redact() {
		t.Error("Redact() = true, want false")
	}
}
