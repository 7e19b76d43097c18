package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SOUL_"

// LoadConfig loads configuration from a YAML file at the specified path.
// Unknown keys are rejected. Defaults are applied before validation.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides
// for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention SOUL_SECTION_FIELD (e.g., SOUL_GATEWAY_LISTEN_ADDRESS) and always
// take precedence over the file.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envBoolPtr(key string, dst **bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = &b
		}
	}
}

func envFloat(key string, dst *float64) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

// envList splits a comma separated value.
func envList(key string, dst *[]string) {
	val := os.Getenv(EnvPrefix + key)
	if val == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Unparseable values are ignored and the file value is kept.
func applyEnvOverrides(cfg *Config) {
	// Gateway overrides
	envString("GATEWAY_LISTEN_ADDRESS", &cfg.Gateway.ListenAddress)
	envString("GATEWAY_UPSTREAM", &cfg.Gateway.Upstream)
	envDuration("GATEWAY_READ_TIMEOUT", &cfg.Gateway.ReadTimeout)
	envDuration("GATEWAY_WRITE_TIMEOUT", &cfg.Gateway.WriteTimeout)
	envDuration("GATEWAY_IDLE_TIMEOUT", &cfg.Gateway.IdleTimeout)
	envInt("GATEWAY_MAX_HEADER_BYTES", &cfg.Gateway.MaxHeaderBytes)
	envBool("GATEWAY_ADMIN_ENABLED", &cfg.Gateway.AdminEnabled)

	// Dispatch overrides
	envString("DISPATCH_DEFAULT_POLICY", &cfg.Dispatch.DefaultPolicy)
	envInt("DISPATCH_REJECT_STATUS", &cfg.Dispatch.RejectStatus)

	// Sync overrides
	envString("SYNC_MODE", &cfg.Sync.Mode)
	envList("SYNC_WEBSOCKET_URLS", &cfg.Sync.Websocket.URLs)
	envString("SYNC_WEBSOCKET_NODE_ID", &cfg.Sync.Websocket.NodeID)
	envString("SYNC_FILE_PATH", &cfg.Sync.File.Path)
	envBool("SYNC_FILE_WATCH", &cfg.Sync.File.Watch)
	envString("SYNC_GIT_REPOSITORY", &cfg.Sync.Git.Repository)
	envString("SYNC_GIT_BRANCH", &cfg.Sync.Git.Branch)
	envString("SYNC_GIT_PATH", &cfg.Sync.Git.Path)
	envString("SYNC_GIT_AUTH_TYPE", &cfg.Sync.Git.Auth.Type)
	envString("SYNC_GIT_AUTH_TOKEN", &cfg.Sync.Git.Auth.Token)
	envString("SYNC_GIT_AUTH_SSH_KEY_PATH", &cfg.Sync.Git.Auth.SSHKeyPath)
	envString("SYNC_GIT_AUTH_SSH_KEY_PASSPHRASE", &cfg.Sync.Git.Auth.SSHKeyPassphrase)
	envDuration("SYNC_GIT_POLL_INTERVAL", &cfg.Sync.Git.PollInterval)

	// Store overrides
	envBool("STORE_ENABLED", &cfg.Store.Enabled)
	envString("STORE_URL", &cfg.Store.URL)
	envString("STORE_CHECKPOINT_SCHEDULE", &cfg.Store.CheckpointSchedule)
	envBoolPtr("STORE_RESTORE_ON_START", &cfg.Store.RestoreOnStart)

	// Register overrides
	envBool("REGISTER_ENABLED", &cfg.Register.Enabled)
	envString("REGISTER_ADMIN_URL", &cfg.Register.AdminURL)
	envString("REGISTER_APP_NAME", &cfg.Register.AppName)
	envString("REGISTER_CONTEXT_PATH", &cfg.Register.ContextPath)
	envString("REGISTER_HOST", &cfg.Register.Host)
	envInt("REGISTER_PORT", &cfg.Register.Port)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBoolPtr("TELEMETRY_LOGGING_REDACT_SECRETS", &cfg.Telemetry.Logging.RedactSecrets)
	envBoolPtr("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envFloat("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
}
