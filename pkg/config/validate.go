package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "gateway.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All errors are collected before returning.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateGateway(&cfg.Gateway)...)
	errs = append(errs, validateDispatch(&cfg.Dispatch)...)
	errs = append(errs, validateSync(&cfg.Sync)...)
	errs = append(errs, validateStore(&cfg.Store)...)
	errs = append(errs, validateRegister(&cfg.Register)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateGateway(cfg *GatewayConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "gateway.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.Upstream != "" {
		if u, err := url.Parse(cfg.Upstream); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "gateway.upstream",
				Message: fmt.Sprintf("invalid upstream URL %q", cfg.Upstream),
			})
		}
	}

	for field, d := range map[string]time.Duration{
		"gateway.read_timeout":     cfg.ReadTimeout,
		"gateway.write_timeout":    cfg.WriteTimeout,
		"gateway.idle_timeout":     cfg.IdleTimeout,
		"gateway.shutdown_timeout": cfg.ShutdownTimeout,
	} {
		if d < 0 {
			errs = append(errs, FieldError{Field: field, Message: "timeout must be positive"})
		}
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "gateway.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 { // 10MB is excessive
		errs = append(errs, FieldError{
			Field:   "gateway.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}

	return errs
}

func validateDispatch(cfg *DispatchConfig) []FieldError {
	var errs []FieldError

	switch cfg.DefaultPolicy {
	case "pass-through", "reject":
	default:
		errs = append(errs, FieldError{
			Field:   "dispatch.default_policy",
			Message: fmt.Sprintf("invalid policy %q: must be 'pass-through' or 'reject'", cfg.DefaultPolicy),
		})
	}

	if cfg.RejectStatus < 400 || cfg.RejectStatus > 599 {
		errs = append(errs, FieldError{
			Field:   "dispatch.reject_status",
			Message: "reject status must be a 4xx or 5xx code",
		})
	}

	return errs
}

func validateSync(cfg *SyncConfig) []FieldError {
	var errs []FieldError

	if cfg.Backoff.InitialInterval <= 0 {
		errs = append(errs, FieldError{Field: "sync.backoff.initial_interval", Message: "must be positive"})
	}
	if cfg.Backoff.MaxInterval < cfg.Backoff.InitialInterval {
		errs = append(errs, FieldError{Field: "sync.backoff.max_interval", Message: "must not be below initial_interval"})
	}
	if cfg.Backoff.Multiplier < 1 {
		errs = append(errs, FieldError{Field: "sync.backoff.multiplier", Message: "must be at least 1"})
	}

	switch cfg.Mode {
	case SyncModeWebsocket:
		if len(cfg.Websocket.URLs) == 0 {
			errs = append(errs, FieldError{
				Field:   "sync.websocket.urls",
				Message: "at least one admin URL is required in websocket mode",
			})
		}
		for i, raw := range cfg.Websocket.URLs {
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "ws" && u.Scheme != "wss" && u.Scheme != "http" && u.Scheme != "https") {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("sync.websocket.urls[%d]", i),
					Message: fmt.Sprintf("invalid websocket URL %q", raw),
				})
			}
		}
		if cfg.Websocket.ReadLimit <= 0 {
			errs = append(errs, FieldError{Field: "sync.websocket.read_limit", Message: "must be positive"})
		}
		if cfg.Websocket.ControlRate <= 0 {
			errs = append(errs, FieldError{Field: "sync.websocket.control_rate", Message: "must be positive"})
		}
	case SyncModeFile:
		if cfg.File.Path == "" {
			errs = append(errs, FieldError{
				Field:   "sync.file.path",
				Message: "snapshot path is required in file mode",
			})
		}
	case SyncModeGit:
		errs = append(errs, validateGit(&cfg.Git)...)
	default:
		errs = append(errs, FieldError{
			Field:   "sync.mode",
			Message: fmt.Sprintf("invalid mode %q: must be 'websocket', 'file', or 'git'", cfg.Mode),
		})
	}

	return errs
}

func validateGit(cfg *GitSyncConfig) []FieldError {
	var errs []FieldError

	if cfg.Repository == "" {
		errs = append(errs, FieldError{
			Field:   "sync.git.repository",
			Message: "repository is required in git mode",
		})
	}
	if cfg.Path == "" {
		errs = append(errs, FieldError{Field: "sync.git.path", Message: "snapshot path is required"})
	}
	if cfg.PollInterval < time.Second {
		errs = append(errs, FieldError{Field: "sync.git.poll_interval", Message: "must be at least 1s"})
	}
	if cfg.Depth < 0 {
		errs = append(errs, FieldError{Field: "sync.git.depth", Message: "must be non-negative"})
	}

	switch cfg.Auth.Type {
	case "none":
	case "token":
		if cfg.Auth.Token == "" {
			errs = append(errs, FieldError{Field: "sync.git.auth.token", Message: "token is required for token auth"})
		}
	case "ssh":
		if cfg.Auth.SSHKeyPath == "" {
			errs = append(errs, FieldError{Field: "sync.git.auth.ssh_key_path", Message: "key path is required for ssh auth"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "sync.git.auth.type",
			Message: fmt.Sprintf("invalid auth type %q: must be 'token', 'ssh', or 'none'", cfg.Auth.Type),
		})
	}

	return errs
}

func validateStore(cfg *StoreConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}
	var errs []FieldError

	u, err := url.Parse(cfg.URL)
	if err != nil {
		errs = append(errs, FieldError{Field: "store.url", Message: fmt.Sprintf("invalid URL: %v", err)})
	} else {
		switch u.Scheme {
		case "sqlite", "sqlite3", "postgres", "postgresql":
		default:
			errs = append(errs, FieldError{
				Field:   "store.url",
				Message: fmt.Sprintf("unsupported scheme %q: must be sqlite, sqlite3 or postgres", u.Scheme),
			})
		}
	}

	if cfg.MaxOpenConns < 0 || cfg.MaxIdleConns < 0 {
		errs = append(errs, FieldError{Field: "store.max_open_conns", Message: "connection limits must be non-negative"})
	}

	if _, err := cron.ParseStandard(cfg.CheckpointSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "store.checkpoint_schedule",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}

	return errs
}

func validateRegister(cfg *RegisterConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}
	var errs []FieldError

	if u, err := url.Parse(cfg.AdminURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "register.admin_url",
			Message: fmt.Sprintf("invalid admin URL %q", cfg.AdminURL),
		})
	}
	if cfg.AppName == "" {
		errs = append(errs, FieldError{Field: "register.app_name", Message: "app name is required"})
	}
	if cfg.ContextPath == "" || cfg.ContextPath[0] != '/' {
		errs = append(errs, FieldError{Field: "register.context_path", Message: "context path must start with /"})
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, FieldError{Field: "register.port", Message: "port must be between 1 and 65535"})
	}
	if !cfg.Full && len(cfg.Paths) == 0 {
		errs = append(errs, FieldError{Field: "register.paths", Message: "paths are required unless full is set"})
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{Field: "register.max_retries", Message: "must be non-negative"})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.MetricsEnabled() && (cfg.Metrics.Path == "" || cfg.Metrics.Path[0] != '/') {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with / when metrics are enabled",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	for field, p := range map[string]string{
		"telemetry.health.liveness_path":  cfg.Health.LivenessPath,
		"telemetry.health.readiness_path": cfg.Health.ReadinessPath,
	} {
		if p == "" || p[0] != '/' {
			errs = append(errs, FieldError{Field: field, Message: "path must start with /"})
		}
	}
	if cfg.Health.CheckTimeout < 0 || cfg.Health.CheckTimeout > 60*time.Second {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.check_timeout",
			Message: "check timeout must be between 0 and 60s",
		})
	}

	return errs
}
