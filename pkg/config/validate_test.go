package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(MinimalConfig()); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := Validate(&Config{})
	if err == nil {
		t.Fatal("Validate() error = nil, want error")
	}

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Validate() error type = %T, want ValidationError", err)
	}
	if len(validationErr.Errors) < 2 {
		t.Errorf("len(Errors) = %d, want at least 2", len(validationErr.Errors))
	}
	if !strings.Contains(validationErr.Error(), "validation failed with") {
		t.Errorf("Error() = %q, want multi-error message", validationErr.Error())
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "empty listen address",
			mutate:    func(c *Config) { c.Gateway.ListenAddress = "" },
			wantField: "gateway.listen_address",
		},
		{
			name:      "relative upstream",
			mutate:    func(c *Config) { c.Gateway.Upstream = "localhost:8080/api" },
			wantField: "gateway.upstream",
		},
		{
			name:      "huge header limit",
			mutate:    func(c *Config) { c.Gateway.MaxHeaderBytes = 11 * 1024 * 1024 },
			wantField: "gateway.max_header_bytes",
		},
		{
			name:      "unknown dispatch policy",
			mutate:    func(c *Config) { c.Dispatch.DefaultPolicy = "drop" },
			wantField: "dispatch.default_policy",
		},
		{
			name:      "2xx reject status",
			mutate:    func(c *Config) { c.Dispatch.RejectStatus = 200 },
			wantField: "dispatch.reject_status",
		},
		{
			name:      "backoff max below initial",
			mutate:    func(c *Config) { c.Sync.Backoff.MaxInterval = c.Sync.Backoff.InitialInterval / 2 },
			wantField: "sync.backoff.max_interval",
		},
		{
			name:      "non websocket url",
			mutate:    func(c *Config) { c.Sync.Websocket.URLs = []string{"ftp://admin"} },
			wantField: "sync.websocket.urls[0]",
		},
		{
			name: "git without repository",
			mutate: func(c *Config) {
				c.Sync.Mode = "git"
			},
			wantField: "sync.git.repository",
		},
		{
			name: "git token auth without token",
			mutate: func(c *Config) {
				c.Sync.Mode = "git"
				c.Sync.Git.Repository = "https://example.com/x.git"
				c.Sync.Git.Auth.Type = "token"
			},
			wantField: "sync.git.auth.token",
		},
		{
			name: "store bad scheme",
			mutate: func(c *Config) {
				c.Store.Enabled = true
				c.Store.URL = "mysql://db"
			},
			wantField: "store.url",
		},
		{
			name: "store bad cron",
			mutate: func(c *Config) {
				c.Store.Enabled = true
				c.Store.CheckpointSchedule = "every five minutes"
			},
			wantField: "store.checkpoint_schedule",
		},
		{
			name: "register without app name",
			mutate: func(c *Config) {
				c.Register = RegisterConfig{Enabled: true, AdminURL: "http://admin:9095", ContextPath: "/http", Port: 8189, Full: true}
			},
			wantField: "register.app_name",
		},
		{
			name:      "bad log level",
			mutate:    func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			wantField: "telemetry.logging.level",
		},
		{
			name: "tracing without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
			},
			wantField: "telemetry.tracing.endpoint",
		},
		{
			name:      "relative readiness path",
			mutate:    func(c *Config) { c.Telemetry.Health.ReadinessPath = "ready" },
			wantField: "telemetry.health.readiness_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			var validationErr ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			for _, fe := range validationErr.Errors {
				if fe.Field == tt.wantField {
					return
				}
			}
			t.Errorf("Validate() errors = %v, want field %q", validationErr.Errors, tt.wantField)
		})
	}
}

func TestValidate_DisabledSectionsSkipped(t *testing.T) {
	cfg := MinimalConfig()
	cfg.Store.URL = "mysql://db"
	cfg.Register.AdminURL = "::"

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v, want nil for disabled sections", err)
	}
}
