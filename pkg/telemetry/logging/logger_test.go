package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"soul-hq/gateway/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid JSON config", config: Config{Level: "info", Format: "json", RedactSecrets: true}},
		{name: "valid text config", config: Config{Level: "debug", Format: "text"}},
		{name: "valid console config", config: Config{Level: "warn", Format: "console", RedactSecrets: true}},
		{name: "defaults", config: Config{}},
		{name: "invalid log level", config: Config{Level: "invalid", Format: "json"}, wantErr: true},
		{name: "invalid format", config: Config{Level: "info", Format: "invalid"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.config.Writer = &buf
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if err != nil {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("output contains info record at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("output missing warn record: %s", out)
	}
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithNodeID(ctx, "node-1")
	ctx = WithPlugin(ctx, "rewrite")
	logger.InfoContext(ctx, "request dispatched", "status", 200)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}

	want := map[string]string{"request_id": "req-123", "node_id": "node-1", "plugin": "rewrite"}
	for k, v := range want {
		if record[k] != v {
			t.Errorf("record[%q] = %v, want %q", k, record[k], v)
		}
	}
	if record["status"] != float64(200) {
		t.Errorf("record[status] = %v, want 200", record["status"])
	}
}

func TestLogger_Redaction(t *testing.T) {
	tests := []struct {
		name    string
		redact  bool
		wantHit bool
	}{
		{name: "redaction enabled", redact: true, wantHit: false},
		{name: "redaction disabled", redact: false, wantHit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(Config{Level: "info", Format: "text", RedactSecrets: tt.redact, Writer: &buf})
			if err != nil {
				t.Fatal(err)
			}

			logger.With("app_secret", "0123456789abcdef").Info("registering",
				"header", "Bearer eyJhbGciOiJIUzI1NiJ9")

			out := buf.String()
			leaked := strings.Contains(out, "0123456789abcdef") || strings.Contains(out, "eyJhbGciOiJIUzI1NiJ9")
			if leaked != tt.wantHit {
				t.Errorf("secret in output = %v, want %v\n%s", leaked, tt.wantHit, out)
			}
		})
	}
}

func TestFromConfig(t *testing.T) {
	var buf bytes.Buffer
	off := false
	cfg := FromConfig(&config.LoggingConfig{Level: "debug", Format: "text", RedactSecrets: &off}, &buf)

	if cfg.Level != "debug" || cfg.Format != "text" {
		t.Errorf("FromConfig() = %+v, want level debug and format text", cfg)
	}
	if cfg.RedactSecrets {
		t.Error("FromConfig().RedactSecrets = true, want false")
	}
	if cfg.Writer != &buf {
		t.Error("FromConfig() did not keep the writer")
	}

	if !FromConfig(&config.LoggingConfig{}, nil).RedactSecrets {
		t.Error("FromConfig() with unset redact_secrets should redact")
	}
}
