package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"soul-hq/gateway/pkg/config"
	"soul-hq/gateway/pkg/telemetry"
)

const wafSnapshot = `
plugins:
  - name: waf
    sort: 10
    enabled: true
selectors:
  - id: s1
    plugin_name: waf
    type: 1
    enabled: true
    conditions:
      - param_type: uri
        operator: match
        param_value: /api/**
rules:
  - id: r1
    selector_id: s1
    enabled: true
    handle: '{"permission":"reject","statusCode":"451"}'
`

func writeSnapshot(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "snapshot.yaml")
	if err := os.WriteFile(path, []byte(wafSnapshot), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testNodeConfig(t *testing.T, snapshotPath, storeURL string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Gateway.ListenAddress = "127.0.0.1:0"
	cfg.Sync.Mode = config.SyncModeFile
	cfg.Sync.File.Path = snapshotPath
	cfg.Sync.Backoff.InitialInterval = 10 * time.Millisecond
	cfg.Sync.Backoff.MaxInterval = 50 * time.Millisecond
	cfg.Store.Enabled = storeURL != ""
	cfg.Store.URL = storeURL
	cfg.Store.CheckpointSchedule = "@every 1h"
	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return cfg
}

func testTelemetry(t *testing.T, cfg *config.Config) *telemetry.Telemetry {
	t.Helper()
	tel, err := telemetry.New(&cfg.Telemetry, "test", io.Discard)
	if err != nil {
		t.Fatalf("telemetry.New() error = %v", err)
	}
	return tel
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestNode_RunFileSync(t *testing.T) {
	dir := t.TempDir()
	storeURL := "sqlite://" + filepath.Join(dir, "soul.db")
	cfg := testNodeConfig(t, writeSnapshot(t, dir), storeURL)
	tel := testTelemetry(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n, err := buildNode(ctx, cfg, tel)
	if err != nil {
		t.Fatalf("buildNode() error = %v", err)
	}
	defer n.close()

	h := n.server.Handler()
	if rec := serve(h, http.MethodGet, "/health/ready"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readiness before sync = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	done := make(chan error, 1)
	go func() { done <- n.run(ctx) }()

	syncCtx, syncCancel := context.WithTimeout(ctx, 5*time.Second)
	defer syncCancel()
	if err := n.session.WaitSynced(syncCtx); err != nil {
		t.Fatalf("WaitSynced() error = %v", err)
	}

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{name: "readiness", target: "/health/ready", want: http.StatusOK},
		{name: "waf rejects matching path", target: "/api/orders", want: 451},
		{name: "no upstream for pass-through", target: "/public", want: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := serve(h, http.MethodGet, tt.target); rec.Code != tt.want {
				t.Errorf("GET %s = %d, want %d: %s", tt.target, rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run() did not return after cancel")
	}

	snap, _, err := n.store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() after shutdown error = %v", err)
	}
	if len(snap.Rules) != 1 || snap.Rules[0].ID != "r1" {
		t.Errorf("stored rules = %+v, want r1", snap.Rules)
	}
}

func TestNode_RestoresStoredSnapshot(t *testing.T) {
	dir := t.TempDir()
	storeURL := "sqlite://" + filepath.Join(dir, "soul.db")

	// Seed the store through one node, then start another whose control
	// plane is unreachable.
	seedCfg := testNodeConfig(t, writeSnapshot(t, dir), storeURL)
	seed, err := buildNode(context.Background(), seedCfg, testTelemetry(t, seedCfg))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- seed.run(ctx) }()
	if err := seed.session.WaitSynced(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	<-done
	seed.close()

	cfg := testNodeConfig(t, filepath.Join(dir, "missing.yaml"), storeURL)
	n, err := buildNode(context.Background(), cfg, testTelemetry(t, cfg))
	if err != nil {
		t.Fatalf("buildNode() error = %v", err)
	}
	defer n.close()

	if rec := serve(n.server.Handler(), http.MethodGet, "/api/orders"); rec.Code != 451 {
		t.Errorf("GET /api/orders from restored cache = %d, want 451", rec.Code)
	}
	if rec := serve(n.server.Handler(), http.MethodGet, "/health/ready"); rec.Code != http.StatusOK {
		t.Errorf("readiness after restore = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := n.plugins["waf"].Len(); got != 1 {
		t.Errorf("waf handle cache = %d entries, want 1", got)
	}
}

func TestNode_WithoutStore(t *testing.T) {
	dir := t.TempDir()
	cfg := testNodeConfig(t, writeSnapshot(t, dir), "")

	n, err := buildNode(context.Background(), cfg, testTelemetry(t, cfg))
	if err != nil {
		t.Fatalf("buildNode() error = %v", err)
	}
	defer n.close()

	if n.store != nil || n.checkpointer != nil {
		t.Error("store should not be opened when disabled")
	}
	if rec := serve(n.server.Handler(), http.MethodGet, "/api/orders"); rec.Code != http.StatusBadGateway {
		t.Errorf("GET /api/orders before sync = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestNewTransport(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SyncConfig
		wantErr bool
	}{
		{name: "file", cfg: config.SyncConfig{Mode: config.SyncModeFile, File: config.FileSyncConfig{Path: "snapshot.yaml"}}},
		{
			name: "websocket",
			cfg: config.SyncConfig{Mode: config.SyncModeWebsocket, Websocket: config.WebsocketSyncConfig{
				URLs:            []string{"ws://127.0.0.1:9095/websocket"},
				ReadLimit:       1 << 20,
				PingInterval:    time.Second,
				PingTimeout:     time.Second,
				SnapshotTimeout: time.Second,
				ControlRate:     1,
			}},
		},
		{name: "websocket without urls", cfg: config.SyncConfig{Mode: config.SyncModeWebsocket}, wantErr: true},
		{name: "unknown mode", cfg: config.SyncConfig{Mode: "zookeeper"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := newTransport(&tt.cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newTransport() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tr == nil {
				t.Error("newTransport() returned nil transport")
			}
		})
	}
}

func TestEndpoints(t *testing.T) {
	got := endpoints([]string{"/order/findById", "/order/save"})
	if len(got) != 2 {
		t.Fatalf("endpoints() = %d entries, want 2", len(got))
	}
	for _, e := range got {
		if !e.Enabled {
			t.Errorf("endpoint %s not enabled", e.Path)
		}
	}
}

