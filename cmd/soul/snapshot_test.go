package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"soul-hq/gateway/pkg/cache"
	"soul-hq/gateway/pkg/datasync/file"
	"soul-hq/gateway/pkg/dto"
	"soul-hq/gateway/pkg/server"
	"soul-hq/gateway/pkg/store"
)

func TestFetchSnapshot(t *testing.T) {
	c := cache.New()
	c.UpsertPlugin(dto.PluginData{Name: "waf", Enabled: true})
	c.UpsertRule(dto.RuleData{ID: "r1", SelectorID: "s1", Enabled: true})

	mux := http.NewServeMux()
	mux.Handle(server.SnapshotPath, server.SnapshotHandler(c))
	ts := httptest.NewServer(mux)
	defer ts.Close()

	snap, err := fetchSnapshot(context.Background(), ts.URL+"/")
	if err != nil {
		t.Fatalf("fetchSnapshot() error = %v", err)
	}
	if len(snap.Plugins) != 1 || len(snap.Rules) != 1 {
		t.Errorf("fetchSnapshot() = %+v, want one plugin and one rule", snap)
	}

	out := filepath.Join(t.TempDir(), "out.yaml")
	if err := file.WriteSnapshot(out, snap); err != nil {
		t.Fatal(err)
	}
	back, err := file.LoadSnapshot(out)
	if err != nil {
		t.Fatalf("exported file does not load: %v", err)
	}
	if back.Len() != snap.Len() {
		t.Errorf("exported file has %d entities, want %d", back.Len(), snap.Len())
	}
}

func TestFetchSnapshot_AdminDisabled(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	if _, err := fetchSnapshot(context.Background(), ts.URL); err == nil {
		t.Error("fetchSnapshot() against a node without the admin endpoint should fail")
	}
}

func TestExportSnapshot_FromStore(t *testing.T) {
	dir := t.TempDir()
	snapPath := writeSnapshot(t, dir)
	dbPath := filepath.Join(dir, "soul.db")
	cfg := writeConfig(t, dir, "sync:\n  mode: file\n  file:\n    path: "+snapPath+
		"\nstore:\n  enabled: true\n  url: sqlite://"+dbPath+"\n")

	seed, err := file.LoadSnapshot(snapPath)
	if err != nil {
		t.Fatal(err)
	}
	st, err := store.Open(context.Background(), store.Config{URL: "sqlite://" + dbPath}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Save(context.Background(), seed); err != nil {
		t.Fatal(err)
	}
	st.Close()

	origCfg, origFlags := cfgFile, snapshotFlags
	defer func() { cfgFile, snapshotFlags = origCfg, origFlags }()
	cfgFile = cfg
	snapshotFlags.url = ""
	snapshotFlags.output = filepath.Join(dir, "export.json")
	snapshotFlags.timeout = 5 * time.Second

	var stderr bytes.Buffer
	snapshotExportCmd.SetErr(&stderr)
	defer snapshotExportCmd.SetErr(nil)

	if err := exportSnapshot(snapshotExportCmd, nil); err != nil {
		t.Fatalf("exportSnapshot() error = %v", err)
	}
	if !strings.Contains(stderr.String(), "Stored snapshot") {
		t.Errorf("stderr = %q, want stored snapshot version", stderr.String())
	}

	back, err := file.LoadSnapshot(snapshotFlags.output)
	if err != nil {
		t.Fatalf("exported file does not load: %v", err)
	}
	if back.Len() != seed.Len() {
		t.Errorf("exported %d entities, want %d", back.Len(), seed.Len())
	}
}
