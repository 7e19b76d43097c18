package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"soul-hq/gateway/pkg/cache"
	"soul-hq/gateway/pkg/datasync"
	"soul-hq/gateway/pkg/dto"
	"soul-hq/gateway/pkg/match"
)

// controlPlane is a fake transport whose snapshot can change between
// connections and whose live stream can be cut.
type controlPlane struct {
	mu       sync.Mutex
	snapshot *dto.Snapshot
	down     bool
	cut      chan struct{}
}

func (cp *controlPlane) Connect(ctx context.Context) (datasync.Stream, error) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	if cp.down {
		return nil, errors.New("connection refused")
	}
	cp.cut = make(chan struct{})
	events, err := datasync.SnapshotEvents(cp.snapshot)
	if err != nil {
		return nil, err
	}
	return &cpStream{events: events, cut: cp.cut}, nil
}

func (cp *controlPlane) disconnect() {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.down = true
	close(cp.cut)
}

func (cp *controlPlane) restore(s *dto.Snapshot) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.snapshot = s
	cp.down = false
}

type cpStream struct {
	events []*datasync.Event
	cut    chan struct{}
}

func (s *cpStream) Snapshot(ctx context.Context) ([]*datasync.Event, error) { return s.events, nil }

func (s *cpStream) Next(ctx context.Context) (*datasync.Event, error) {
	select {
	case <-s.cut:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *cpStream) Close() error { return nil }

func rewriteSnapshot(withRule bool) *dto.Snapshot {
	s := &dto.Snapshot{
		Plugins: []dto.PluginData{{Name: "rewrite", Enabled: true, Sort: 1}},
		Selectors: []dto.SelectorData{{
			ID: "s1", PluginName: "rewrite", Enabled: true, Type: dto.SelectorCustom,
			Conditions: []dto.ConditionData{{ParamType: dto.ParamURI, Operator: dto.OpMatch, ParamValue: "/api/**"}},
		}},
	}
	if withRule {
		s.Rules = []dto.RuleData{{
			ID: "r1", SelectorID: "s1", Enabled: true,
			Conditions: []dto.ConditionData{{ParamType: dto.ParamHeader, Operator: dto.OpEquals, ParamName: "X-Env", ParamValue: "prod"}},
		}}
	}
	return s
}

func matchesRule(c *cache.Cache, req *match.Request) bool {
	for _, p := range c.Plugins() {
		sel := match.MatchSelector(c.Selectors(p.Name), req)
		if sel == nil {
			continue
		}
		if match.MatchRule(c.Rules(sel.ID), req) != nil {
			return true
		}
	}
	return false
}

func TestReconnect_StaleThenConverged(t *testing.T) {
	c := cache.New()
	subs := datasync.NewSubscribers()
	cp := &controlPlane{snapshot: rewriteSnapshot(true)}

	cfg := datasync.SessionConfig{InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, Multiplier: 2}
	sess, err := datasync.NewSession(cp, datasync.NewRouter(All(c, subs)...), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)
	if err := sess.WaitSynced(ctx); err != nil {
		t.Fatal(err)
	}

	req := &match.Request{Path: "/api/x", Header: http.Header{"X-Env": {"prod"}}}
	if !matchesRule(c, req) {
		t.Fatal("request should match before the outage")
	}

	cp.disconnect()
	waitUntil(t, func() bool { return sess.State() != datasync.StateSynced })
	if !matchesRule(c, req) {
		t.Error("cache must keep serving pre-disconnect state while disconnected")
	}

	// The rule is removed server side during the outage.
	cp.restore(rewriteSnapshot(false))
	waitUntil(t, func() bool { return sess.State() == datasync.StateSynced && c.Rule("r1") == nil })
	if matchesRule(c, req) {
		t.Error("request still matches a rule removed during the outage")
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
