package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"soul-hq/gateway/pkg/cache"
	"soul-hq/gateway/pkg/config"
	"soul-hq/gateway/pkg/datasync"
	"soul-hq/gateway/pkg/datasync/file"
	"soul-hq/gateway/pkg/datasync/git"
	"soul-hq/gateway/pkg/datasync/handler"
	"soul-hq/gateway/pkg/datasync/websocket"
	"soul-hq/gateway/pkg/dispatch"
	"soul-hq/gateway/pkg/plugins"
	"soul-hq/gateway/pkg/register"
	"soul-hq/gateway/pkg/server"
	"soul-hq/gateway/pkg/store"
	"soul-hq/gateway/pkg/telemetry"
	"soul-hq/gateway/pkg/telemetry/health"
	"soul-hq/gateway/pkg/telemetry/logging"
)

// node is one assembled gateway process.
type node struct {
	cfg    *config.Config
	tel    *telemetry.Telemetry
	logger *slog.Logger

	cache   *cache.Cache
	subs    *datasync.Subscribers
	engine  *dispatch.Engine
	plugins map[string]plugins.Plugin

	store        *store.Store
	checkpointer *store.Checkpointer

	session *datasync.Session
	server  *server.Server

	// nodeID is the websocket handshake identity, empty in other modes.
	nodeID string

	restored atomic.Bool
}

// buildNode wires every component. With the store enabled the last saved
// snapshot is restored into the cache before the session starts.
func buildNode(ctx context.Context, cfg *config.Config, tel *telemetry.Telemetry) (*node, error) {
	n := &node{cfg: cfg, tel: tel, logger: tel.Logger}

	n.cache = cache.New(cache.WithObserver(tel.Metrics.Cache()))
	n.subs = datasync.NewSubscribers()

	engine, err := dispatch.New(n.cache, dispatchConfig(&cfg.Dispatch), n.logger)
	if err != nil {
		return nil, fmt.Errorf("dispatch engine: %w", err)
	}
	engine.SetObserver(tel.Metrics.Dispatch())
	n.engine = engine
	n.plugins = plugins.Install(engine, n.subs, n.logger)

	if cfg.Store.Enabled {
		if err := n.openStore(ctx); err != nil {
			return nil, err
		}
	}

	transport, err := newTransport(&cfg.Sync, n.logger)
	if err != nil {
		n.close()
		return nil, fmt.Errorf("sync transport: %w", err)
	}
	if ws, ok := transport.(*websocket.Transport); ok {
		n.nodeID = ws.NodeID()
	}
	session, err := datasync.NewSession(
		transport,
		datasync.NewRouter(handler.All(n.cache, n.subs)...),
		sessionConfig(&cfg.Sync.Backoff),
		n.logger,
	)
	if err != nil {
		n.close()
		return nil, fmt.Errorf("sync session: %w", err)
	}
	session.SetObserver(tel.Metrics.Sync())
	n.session = session

	tel.Health.RegisterCheck("sync", health.ConditionCheck(n.synced, "control plane not synced"))

	srv, err := server.New(server.Options{
		Config:     cfg,
		Dispatcher: engine,
		Exporter:   n.cache,
		Telemetry:  tel,
		Version:    Version,
		Commit:     GitCommit,
		BuildTime:  BuildDate,
	})
	if err != nil {
		n.close()
		return nil, err
	}
	n.server = srv
	return n, nil
}

func (n *node) openStore(ctx context.Context) error {
	st, err := store.Open(ctx, store.FromConfig(&n.cfg.Store), n.logger)
	if err != nil {
		return fmt.Errorf("snapshot store: %w", err)
	}
	n.store = st
	n.tel.Health.RegisterCheck("store", health.PingCheck(st))

	if n.cfg.Store.Restore() {
		snap, version, err := st.Load(ctx)
		switch {
		case errors.Is(err, store.ErrNotFound):
			n.logger.Info("no stored snapshot to restore")
		case err != nil:
			n.logger.Warn("stored snapshot unreadable, starting empty", "error", err)
		default:
			handler.Restore(n.cache, n.subs, snap)
			n.restored.Store(true)
			n.logger.Info("snapshot restored", "version", version, "entities", snap.Len())
		}
	}

	n.checkpointer = store.NewCheckpointer(st, n.cache.Export, n.cfg.Store.CheckpointSchedule, n.logger)
	return nil
}

// synced reports whether the node holds a configuration: either the session
// applied its first snapshot or a stored one was restored at startup.
func (n *node) synced() bool {
	if n.restored.Load() {
		return true
	}
	select {
	case <-n.session.Ready():
		return true
	default:
		return false
	}
}

// run serves traffic and syncs until ctx is cancelled or a component fails.
func (n *node) run(ctx context.Context) error {
	if n.nodeID != "" {
		ctx = logging.WithNodeID(ctx, n.nodeID)
	}
	if n.checkpointer != nil {
		if err := n.checkpointer.Start(ctx); err != nil {
			return fmt.Errorf("checkpoint schedule: %w", err)
		}
		if next := n.checkpointer.NextRun(); next != nil {
			n.logger.InfoContext(ctx, "next checkpoint scheduled", "at", next.Format(time.RFC3339))
		}
	}

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		return n.server.Start(ctx)
	})
	p.Go(func(ctx context.Context) error {
		return n.session.Run(ctx)
	})
	if n.cfg.Register.Enabled {
		p.Go(func(ctx context.Context) error {
			n.registerRoutes(ctx)
			return nil
		})
	}
	err := p.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.cfg.Gateway.ShutdownTimeout)
	defer cancel()
	if n.checkpointer != nil {
		if cerr := n.checkpointer.Stop(shutdownCtx); cerr != nil {
			n.logger.Error("final checkpoint failed", "error", cerr)
		}
	}
	return err
}

// registerRoutes registers once the session has synced. Failures are logged;
// the gateway keeps serving.
func (n *node) registerRoutes(ctx context.Context) {
	if err := n.session.WaitSynced(ctx); err != nil {
		return
	}
	err := register.Register(ctx, register.FromConfig(&n.cfg.Register), endpoints(n.cfg.Register.Paths), n.logger)
	if err != nil && ctx.Err() == nil {
		n.logger.Error("route registration failed", "error", err)
	}
}

// close releases the store. It is safe to call on a partially built node.
func (n *node) close() {
	if n.store == nil {
		return
	}
	if err := n.store.Close(); err != nil {
		n.logger.Error("failed to close snapshot store", "error", err)
	}
}

func newTransport(cfg *config.SyncConfig, logger *slog.Logger) (datasync.Transport, error) {
	switch cfg.Mode {
	case config.SyncModeFile:
		return file.New(file.Config{
			Path:     cfg.File.Path,
			Watch:    cfg.File.Watch,
			Debounce: cfg.File.Debounce,
		}, logger), nil
	case config.SyncModeGit:
		return git.New(&cfg.Git, logger)
	case config.SyncModeWebsocket:
		ws := cfg.Websocket
		return websocket.New(websocket.Config{
			URLs:            ws.URLs,
			NodeID:          ws.NodeID,
			ReadLimit:       ws.ReadLimit,
			DialTimeout:     ws.DialTimeout,
			WriteTimeout:    ws.WriteTimeout,
			PingInterval:    ws.PingInterval,
			PingTimeout:     ws.PingTimeout,
			SnapshotTimeout: ws.SnapshotTimeout,
			ControlRate:     ws.ControlRate,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown sync mode %q", cfg.Mode)
	}
}

func dispatchConfig(cfg *config.DispatchConfig) *dispatch.Config {
	return dispatch.DefaultConfig().
		WithDefaultPolicy(dispatch.DefaultPolicy(cfg.DefaultPolicy)).
		WithRejectStatus(cfg.RejectStatus)
}

func sessionConfig(cfg *config.BackoffConfig) datasync.SessionConfig {
	return datasync.SessionConfig{
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
		Multiplier:      cfg.Multiplier,
	}
}

func endpoints(paths []string) []register.Endpoint {
	out := make([]register.Endpoint, 0, len(paths))
	for _, p := range paths {
		out = append(out, register.Endpoint{Path: p, Enabled: true})
	}
	return out
}

// shutdownTelemetry flushes spans with a bounded wait.
func shutdownTelemetry(tel *telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		tel.Logger.Error("telemetry shutdown failed", "error", err)
	}
}
