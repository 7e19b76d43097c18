package file

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"soul-hq/gateway/pkg/datasync"
)

// Config configures the file transport.
type Config struct {
	Path     string
	Watch    bool
	Debounce time.Duration
}

// Transport serves a snapshot file as a control plane.
type Transport struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a file transport.
func New(cfg Config, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 100 * time.Millisecond
	}
	return &Transport{cfg: cfg, logger: logger.With("component", "file_sync", "path", cfg.Path)}
}

// Connect loads the file. With Watch enabled the stream emits a fresh
// full refresh after every change that parses.
func (t *Transport) Connect(ctx context.Context) (datasync.Stream, error) {
	snap, err := LoadSnapshot(t.cfg.Path)
	if err != nil {
		return nil, &datasync.TransportError{Op: "load", Endpoint: t.cfg.Path, Err: err}
	}
	events, err := datasync.SnapshotEvents(snap)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &stream{initial: events, updates: make(chan []*datasync.Event, 1), cancel: cancel}

	if t.cfg.Watch {
		w, err := NewWatcher(t.cfg.Path, t.cfg.Debounce, t.logger)
		if err != nil {
			cancel()
			return nil, &datasync.TransportError{Op: "watch", Endpoint: t.cfg.Path, Err: err}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := w.Watch(sctx, func() { t.reload(sctx, s) }); err != nil {
				t.logger.Error("snapshot watcher stopped", "error", err)
			}
		}()
	}
	return s, nil
}

func (t *Transport) reload(ctx context.Context, s *stream) {
	snap, err := LoadSnapshot(t.cfg.Path)
	if err != nil {
		t.logger.Error("snapshot reload failed, keeping current state", "error", err)
		return
	}
	events, err := datasync.SnapshotEvents(snap)
	if err != nil {
		t.logger.Error("snapshot encode failed", "error", err)
		return
	}
	t.logger.Info("snapshot file changed", "entities", snap.Len())
	select {
	case s.updates <- events:
	case <-ctx.Done():
	}
}

type stream struct {
	initial []*datasync.Event
	updates chan []*datasync.Event
	pending []*datasync.Event
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func (s *stream) Snapshot(ctx context.Context) ([]*datasync.Event, error) {
	return s.initial, nil
}

func (s *stream) Next(ctx context.Context) (*datasync.Event, error) {
	for len(s.pending) == 0 {
		select {
		case events := <-s.updates:
			s.pending = events
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	ev := s.pending[0]
	s.pending = s.pending[1:]
	return ev, nil
}

func (s *stream) Close() error {
	s.cancel()
	s.wg.Wait()
	return nil
}
