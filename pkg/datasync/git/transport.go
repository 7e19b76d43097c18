package git

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"soul-hq/gateway/pkg/config"
	"soul-hq/gateway/pkg/datasync"
	"soul-hq/gateway/pkg/datasync/file"
)

// Transport serves a snapshot file tracked in a git repository. Every new
// commit that changes the file and parses is emitted as a full refresh.
type Transport struct {
	cfg    *config.GitSyncConfig
	repo   *Repository
	logger *slog.Logger
}

// New creates a git transport. The clone happens on the first Connect.
func New(cfg *config.GitSyncConfig, logger *slog.Logger) (*Transport, error) {
	repo, err := NewRepository(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		cfg:    cfg,
		repo:   repo,
		logger: logger.With("component", "git_sync", "repository", cfg.Repository, "branch", cfg.Branch),
	}, nil
}

// Repository exposes the underlying clone.
func (t *Transport) Repository() *Repository {
	return t.repo
}

// Connect opens the clone, tries one pull and loads the snapshot at HEAD.
// A failed pull is logged and the local HEAD is served.
func (t *Transport) Connect(ctx context.Context) (datasync.Stream, error) {
	if err := t.repo.Open(ctx); err != nil {
		return nil, &datasync.TransportError{Op: "clone", Endpoint: t.cfg.Repository, Err: err}
	}
	if _, err := t.repo.Pull(ctx); err != nil {
		t.logger.Warn("pull failed, serving local HEAD", "error", err)
	}

	snap, err := file.LoadSnapshot(t.repo.SnapshotPath())
	if err != nil {
		return nil, &datasync.TransportError{Op: "load", Endpoint: t.cfg.Path, Err: err}
	}
	events, err := datasync.SnapshotEvents(snap)
	if err != nil {
		return nil, err
	}

	head, err := t.repo.Head()
	if err != nil {
		return nil, &datasync.TransportError{Op: "head", Endpoint: t.cfg.Repository, Err: err}
	}
	t.logger.Info("snapshot loaded", "commit_sha", short(head.SHA), "entities", snap.Len())

	sctx, cancel := context.WithCancel(ctx)
	s := &stream{initial: events, updates: make(chan []*datasync.Event, 1), cancel: cancel}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t.poll(sctx, s)
	}()
	return s, nil
}

func (t *Transport) poll(ctx context.Context, s *stream) {
	interval := t.cfg.PollInterval
	if interval <= 0 {
		interval = config.DefaultGitPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.check(ctx, s)
		}
	}
}

func (t *Transport) check(ctx context.Context, s *stream) {
	result, err := t.repo.Pull(ctx)
	if err != nil {
		if ctx.Err() == nil {
			t.logger.Error("error checking for changes", "error", err)
		}
		return
	}
	if !result.HadChanges() {
		return
	}

	log := t.logger.With("from_sha", short(result.FromSHA), "to_sha", short(result.ToSHA))
	if !result.Touches(t.cfg.Path) {
		log.Debug("snapshot unchanged, skipping reload", "changed_files", len(result.ChangedFiles))
		return
	}

	snap, err := file.LoadSnapshot(t.repo.SnapshotPath())
	if err != nil {
		log.Error("snapshot at new commit is invalid, keeping current state", "error", err)
		return
	}
	events, err := datasync.SnapshotEvents(snap)
	if err != nil {
		log.Error("snapshot encode failed", "error", err)
		return
	}

	log.Info("snapshot changed", "entities", snap.Len())
	select {
	case s.updates <- events:
	case <-ctx.Done():
	}
}

func short(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
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
