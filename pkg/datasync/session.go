package datasync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"soul-hq/gateway/pkg/dto"
	"soul-hq/gateway/pkg/telemetry/tracing"
)

// ErrInvalidConfig is wrapped by SessionConfig.Validate failures.
var ErrInvalidConfig = errors.New("invalid sync session config")

// State is the connection state of a Session.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSynced
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSynced:
		return "synced"
	default:
		return "unknown"
	}
}

// Observer receives session lifecycle notifications, typically for metrics.
type Observer interface {
	StateChanged(s State)
	EventApplied(kind dto.ConfigGroup, op dto.DataEventType)
	EventDropped(kind dto.ConfigGroup, reason string)
	Reconnecting(wait time.Duration)
	SnapshotApplied(d time.Duration)
}

// SessionConfig controls reconnect backoff.
type SessionConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultSessionConfig returns the reconnect policy used when none is set.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		Multiplier:      2,
	}
}

// Validate checks the backoff settings.
func (c SessionConfig) Validate() error {
	if c.InitialInterval <= 0 {
		return fmt.Errorf("%w: initial interval must be positive", ErrInvalidConfig)
	}
	if c.MaxInterval < c.InitialInterval {
		return fmt.Errorf("%w: max interval must be >= initial interval", ErrInvalidConfig)
	}
	if c.Multiplier < 1 {
		return fmt.Errorf("%w: multiplier must be >= 1", ErrInvalidConfig)
	}
	return nil
}

// Session keeps one node in sync with the control plane.
type Session struct {
	transport Transport
	router    *Router
	cfg       SessionConfig
	logger    *slog.Logger
	observer  Observer

	state     atomic.Int32
	ready     chan struct{}
	readyOnce sync.Once
}

// NewSession creates a session. A nil logger falls back to slog.Default.
func NewSession(transport Transport, router *Router, cfg SessionConfig, logger *slog.Logger) (*Session, error) {
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	if router == nil {
		return nil, errors.New("router is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		transport: transport,
		router:    router,
		cfg:       cfg,
		logger:    logger.With("component", "datasync"),
		ready:     make(chan struct{}),
	}, nil
}

// SetObserver installs o. It must be called before Run.
func (s *Session) SetObserver(o Observer) {
	s.observer = o
}

// State returns the current connection state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Ready is closed the first time the session reaches StateSynced.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// WaitSynced blocks until the first full snapshot has been applied.
func (s *Session) WaitSynced(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) setState(st State) {
	if State(s.state.Swap(int32(st))) == st {
		return
	}
	s.logger.Debug("sync state changed", "state", st.String())
	if st == StateSynced {
		s.readyOnce.Do(func() { close(s.ready) })
	}
	if s.observer != nil {
		s.observer.StateChanged(st)
	}
}

// Run connects, syncs and reconnects until ctx is cancelled. It returns nil
// on cancellation.
func (s *Session) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.InitialInterval
	b.MaxInterval = s.cfg.MaxInterval
	b.Multiplier = s.cfg.Multiplier

	for {
		if ctx.Err() != nil {
			s.setState(StateDisconnected)
			return nil
		}

		s.setState(StateConnecting)
		synced, err := s.runOnce(ctx)
		s.setState(StateDisconnected)
		if ctx.Err() != nil {
			return nil
		}
		if synced {
			b.Reset()
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			wait = s.cfg.MaxInterval
		}
		s.logger.Warn("control plane connection lost, cache kept",
			"error", err,
			"retry_in", wait.String(),
		)
		if s.observer != nil {
			s.observer.Reconnecting(wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// runOnce serves one connection. It reports whether a snapshot was applied.
func (s *Session) runOnce(ctx context.Context) (bool, error) {
	stream, err := s.transport.Connect(ctx)
	if err != nil {
		return false, err
	}
	defer stream.Close()

	events, err := stream.Snapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("full snapshot: %w", err)
	}
	s.applySnapshot(ctx, events)
	s.setState(StateSynced)
	s.logger.Info("synced with control plane", "events", len(events))

	for {
		ev, err := stream.Next(ctx)
		if err != nil {
			var decErr *DecodeError
			if errors.As(err, &decErr) {
				s.drop(dto.ConfigGroup(decErr.Kind), err)
				continue
			}
			return true, err
		}
		s.apply(ctx, ev)
	}
}

// applySnapshot applies owners before the entities that reference them.
func (s *Session) applySnapshot(ctx context.Context, events []*Event) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "sync.snapshot")
	defer span.End()

	rank := make(map[dto.ConfigGroup]int, len(dto.AllGroups))
	for i, g := range dto.AllGroups {
		rank[g] = i
	}
	ordered := append([]*Event(nil), events...)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, ok := rank[ordered[i].Kind]
		if !ok {
			ri = len(rank)
		}
		rj, ok := rank[ordered[j].Kind]
		if !ok {
			rj = len(rank)
		}
		return ri < rj
	})

	seen := make(map[dto.ConfigGroup]bool)
	for _, ev := range ordered {
		if ev.Op == dto.EventFullRefresh {
			seen[ev.Kind] = true
		}
		s.apply(ctx, ev)
	}
	for _, g := range s.router.Kinds() {
		if !seen[g] {
			s.logger.Warn("snapshot missing kind, keeping cached entries", "kind", string(g))
		}
	}

	span.SetAttributes(attribute.Int(tracing.AttrSyncEvents, len(events)))
	if s.observer != nil {
		s.observer.SnapshotApplied(time.Since(start))
	}
}

func (s *Session) apply(ctx context.Context, ev *Event) {
	_, span := otel.Tracer(tracerName).Start(ctx, "sync.apply")
	span.SetAttributes(tracing.SyncEventAttributes(string(ev.Kind), string(ev.Op))...)
	defer span.End()

	if err := s.router.Route(ev); err != nil {
		tracing.SetError(span, err)
		s.drop(ev.Kind, err)
		return
	}
	if s.observer != nil {
		s.observer.EventApplied(ev.Kind, ev.Op)
	}
}

func (s *Session) drop(kind dto.ConfigGroup, err error) {
	reason := "handler"
	var decErr *DecodeError
	switch {
	case errors.Is(err, ErrUnknownKind):
		reason = "unknown_kind"
	case errors.Is(err, ErrUnknownOperation):
		reason = "unknown_operation"
	case errors.As(err, &decErr):
		reason = "decode"
	}
	s.logger.Warn("dropping sync event", "kind", string(kind), "reason", reason, "error", err)
	if s.observer != nil {
		s.observer.EventDropped(kind, reason)
	}
}

const tracerName = "soul-hq/gateway/datasync"
