// Package websocket implements the control plane transport over a
// persistent websocket connection.
//
// After connecting, the node sends a MYSELF request and the control plane
// answers with a full refresh of every entity kind. Incremental frames that
// arrive before the snapshot is complete are held back and delivered in
// order once it is.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	ws "github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"golang.org/x/time/rate"

	"soul-hq/gateway/pkg/datasync"
	"soul-hq/gateway/pkg/dto"
)

// NodeHeader carries the node id on the websocket handshake.
const NodeHeader = "X-Soul-Node"

// snapshotRequest asks the control plane for a full refresh.
const snapshotRequest = "MYSELF"

// Config configures the websocket transport.
type Config struct {
	// URLs are tried in order; the transport fails over on dial errors.
	URLs []string

	// NodeID identifies this node. Generated when empty.
	NodeID string

	ReadLimit       int64
	DialTimeout     time.Duration
	WriteTimeout    time.Duration
	PingInterval    time.Duration
	PingTimeout     time.Duration
	SnapshotTimeout time.Duration

	// ControlRate caps snapshot requests per second across reconnects.
	ControlRate float64
}

// DefaultConfig returns transport defaults for the given endpoints.
func DefaultConfig(urls ...string) Config {
	return Config{
		URLs:            urls,
		ReadLimit:       8 << 20,
		DialTimeout:     10 * time.Second,
		WriteTimeout:    5 * time.Second,
		PingInterval:    30 * time.Second,
		PingTimeout:     5 * time.Second,
		SnapshotTimeout: 30 * time.Second,
		ControlRate:     1,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if len(c.URLs) == 0 {
		return errors.New("websocket: at least one url is required")
	}
	if c.ReadLimit <= 0 {
		return errors.New("websocket: read limit must be positive")
	}
	if c.PingInterval <= 0 || c.PingTimeout <= 0 {
		return errors.New("websocket: ping interval and timeout must be positive")
	}
	if c.SnapshotTimeout <= 0 {
		return errors.New("websocket: snapshot timeout must be positive")
	}
	if c.ControlRate <= 0 {
		return errors.New("websocket: control rate must be positive")
	}
	return nil
}

// Transport dials the control plane.
type Transport struct {
	cfg     Config
	logger  *slog.Logger
	limiter *rate.Limiter

	mu   sync.Mutex
	next int
}

// New creates a transport. A nil logger falls back to slog.Default.
func New(cfg Config, logger *slog.Logger) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.NodeID == "" {
		cfg.NodeID = uuid.NewString()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		cfg:     cfg,
		logger:  logger.With("component", "websocket", "node_id", cfg.NodeID),
		limiter: rate.NewLimiter(rate.Limit(cfg.ControlRate), 1),
	}, nil
}

// NodeID returns the id sent on the handshake.
func (t *Transport) NodeID() string {
	return t.cfg.NodeID
}

// Connect dials the endpoints in turn starting from the last good one.
func (t *Transport) Connect(ctx context.Context) (datasync.Stream, error) {
	t.mu.Lock()
	start := t.next
	t.mu.Unlock()

	header := http.Header{}
	header.Set(NodeHeader, t.cfg.NodeID)

	var lastErr error
	for i := 0; i < len(t.cfg.URLs); i++ {
		idx := (start + i) % len(t.cfg.URLs)
		url := t.cfg.URLs[idx]

		dialCtx, cancel := context.WithTimeout(ctx, t.cfg.DialTimeout)
		conn, _, err := ws.Dial(dialCtx, url, &ws.DialOptions{HTTPHeader: header})
		cancel()
		if err != nil {
			lastErr = &datasync.TransportError{Op: "dial", Endpoint: url, Err: err}
			t.logger.Warn("websocket dial failed", "url", url, "error", err)
			continue
		}

		t.mu.Lock()
		t.next = idx
		t.mu.Unlock()

		conn.SetReadLimit(t.cfg.ReadLimit)
		t.logger.Info("websocket connected", "url", url)
		return newStream(ctx, conn, url, t), nil
	}
	return nil, lastErr
}

type frame struct {
	ev  *datasync.Event
	err error
}

type stream struct {
	conn      *ws.Conn
	url       string
	transport *Transport

	ctx    context.Context
	cancel context.CancelFunc
	frames chan frame
	wg     conc.WaitGroup

	pending   []*datasync.Event
	closeOnce sync.Once
}

func newStream(parent context.Context, conn *ws.Conn, url string, t *Transport) *stream {
	ctx, cancel := context.WithCancel(parent)
	s := &stream{
		conn:      conn,
		url:       url,
		transport: t,
		ctx:       ctx,
		cancel:    cancel,
		frames:    make(chan frame, 256),
	}
	s.wg.Go(s.readLoop)
	s.wg.Go(s.pingLoop)
	return s
}

// Snapshot sends the snapshot request and collects full refreshes for
// every kind. Increments received meanwhile are buffered for Next.
func (s *stream) Snapshot(ctx context.Context) ([]*datasync.Event, error) {
	if err := s.transport.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if err := s.write(ctx, []byte(snapshotRequest)); err != nil {
		return nil, err
	}

	timer := time.NewTimer(s.transport.cfg.SnapshotTimeout)
	defer timer.Stop()

	var events []*datasync.Event
	seen := make(map[dto.ConfigGroup]bool)
	for len(seen) < len(dto.AllGroups) {
		select {
		case f := <-s.frames:
			if f.err != nil {
				var decErr *datasync.DecodeError
				if errors.As(f.err, &decErr) {
					s.transport.logger.Warn("skipping undecodable frame during snapshot", "error", f.err)
					continue
				}
				return nil, f.err
			}
			if f.ev.Op == dto.EventFullRefresh {
				events = append(events, f.ev)
				if _, ok := dto.ParseConfigGroup(string(f.ev.Kind)); ok {
					seen[f.ev.Kind] = true
				}
				continue
			}
			s.pending = append(s.pending, f.ev)
		case <-timer.C:
			if len(events) == 0 {
				return nil, &datasync.TransportError{Op: "snapshot", Endpoint: s.url, Err: context.DeadlineExceeded}
			}
			s.transport.logger.Warn("partial snapshot", "kinds", len(seen))
			return events, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return events, nil
}

// Next returns buffered increments first, then live frames.
func (s *stream) Next(ctx context.Context) (*datasync.Event, error) {
	if len(s.pending) > 0 {
		ev := s.pending[0]
		s.pending = s.pending[1:]
		return ev, nil
	}
	select {
	case f := <-s.frames:
		return f.ev, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.ctx.Done():
		return nil, datasync.ErrNotConnected
	}
}

func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		err = s.conn.Close(ws.StatusNormalClosure, "")
		s.wg.Wait()
	})
	return err
}

func (s *stream) write(ctx context.Context, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, s.transport.cfg.WriteTimeout)
	defer cancel()
	if err := s.conn.Write(writeCtx, ws.MessageText, data); err != nil {
		return &datasync.TransportError{Op: "write", Endpoint: s.url, Err: err}
	}
	return nil
}

func (s *stream) emit(f frame) bool {
	select {
	case s.frames <- f:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *stream) readLoop() {
	for {
		_, data, err := s.conn.Read(s.ctx)
		if err != nil {
			if s.ctx.Err() == nil {
				s.emit(frame{err: &datasync.TransportError{Op: "read", Endpoint: s.url, Err: err}})
			}
			return
		}
		if len(data) == 0 {
			continue
		}
		ev, err := datasync.DecodeEvent(data)
		if !s.emit(frame{ev: ev, err: err}) {
			return
		}
	}
}

func (s *stream) pingLoop() {
	ticker := time.NewTicker(s.transport.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(s.ctx, s.transport.cfg.PingTimeout)
			err := s.conn.Ping(pingCtx)
			cancel()
			if err != nil && s.ctx.Err() == nil {
				s.emit(frame{err: &datasync.TransportError{Op: "ping", Endpoint: s.url, Err: fmt.Errorf("peer unresponsive: %w", err)}})
				return
			}
		}
	}
}
