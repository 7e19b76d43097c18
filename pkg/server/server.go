package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"soul-hq/gateway/pkg/config"
	"soul-hq/gateway/pkg/telemetry"
	"soul-hq/gateway/pkg/telemetry/health"
	"soul-hq/gateway/pkg/telemetry/tracing"
)

// Options wires the server's collaborators.
type Options struct {
	Config     *config.Config
	Dispatcher Dispatcher
	Exporter   Exporter
	Telemetry  *telemetry.Telemetry
	Version    string
	Commit     string
	BuildTime  string
}

// Server is the gateway's HTTP server.
type Server struct {
	config     *config.GatewayConfig
	handler    http.Handler
	logger     *slog.Logger
	httpServer *http.Server

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         string
}

// New builds the routes and middleware chain.
func New(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Dispatcher == nil || opts.Telemetry == nil {
		return nil, errors.New("server: config, dispatcher and telemetry are required")
	}
	logger := opts.Telemetry.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gw, err := NewGateway(opts.Dispatcher, opts.Config.Gateway.Upstream, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream: %w", err)
	}

	s := &Server{
		config: &opts.Config.Gateway,
		logger: logger.With("component", "server"),
	}
	s.handler = s.setupRoutes(opts, gw, logger)
	return s, nil
}

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes(opts Options, gw *Gateway, logger *slog.Logger) http.Handler {
	tel := opts.Telemetry
	mux := http.NewServeMux()

	health.Register(mux, tel.Health, &opts.Config.Telemetry.Health, opts.Version, opts.Commit, opts.BuildTime)
	if tel.Metrics != nil && tel.Metrics.Enabled() {
		mux.Handle(opts.Config.Telemetry.Metrics.Path, tel.Metrics.Handler())
	}
	if opts.Config.Gateway.AdminEnabled && opts.Exporter != nil {
		mux.Handle(SnapshotPath, SnapshotHandler(opts.Exporter))
	}
	mux.Handle("/", gw)

	var handler http.Handler = mux
	if tel.Metrics != nil {
		handler = tel.Metrics.Requests().Middleware(handler)
	}
	handler = tracing.HTTPMiddleware(handler)
	handler = LoggingMiddleware(logger)(handler)
	handler = RequestIDMiddleware(handler)
	// Recovery middleware (outermost)
	handler = RecoveryMiddleware(logger)(handler)
	return handler
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and blocks until ctx is
// cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start with a caller-provided listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		ln.Close()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:        s.handler,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
		BaseContext:    func(net.Listener) context.Context { return ctx },
	}
	srv := s.httpServer
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting gateway server", "address", s.addr)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.WithoutCancel(ctx))
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		srv := s.httpServer
		running := s.isRunning
		s.mu.Unlock()
		if !running || srv == nil {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		s.logger.Info("gateway server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound address once serving.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}
