package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/codeflow-dev/codeflow/internal/config"
	"github.com/codeflow-dev/codeflow/internal/logging"
	httpAdapter "github.com/codeflow-dev/codeflow/pkg/adapters/http"
	"github.com/codeflow-dev/codeflow/pkg/adapters/ws"
	"github.com/codeflow-dev/codeflow/pkg/observability"
	"github.com/codeflow-dev/codeflow/pkg/session"
	"golang.org/x/sync/errgroup"
)

// Server is the assembled HTTP service: one-shot API, session socket and
// metrics on a single listener.
type Server struct {
	cfg      config.Config
	logger   *slog.Logger
	handler  http.Handler
	sessions *session.Manager
	closer   func() error
}

// NewServer wires the engine, sessions and transports described by cfg.
func NewServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	metrics := observability.NewMetrics()
	hooks := observability.Combine(metrics.Hooks(), observability.LogHooks(logger))

	engine, closer, err := CreateEngine(ctx, cfg, EngineOptions{
		Logger:  logger,
		Hooks:   hooks,
		OnCache: metrics.ObserveCache,
	})
	if err != nil {
		return nil, err
	}

	sessions := session.NewManager(engine,
		session.WithLogger(logger),
		session.WithLifecycleHooks(hooks),
		session.WithControllerOptions(
			session.WithMaxSourceBytes(cfg.Limits.MaxSourceBytes),
			session.WithDefaultSpeed(cfg.Playback.DefaultSpeed),
		),
	)
	socket := ws.NewHandler(sessions,
		ws.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		ws.WithReadLimit(int64(cfg.Limits.MaxSourceBytes)*6+4096),
		ws.WithLogger(logger),
	)

	handler := httpAdapter.NewHandler(engine,
		httpAdapter.WithSocket(socket),
		httpAdapter.WithMetrics(metrics.Handler()),
		httpAdapter.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		httpAdapter.WithLogger(logger),
	)

	return &Server{
		cfg:      cfg,
		logger:   logger,
		handler:  handler,
		sessions: sessions,
		closer:   closer,
	}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Sessions returns the live session registry.
func (s *Server) Sessions() *session.Manager { return s.sessions }

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("codeflow server listening", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down", "sessions", s.sessions.Len())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		// Hijacked WebSocket connections are not tracked by Shutdown.
		s.sessions.CloseAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		return nil
	})

	err := g.Wait()
	if cerr := s.closer(); cerr != nil {
		s.logger.Warn("failed to close cache", "err", cerr)
	}
	return err
}

// NewLogger builds the process logger from the log section.
func NewLogger(cfg config.Log, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if cfg.Format == "json" {
		return logging.NewJSON(w, level), nil
	}
	return logging.NewText(w, level), nil
}
