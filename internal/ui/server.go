// Package ui provides the browser front end for parq.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/parq/internal/endpoint"
	"github.com/leapstack-labs/parq/internal/history"
	"github.com/leapstack-labs/parq/internal/ui/features/common"
	"github.com/leapstack-labs/parq/internal/ui/router"
	"github.com/leapstack-labs/parq/internal/ui/workspace"
)

// Server is the main UI server.
type Server struct {
	deps   *common.Deps
	port   int
	logger *slog.Logger
}

// Config holds configuration for the UI server.
type Config struct {
	Endpoint  *endpoint.Endpoint
	Transport endpoint.Transport
	Workspace workspace.Settings
	// History is optional; nil disables the history page.
	History       *history.Store
	Port          int
	SessionSecret string
	StaticDir     string
	Logger        *slog.Logger

	// Registry bounds; see workspace.WithMaxWorkspaces and WithIdleTimeout.
	MaxWorkspaces int
	WorkspaceIdle time.Duration
}

// NewSessionStore returns the cookie store that binds browsers to workspaces.
func NewSessionStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(86400 * 30) // 30 days
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	settings := cfg.Workspace
	settings.History = cfg.History
	if settings.Logger == nil {
		settings.Logger = logger
	}

	return &Server{
		deps: &common.Deps{
			Workspaces: workspace.NewRegistry(
				workspace.NewFactory(cfg.Endpoint, cfg.Transport, settings),
				workspace.WithMaxWorkspaces(cfg.MaxWorkspaces),
				workspace.WithIdleTimeout(cfg.WorkspaceIdle),
			),
			Sessions:   NewSessionStore(cfg.SessionSecret),
			Endpoint:   cfg.Endpoint,
			History:    cfg.History,
			Logger:     logger,
			StaticDir:  cfg.StaticDir,
		},
		port:   cfg.Port,
		logger: logger,
	}
}

// Handler builds the router with middleware and all feature routes.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, s.deps); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Workspaces exposes the live workspace registry.
func (s *Server) Workspaces() *workspace.Registry {
	return s.deps.Workspaces
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
