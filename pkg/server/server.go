// Package server exposes the agent's HTTP API: session lifecycle control,
// device commands, and health probes.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/devicelab-dev/device-agent/pkg/device"
	"github.com/devicelab-dev/device-agent/pkg/logger"
	"github.com/devicelab-dev/device-agent/pkg/session"
)

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr        string
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
}

// Server wraps the HTTP server with chi routing and graceful shutdown.
type Server struct {
	httpServer *http.Server
	router     chi.Router
	manager    *session.Manager
	actions    *device.Actions
}

// New creates a server serving the given session manager.
func New(cfg Config, manager *session.Manager) *Server {
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 120 * time.Second
	}

	s := &Server{
		manager: manager,
		actions: device.NewActions(manager),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
	return s
}

// Handler returns the route tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server and blocks until it stops. Returns
// nil after a graceful Shutdown.
func (s *Server) ListenAndServe() error {
	logger.Info("http: listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
