// Package server exposes the login and publish flows over HTTP so other
// tooling can drive them without shelling out to the CLI. One request
// maps to one browser session; nothing is shared between requests.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rednote-cli/internal/config"
)

// Server hosts the HTTP API on top of a browser session manager.
type Server struct {
	cfg        config.ServerConfig
	logger     *zap.Logger
	httpServer *http.Server
}

// New assembles the router and the HTTP server. The runner provides a
// fresh browser session per request.
func New(cfg *config.Config, runner PageRunner, logger *zap.Logger) *Server {
	log := logger.Named("server")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// The login endpoint blocks for up to the QR scan window, so the
	// request timeout has to be generous.
	r.Use(middleware.Timeout(10 * time.Minute))

	handlers := NewHandlers(runner, cfg, log)
	handlers.RegisterRoutes(r)

	return &Server{
		cfg:    cfg.Server,
		logger: log,
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests
// within the configured shutdown timeout. A listen failure returns
// immediately without leaving anything running.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("HTTP server listening.", zap.String("addr", s.httpServer.Addr))

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		// The listener died before any shutdown was requested.
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error.", zap.Error(err))
	}

	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
