// Package api exposes the job cache to the UI layer over HTTP.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fedjobfinder/jobcache/internal/app"
	"github.com/fedjobfinder/jobcache/internal/config"
	"github.com/fedjobfinder/jobcache/pkg/logging"
)

// Server wraps the HTTP listener serving the UI-facing API
type Server struct {
	logger *logging.Logger
	config config.Config

	srv     *http.Server
	started atomic.Bool
}

// NewServer constructs the HTTP server over the app facade
func NewServer(a *app.App, cfg config.Config, logger *logging.Logger) *Server {
	httpSrv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           newRouter(a),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		logger: logger,
		config: cfg,
		srv:    httpSrv,
	}
}

// Run starts the HTTP server and blocks until shutdown
func (s *Server) Run() error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	s.logger.Info("HTTP server listening", "addr", s.srv.Addr)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutdown requested for HTTP server")
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("HTTP server shutdown with error", "err", err)
		return err
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}
