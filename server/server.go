// Package server exposes the analysis engine over HTTP: POST /v1/analyze,
// GET /health, and GET /metrics for Prometheus scrapes.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/promptpilot/promptpilot/config"
	"github.com/promptpilot/promptpilot/engine"
	"github.com/promptpilot/promptpilot/internal/logging"
)

// Server is the HTTP front end of the engine.
type Server struct {
	cfg    *config.Config
	engine *engine.Engine
	logger logging.Logger
	http   *http.Server
}

// New builds a Server routing to the given engine. registry may be nil when
// no Prometheus recorder is wired; the /metrics route is then omitted.
func New(cfg *config.Config, eng *engine.Engine, registry *prometheus.Registry, logger logging.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		engine: eng,
		logger: logger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/v1/analyze", s.handleAnalyze).Methods(http.MethodPost)
	// Unversioned alias kept for clients of the original deployment.
	router.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	s.http = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("Server listening", "addr", s.cfg.ListenAddr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}
