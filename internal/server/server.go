// Package server exposes the workflow and the feedback loop over a small
// JSON HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cendekia-ai/cendekia/internal/feedback"
	"github.com/cendekia-ai/cendekia/internal/knowledge"
	"github.com/cendekia-ai/cendekia/internal/search"
	"github.com/cendekia-ai/cendekia/internal/telemetry"
	"github.com/cendekia-ai/cendekia/internal/workflow"
)

// Server is the cendekia HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// Config holds the dependencies and settings for creating a Server.
type Config struct {
	Workflow  *workflow.Workflow
	Loop      *feedback.Loop
	Knowledge *knowledge.Store
	Index     search.Index
	Logger    *slog.Logger

	// Optional; nil disables metric recording.
	Metrics *telemetry.Metrics

	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Version      string
}

// New creates an HTTP server with all routes configured.
func New(cfg Config) *Server {
	h := &handlers{
		workflow:  cfg.Workflow,
		loop:      cfg.Loop,
		knowledge: cfg.Knowledge,
		index:     cfg.Index,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		version:   cfg.Version,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("POST /v1/ask", h.handleAsk)
	mux.HandleFunc("POST /v1/feedback", h.handleFeedback)
	mux.HandleFunc("POST /v1/feedback/bulk", h.handleFeedbackBulk)
	mux.HandleFunc("GET /v1/feedback/stats", h.handleFeedbackStats)
	mux.HandleFunc("GET /v1/feedback/pending", h.handleFeedbackPending)
	mux.HandleFunc("GET /v1/graph", h.handleGraph)

	var handler http.Handler = mux
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler: handler,
		logger:  cfg.Logger,
	}
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start runs the server until it fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
