// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"net/http"
	"time"

	"pipegate/internal/config"
	"pipegate/internal/controller/handlers"
	"pipegate/internal/controller/middleware"
)

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// New creates a new controller server.
func New(addr string, store handlers.Store, cfg *config.Config, metricsHandler http.Handler) *Server {
	h := handlers.New(store)
	authMW := middleware.RequireToken(cfg.APIToken)
	rateMW := middleware.RateLimit(cfg.RateLimit, cfg.RateLimitBurst)

	protect := func(hf http.HandlerFunc) http.Handler {
		return rateMW(authMW(hf))
	}

	mux := http.NewServeMux()

	mux.Handle("POST /runs", protect(h.IngestRun))
	mux.Handle("GET /runs", protect(h.ListRuns))
	mux.Handle("GET /runs/{id}", protect(h.GetRun))
	mux.Handle("GET /runs/{id}/summary", protect(h.GetRunSummary))

	// Probes and metrics stay unauthenticated.
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
