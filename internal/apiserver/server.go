// Package apiserver wires the CRUD API's routes, middleware, and HTTP server.
package apiserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"noteflow/internal/apiserver/handlers"
	"noteflow/internal/apiserver/middleware"
	"noteflow/internal/config"
)

// Server is the HTTP server for the CRUD API.
type Server struct {
	httpServer *http.Server
}

// New creates a new CRUD API server.
func New(addr string, store handlers.StoreFactory, cfg *config.Config, logger *slog.Logger, metricsHandler http.Handler) *Server {
	h := handlers.New(store, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/storeUser", h.StoreUser)
	mux.HandleFunc("GET /api/getUser", h.GetUser)
	mux.HandleFunc("POST /api/storeNotes", h.StoreNotes)
	mux.HandleFunc("GET /api/getNotes", h.GetNotes)
	mux.HandleFunc("POST /api/saveNotes", h.SaveNotes)

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	// CORS runs outermost so preflight requests and rate-limited
	// responses still carry the policy headers.
	var handler http.Handler = mux
	handler = middleware.RateLimit(cfg.RateLimit, cfg.RateLimitBurst)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.CORS(middleware.DefaultCORSPolicy())(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
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
