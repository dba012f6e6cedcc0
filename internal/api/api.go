// Package api provides HTTP handlers and the main API server logic for
// Gemshield.
//
// It exposes RESTful endpoints for walking a conversational session through
// the jewelry questionnaire, tracking its state, and retrieving or issuing
// the resulting quote. The API integrates with the flow and quote modules.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gemshield/gemshield/internal/flow"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// shutdownTimeout bounds graceful shutdown on context cancellation.
const shutdownTimeout = 10 * time.Second

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a functional option for server configuration.
type Option func(*Opts)

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server wires the session manager to the HTTP surface.
type Server struct {
	manager *flow.Manager
	addr    string
}

// NewServer creates an API server over a session manager.
func NewServer(manager *flow.Manager, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	slog.Debug("Server.NewServer: creating API server", "addr", addr)
	return &Server{manager: manager, addr: addr}
}

// Handler returns the routing mux, exposed separately for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sessions", s.createSessionHandler)
	mux.HandleFunc("/sessions/", s.sessionHandler)
	return mux
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: Gemshield API running", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("Server.Run: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
