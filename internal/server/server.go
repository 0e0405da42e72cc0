// Package server exposes the ranking pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz          liveness probe
//	GET  /api/v1/rank?q=   rank the identifiers in q
//	POST /api/v1/rank      rank a plain-text body, or {"input": ..., "strict": ...}
//
// Both rank routes accept a strict=true|false query parameter. Responses
// are the JSON form of [rank.Result]; failures are reported as
// {"error": {"code": ..., "message": ...}}.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/deprank/pkg/rank"
)

const (
	// maxBodySize bounds POST bodies.
	maxBodySize = 1 << 20

	shutdownTimeout = 10 * time.Second
)

// Aggregator ranks identifier lists. Implemented by [rank.Aggregator].
type Aggregator interface {
	Aggregate(ctx context.Context, input string, opts rank.Options) (*rank.Result, error)
}

// Server serves the HTTP API.
type Server struct {
	agg    Aggregator
	logger *log.Logger
	strict bool
	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithStrict sets the default for requests that do not choose a mode.
func WithStrict(strict bool) Option {
	return func(s *Server) { s.strict = strict }
}

// New creates a Server backed by agg.
func New(agg Aggregator, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{agg: agg, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/rank", s.handleRankQuery)
		r.Post("/rank", s.handleRankBody)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
