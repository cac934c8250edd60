// Package api serves graphscope analyses over HTTP.
//
// Clients post fact documents to /v1/analyze and receive the analysis report.
// The session built for the request is persisted in a [session.Store], so
// later requests can render its graphs, search paths and apply cycle
// resolutions by session id.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/graphscope/pkg/pipeline"
	"github.com/matzehuels/graphscope/pkg/session"
)

// DefaultMaxBodyBytes bounds request bodies when Options.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 64 << 20

// DefaultMaxPaths bounds path enumeration when the request sets no limit.
const DefaultMaxPaths = 100

// Options configures a [Server].
type Options struct {
	// Defaults are the analysis options used when a request carries none.
	Defaults     pipeline.Options
	MaxBodyBytes int64
	// Metrics, if set, is served at /metrics.
	Metrics http.Handler
}

// Server routes API requests to a pipeline runner and a session store.
type Server struct {
	router chi.Router
	runner *pipeline.Runner
	store  session.Store
	logger *log.Logger
	opts   Options
}

// New creates a server. A nil logger means log.Default().
func New(runner *pipeline.Runner, store session.Store, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{
		runner: runner,
		store:  store,
		logger: logger,
		opts:   opts,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware(s.logger))
	r.Use(RecoveryMiddleware(s.logger))

	r.Get("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/graph/{kind}", s.handleGraph)
			r.Get("/paths", s.handlePaths)
			r.Get("/traverse", s.handleTraverse)
			r.Get("/blast-radius", s.handleBlastRadius)
			r.Post("/resolve", s.handleResolve)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, ErrorResponse{Error: "no such route", Code: "NOT_FOUND"}, http.StatusNotFound)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, readTimeout, writeTimeout time.Duration, logger *log.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
