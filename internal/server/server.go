// Package server exposes the docs assistant over HTTP: the streaming chat
// endpoint, question classification, glossary and catalog browsing, the
// request playground and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/mediajel/apidocs/internal/catalog"
	"github.com/mediajel/apidocs/internal/intelligence"
	"github.com/mediajel/apidocs/internal/service"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Options configures the HTTP surface.
type Options struct {
	Addr           string
	PlaygroundPath string
	// GraphQLEndpoint is the documented API the playground and snippets
	// point at. Empty uses the catalog's base URL.
	GraphQLEndpoint string
}

// Deps are the services the handlers call.
type Deps struct {
	Pipeline   *intelligence.Pipeline
	Catalog    *catalog.Catalog
	Assistant  service.AssistantService
	Playground service.PlaygroundService
	Metrics    *Metrics
	Logger     *slog.Logger
}

type Server struct {
	opts    Options
	deps    Deps
	logger  *slog.Logger
	handler http.Handler
}

func New(opts Options, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}
	if opts.PlaygroundPath == "" {
		opts.PlaygroundPath = "/playground"
	}
	if opts.GraphQLEndpoint == "" {
		opts.GraphQLEndpoint = deps.Catalog.Config().BaseURL
	}
	s := &Server{opts: opts, deps: deps, logger: deps.Logger}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/threads", s.handleListThreads)
	mux.HandleFunc("GET /api/threads/{id}/messages", s.handleThreadMessages)
	mux.HandleFunc("DELETE /api/threads/{id}", s.handleDeleteThread)
	mux.HandleFunc("POST /api/classify", s.handleClassify)
	mux.HandleFunc("GET /api/glossary", s.handleGlossary)
	mux.HandleFunc("GET /api/glossary/search", s.handleGlossarySearch)
	mux.HandleFunc("GET /api/schema", s.handleSchema)
	mux.HandleFunc("GET /api/operations", s.handleOperations)
	mux.HandleFunc("GET /api/operations/{name}", s.handleOperation)
	mux.HandleFunc("GET /api/operations/{name}/snippets", s.handleSnippets)
	mux.HandleFunc("POST /api/playground/execute", s.handlePlaygroundExecute)
	mux.HandleFunc("GET /api/playground/history", s.handlePlaygroundHistory)
	mux.HandleFunc("DELETE /api/playground/history", s.handlePlaygroundClear)

	mux.Handle("GET "+s.opts.PlaygroundPath, playground.Handler(s.deps.Catalog.Config().Title, s.opts.GraphQLEndpoint))
	mux.Handle("GET /metrics", s.deps.Metrics.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s.logRequests(mux)
}

// Run serves until ctx is done, then shuts down gracefully. Each extra task
// runs alongside the listener; the first one to fail stops the server.
func (s *Server) Run(ctx context.Context, tasks ...func(context.Context) error) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln, tasks...)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, tasks ...func(context.Context) error) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server listening", "addr", ln.Addr().String(), "playground", s.opts.PlaygroundPath)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	for _, task := range tasks {
		g.Go(func() error { return task(ctx) })
	}
	return g.Wait()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer's Flush.
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
