// Package server serves the interactive link graph and its JSON API.
//
// The server keeps the active dataset in memory and swaps it atomically when
// the dataset file changes. Each browser tab owns a session holding its
// detail level and pinned nodes; layouts, renders and snapshots are computed
// through the same pipeline the CLI uses.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/linkatlas/pkg/atlas"
	"github.com/matzehuels/linkatlas/pkg/dataset"
	"github.com/matzehuels/linkatlas/pkg/pipeline"
	"github.com/matzehuels/linkatlas/pkg/session"
	"github.com/matzehuels/linkatlas/pkg/storage"
)

// Timeouts for the HTTP server.
const (
	ReadTimeout     = 15 * time.Second
	WriteTimeout    = 60 * time.Second
	IdleTimeout     = 60 * time.Second
	ShutdownTimeout = 10 * time.Second

	// CleanupInterval is how often expired sessions are purged.
	CleanupInterval = 10 * time.Minute
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	Logger    *log.Logger
	Runner    *pipeline.Runner
	Sessions  session.Store
	Snapshots storage.Store

	// SessionTTL is the idle lifetime of viewer sessions.
	SessionTTL time.Duration

	// Defaults for requests that leave them out.
	Mode   string
	Engine string
	Width  float64
	Height float64
	Title  string
}

// datasetState is the dataset currently served.
type datasetState struct {
	atlas    *atlas.Atlas
	hash     string
	loadedAt time.Time
}

// Server is the linkatlas HTTP server. It is safe for concurrent use.
type Server struct {
	opts    Options
	logger  *log.Logger
	runner  *pipeline.Runner
	router  chi.Router
	data    atomic.Pointer[datasetState]
	started time.Time
}

// New creates a server for the given dataset. Nil stores default to
// in-memory ones and a nil runner to one without a cache.
func New(a *atlas.Atlas, datasetHash string, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewMemoryStore()
	}
	if opts.Snapshots == nil {
		opts.Snapshots = storage.NewMemoryStore()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = session.DefaultTTL
	}
	if opts.Mode == "" {
		opts.Mode = pipeline.DefaultMode
	}
	if opts.Engine == "" {
		opts.Engine = pipeline.DefaultEngine
	}
	if opts.Width == 0 {
		opts.Width = pipeline.DefaultWidth
	}
	if opts.Height == 0 {
		opts.Height = pipeline.DefaultHeight
	}

	s := &Server{
		opts:    opts,
		logger:  opts.Logger,
		runner:  opts.Runner,
		started: time.Now(),
	}
	s.SetDataset(a, datasetHash)
	s.router = s.routes()
	return s
}

// SetDataset replaces the served dataset. Requests in flight keep the
// dataset they started with.
func (s *Server) SetDataset(a *atlas.Atlas, hash string) {
	s.data.Store(&datasetState{atlas: a, hash: hash, loadedAt: time.Now()})
}

// Dataset returns the served dataset and its fingerprint.
func (s *Server) Dataset() (*atlas.Atlas, string) {
	d := s.data.Load()
	return d.atlas, d.hash
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(s.recoverer)
	r.Use(cors)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.handleGraph)
		r.Get("/nodes/{key}", s.handleNode)
		r.Get("/render.{format}", s.handleRender)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/toggle", s.handleToggle)
				r.Put("/pins/{key}", s.handlePin)
				r.Delete("/pins/{key}", s.handleRelease)
				r.Get("/layout", s.handleSessionLayout)
			})
		})

		r.Route("/snapshots", func(r chi.Router) {
			r.Post("/", s.handleCreateSnapshot)
			r.Get("/", s.handleListSnapshots)
			r.Get("/{id}", s.handleGetSnapshot)
			r.Delete("/{id}", s.handleDeleteSnapshot)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, notFound("no route for %s %s", r.Method, r.URL.Path))
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("listen %s: %w", addr, err)
		}
		close(errc)
	}()

	go s.cleanupSessions(ctx, CleanupInterval)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}

// Watch applies dataset reloads from w until ctx is cancelled. A reload
// that fails validation is logged and the previous dataset stays active.
func (s *Server) Watch(ctx context.Context, w *dataset.Watcher) error {
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	for r := range w.Reloads {
		if r.Err != nil {
			s.logger.Warn("keeping previous dataset", "path", r.Path, "error", r.Err)
			continue
		}
		s.SetDataset(r.Atlas, r.Fingerprint)
		st := r.Atlas.Stats()
		s.logger.Info("serving reloaded dataset",
			"artifacts", st.Artifacts,
			"links", st.Majors+st.Minors)
	}
	return <-errc
}

func (s *Server) cleanupSessions(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.opts.Sessions.Cleanup(ctx); err != nil {
				s.logger.Warn("session cleanup failed", "error", err)
			}
		}
	}
}

// layoutOptions returns pipeline options with the server defaults applied.
func (s *Server) layoutOptions(mode, engine string) pipeline.Options {
	if mode == "" {
		mode = s.opts.Mode
	}
	if engine == "" {
		engine = s.opts.Engine
	}
	return pipeline.Options{
		Mode:   mode,
		Engine: engine,
		Width:  s.opts.Width,
		Height: s.opts.Height,
		Title:  s.opts.Title,
		Logger: s.logger,
	}
}
