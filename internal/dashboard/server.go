// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dashboard serves the lead dashboard: an HTML page, a JSON API and
// CSV/JSON/YAML downloads over the latest pipeline run.
package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pdiddy/leadgen/internal/leadstore"
	"github.com/pdiddy/leadgen/pkg/types"
)

// ErrRunInProgress is returned by TriggerRun while another run is executing.
var ErrRunInProgress = errors.New("a run is already in progress")

// Runner executes one pipeline pass.
type Runner interface {
	Run(ctx context.Context, w io.Writer) (types.Run, error)
}

// Server owns the latest-run store and serializes pipeline runs.
type Server struct {
	runner         Runner
	store          *leadstore.Store
	logger         *slog.Logger
	metricsHandler http.Handler
	runMu          sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and run logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetricsHandler exposes h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// New creates a dashboard over store that triggers runs with runner.
func New(runner Runner, store *leadstore.Store, opts ...Option) *Server {
	s := &Server{
		runner: runner,
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the dashboard routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/run", s.handleRunForm)
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/leads", s.handleLeads)
		r.Get("/leads/{rank}/draft", s.handleDraft)
		r.Post("/runs", s.handleTriggerRun)
	})

	r.Get("/export/leads.{format}", s.handleExport)

	if s.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.metricsHandler)
	}
	return r
}

// TriggerRun executes the pipeline once and replaces the stored run with
// the result. It returns ErrRunInProgress instead of waiting when another
// run holds the lock.
func (s *Server) TriggerRun(ctx context.Context) (types.Run, error) {
	if !s.runMu.TryLock() {
		return types.Run{}, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	s.logger.InfoContext(ctx, "pipeline run started")
	progress := &logWriter{ctx: ctx, logger: s.logger}
	run, err := s.runner.Run(ctx, progress)
	progress.flush()
	if err != nil {
		s.logger.ErrorContext(ctx, "pipeline run failed", "error", err)
		return types.Run{}, fmt.Errorf("running pipeline: %w", err)
	}

	if err := s.store.Replace(ctx, run); err != nil {
		s.logger.ErrorContext(ctx, "storing run failed", "run_id", run.ID, "error", err)
		return types.Run{}, fmt.Errorf("storing run: %w", err)
	}

	s.logger.InfoContext(ctx, "pipeline run finished",
		"run_id", run.ID,
		"leads", len(run.Leads),
		"notices", len(run.Notices),
		"warnings", len(run.Warnings),
		"duration", run.FinishedAt.Sub(run.StartedAt),
	)
	return run, nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// logWriter turns pipeline progress lines into log records. Lines starting
// with "warning:" are logged at warn level.
type logWriter struct {
	ctx    context.Context
	logger *slog.Logger
	buf    bytes.Buffer
}

func (l *logWriter) Write(p []byte) (int, error) {
	l.buf.Write(p)
	for {
		line, err := l.buf.ReadString('\n')
		if err != nil {
			// Partial line; keep it for the next write.
			l.buf.WriteString(line)
			break
		}
		l.log(strings.TrimSuffix(line, "\n"))
	}
	return len(p), nil
}

func (l *logWriter) flush() {
	if l.buf.Len() > 0 {
		l.log(l.buf.String())
		l.buf.Reset()
	}
}

func (l *logWriter) log(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if msg, ok := strings.CutPrefix(line, "warning: "); ok {
		l.logger.WarnContext(l.ctx, msg)
		return
	}
	l.logger.InfoContext(l.ctx, line)
}
