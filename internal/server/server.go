// Package server exposes the grant forms over HTTP: server-rendered pages, the
// per-field JSON API, the OpenAPI description, health and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-grantforms/internal/logging"
	"github.com/goliatone/go-grantforms/internal/metrics"
	"github.com/goliatone/go-grantforms/pkg/definitions"
	"github.com/goliatone/go-grantforms/pkg/flow"
	"github.com/goliatone/go-grantforms/pkg/formstate"
	"github.com/goliatone/go-grantforms/pkg/model"
	"github.com/goliatone/go-grantforms/pkg/openapi"
	"github.com/goliatone/go-grantforms/pkg/orchestrator"
	"github.com/goliatone/go-grantforms/pkg/renderers/vanilla"
	"github.com/goliatone/go-grantforms/pkg/session"
	"github.com/goliatone/go-grantforms/pkg/storage"
)

// AssetsPrefix is where the embedded stylesheet and field script are served.
const AssetsPrefix = "/assets/"

const maxBodyBytes = 64 << 10

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to zap.NewNop.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics wires Prometheus collectors and serves them at path.
func WithMetrics(m *metrics.Metrics, path string) Option {
	return func(s *Server) {
		s.metrics = m
		if path != "" {
			s.metricsPath = path
		}
	}
}

// WithSessions overrides the session cookie manager.
func WithSessions(manager *session.Manager) Option {
	return func(s *Server) {
		if manager != nil {
			s.sessions = manager
		}
	}
}

// WithTitle sets the landing page title.
func WithTitle(title string) Option {
	return func(s *Server) {
		if title != "" {
			s.title = title
		}
	}
}

// WithTheme selects the theme and variant passed to every render.
func WithTheme(name, variant string) Option {
	return func(s *Server) {
		s.themeName = name
		s.themeVariant = variant
	}
}

// WithPruning drops visitors idle for longer than retain every interval. The
// memory and sqlite stores both implement storage.Pruner.
func WithPruning(every, retain time.Duration) Option {
	return func(s *Server) {
		s.pruneEvery = every
		s.retainFor = retain
	}
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	orch     *orchestrator.Orchestrator
	defs     *definitions.Store
	router   *flow.Router
	store    storage.Store
	sessions *session.Manager
	logger   *zap.Logger
	metrics  *metrics.Metrics

	metricsPath  string
	title        string
	themeName    string
	themeVariant string
	pruneEvery   time.Duration
	retainFor    time.Duration

	openapiOnce sync.Once
	openapiDoc  []byte
	openapiErr  error
}

// New builds a server rendering through orch and persisting into store.
func New(orch *orchestrator.Orchestrator, store storage.Store, opts ...Option) (*Server, error) {
	if orch == nil {
		return nil, errors.New("server: orchestrator is required")
	}
	if store == nil {
		return nil, errors.New("server: store is required")
	}
	router, err := flow.New(orch.Definitions())
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	s := &Server{
		orch:        orch,
		defs:        orch.Definitions(),
		router:      router,
		store:       store,
		sessions:    session.NewManager(session.Config{}),
		logger:      zap.NewNop(),
		metricsPath: "/metrics",
		title:       "UK Energy Grants",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Handler returns the full handler tree wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	withSession := s.sessions.Middleware

	mux.Handle("GET /api/forms/{id}", withSession(http.HandlerFunc(s.handleState)))
	mux.Handle("DELETE /api/forms/{id}", withSession(http.HandlerFunc(s.handleReset)))
	mux.Handle("POST /api/forms/{id}/fields/{name}", withSession(http.HandlerFunc(s.handleField)))
	mux.Handle("POST /api/forms/{id}/submit", withSession(http.HandlerFunc(s.handleSubmit)))
	mux.HandleFunc("GET /openapi.json", s.handleOpenAPI)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET "+AssetsPrefix, http.StripPrefix(AssetsPrefix, http.FileServerFS(vanilla.AssetsFS())))
	if s.metrics != nil {
		mux.Handle("GET "+s.metricsPath, s.metrics.Handler())
	}
	mux.Handle("/", withSession(http.HandlerFunc(s.handlePage)))

	var observe func(*http.Request, int, time.Duration)
	if s.metrics != nil {
		observe = func(r *http.Request, status int, elapsed time.Duration) {
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			s.metrics.ObserveRequest(route, r.Method, status, elapsed)
		}
	}
	return logging.Middleware(s.logger, observe)(mux)
}

// Run listens on addr until ctx is cancelled, then shuts down within grace.
func (s *Server) Run(ctx context.Context, addr string, grace time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, grace)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener, grace time.Duration) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if pruner, ok := s.store.(storage.Pruner); ok && s.pruneEvery > 0 && s.retainFor > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.pruneLoop(ctx, pruner)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("listening", zap.String("addr", ln.Addr().String()))

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server: serve: %w", err)
		}
		cancel()
		wg.Wait()
		return serveErr
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("grace", grace))
	shutdownCtx, stop := context.WithTimeout(context.Background(), grace)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		serveErr = fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) && serveErr == nil {
		serveErr = fmt.Errorf("server: serve: %w", err)
	}
	wg.Wait()
	return serveErr
}

func (s *Server) pruneLoop(ctx context.Context, pruner storage.Pruner) {
	ticker := time.NewTicker(s.pruneEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.prune(ctx, pruner)
		}
	}
}

func (s *Server) prune(ctx context.Context, pruner storage.Pruner) {
	n, err := pruner.Prune(ctx, time.Now().Add(-s.retainFor))
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("prune failed", zap.Error(err))
		}
		return
	}
	if s.metrics != nil {
		s.metrics.Pruned(n)
	}
	if n > 0 {
		s.logger.Info("pruned stale entries", zap.Int64("entries", n))
	}
}

func (s *Server) controller(ctx context.Context, namespace string, form model.FormModel) (*formstate.Controller, error) {
	var opts []formstate.Option
	if s.metrics != nil {
		opts = append(opts, formstate.WithObserver(s.metrics))
	}
	return formstate.Load(ctx, s.store, namespace, form, opts...)
}

func (s *Server) openAPIDocument(ctx context.Context) ([]byte, error) {
	s.openapiOnce.Do(func() {
		s.openapiDoc, s.openapiErr = openapi.JSON(ctx, s.defs, openapi.WithTitle(s.title+" API"))
	})
	return s.openapiDoc, s.openapiErr
}
