// Package server provides the HTTP API for reviewing duplicate notes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/futago/internal/config"
	"github.com/hyperjump/futago/internal/provider"
	"github.com/hyperjump/futago/internal/review"
	"github.com/hyperjump/futago/internal/storage"
	"go.uber.org/zap"
)

// UsageFunc reports the disk usage of the configured source.
type UsageFunc func() (storage.Usage, error)

// Server is the HTTP server for the review API.
type Server struct {
	session    *review.Session
	source     provider.ContentProvider
	config     *config.Config
	configPath string
	configMu   sync.Mutex
	usage      UsageFunc
	onSettings func(config.Settings)
	logger     *zap.Logger
	server     *http.Server

	// runs started through the API outlive the request that started them
	baseCtx context.Context
	cancel  context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithUsage sets the function used to report disk usage in /api/v1/status.
func WithUsage(fn UsageFunc) Option {
	return func(s *Server) { s.usage = fn }
}

// WithSettingsHook sets a function called after settings are changed through the API.
func WithSettingsHook(fn func(config.Settings)) Option {
	return func(s *Server) { s.onSettings = fn }
}

// NewServer creates a server around a review session. configPath may be empty, in which case
// settings changes are applied but not persisted.
func NewServer(
	session *review.Session,
	source provider.ContentProvider,
	cfg *config.Config,
	configPath string,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		session:    session,
		source:     source,
		config:     cfg,
		configPath: configPath,
		logger:     logger,
		baseCtx:    ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP handler with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/scan", s.handleScan)
	r.Get("/api/v1/groups", s.handleGroups)
	r.Get("/api/v1/progress", s.handleProgress)
	r.Post("/api/v1/groups/{id}/delete", s.handleDelete)
	r.Post("/api/v1/undo", s.handleUndo)
	r.Post("/api/v1/redo", s.handleRedo)
	r.Get("/api/v1/compare", s.handleCompare)
	r.Get("/api/v1/settings", s.handleGetSettings)
	r.Put("/api/v1/settings", s.handlePutSettings)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop cancels background runs and gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.cancel()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
