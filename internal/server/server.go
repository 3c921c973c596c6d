// Package server provides the HTTP surface of the governance layer: tool
// interception, permission checks and responses, alerts, and event
// streaming.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kuuzuki-ai/kuuzuki/internal/analytics"
	"github.com/kuuzuki-ai/kuuzuki/internal/intercept"
	"github.com/kuuzuki-ai/kuuzuki/internal/permission"
	"github.com/kuuzuki-ai/kuuzuki/internal/recovery"
	"github.com/kuuzuki-ai/kuuzuki/internal/tool"
	"github.com/kuuzuki-ai/kuuzuki/pkg/types"
)

// Config holds server configuration.
type Config struct {
	Host         string
	Port         int
	EnableCORS   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:         "127.0.0.1",
		Port:         4096,
		EnableCORS:   true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // No write timeout for SSE
	}
}

// Deps are the governance components the server exposes.
type Deps struct {
	AppConfig   *types.Config
	Engine      *permission.Engine
	Checker     *permission.Checker
	Interceptor *intercept.Interceptor
	Registry    *tool.Registry
	Analytics   *analytics.Store
	Recovery    *recovery.Manager

	// EnvPermissions returns the current environment permission
	// override, re-read per check so changes apply without restart.
	EnvPermissions func() *types.PermissionConfig

	// ConfigSource, when set, returns the live config snapshot (the
	// config watcher's current view); AppConfig is the static fallback.
	ConfigSource func() *types.Config
}

// Server is the HTTP server.
type Server struct {
	config  *Config
	router  *chi.Mux
	httpSrv *http.Server
	deps    Deps
}

// New creates a new Server instance.
func New(cfg *Config, deps Deps) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if deps.EnvPermissions == nil {
		deps.EnvPermissions = func() *types.PermissionConfig { return nil }
	}

	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		deps:   deps,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	// Request ID
	s.router.Use(middleware.RequestID)

	// Logging
	s.router.Use(middleware.Logger)

	// Recover from panics
	s.router.Use(middleware.Recoverer)

	// Real IP
	s.router.Use(middleware.RealIP)

	// CORS
	if s.config.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Link", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
