// Package server mounts generated resources on a chi router and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/getmockd/crudgen/pkg/httputil"
	"github.com/getmockd/crudgen/pkg/logging"
	"github.com/getmockd/crudgen/pkg/metrics"
	"github.com/getmockd/crudgen/pkg/openapi"
	"github.com/getmockd/crudgen/pkg/ratelimit"
	"github.com/getmockd/crudgen/pkg/resource"
)

// Config configures the HTTP server.
type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// OpenAPIPath serves the generated OpenAPI document when set.
	OpenAPIPath string
	// MetricsPath serves the Prometheus metrics when set.
	MetricsPath string

	CORS CORSConfig
	// RateLimit limits resource routes per client. Zero disables it.
	RateLimit ratelimit.Config
}

// CORSConfig enables cross-origin requests.
type CORSConfig struct {
	Enabled      bool
	AllowOrigins []string
}

// DefaultConfig returns the defaults used when a value is unset.
func DefaultConfig() Config {
	return Config{
		Port:            4280,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server serves mounted resources.
type Server struct {
	cfg       Config
	router    chi.Router
	api       chi.Router
	log       *slog.Logger
	resources []*resource.Resource
	metrics   *metrics.Registry

	mu         sync.Mutex
	httpServer *http.Server
	addr       string
}

// New creates a server with the standard middleware stack and a /healthz endpoint.
// A nil logger disables logging.
func New(cfg Config, log *slog.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	def := DefaultConfig()
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}

	reg := metrics.NewRegistry()
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(log))
	r.Use(metrics.NewHTTP(reg).Middleware)
	r.Use(middleware.Recoverer)
	if cfg.CORS.Enabled {
		r.Use(CORS(cfg.CORS))
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsPath != "" {
		r.Method(http.MethodGet, cfg.MetricsPath, reg.Handler())
	}

	return &Server{
		cfg:     cfg,
		router:  r,
		api:     r.With(ratelimit.Middleware(ratelimit.New(cfg.RateLimit))),
		log:     log,
		metrics: reg,
	}
}

// Mount registers the routes of each resource.
func (s *Server) Mount(resources ...*resource.Resource) {
	for _, res := range resources {
		if res == nil {
			continue
		}
		Attach(s.api, res.Routes)
		res.LogRoutes(s.log)
		s.resources = append(s.resources, res)
	}
}

// Metrics returns the registry served at MetricsPath. Resources record their
// service actions in it through metrics.NewCRUD.
func (s *Server) Metrics() *metrics.Registry {
	return s.metrics
}

// Resources returns the mounted resources.
func (s *Server) Resources() []*resource.Resource {
	return s.resources
}

// MountOpenAPI serves the document of every mounted resource at cfg.OpenAPIPath.
// It is a no-op when no path is configured.
func (s *Server) MountOpenAPI(ctx context.Context, info openapi.Info) error {
	if s.cfg.OpenAPIPath == "" {
		return nil
	}
	doc, err := openapi.Build(ctx, info, s.resources)
	if err != nil {
		return err
	}
	s.router.Get(s.cfg.OpenAPIPath, func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, doc)
	})
	return nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured port and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return errors.New("server already started")
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.cfg.Port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
	s.addr = ln.Addr().String()
	s.log.Info("starting HTTP server", "addr", s.addr, "resources", len(s.resources))

	srv := s.httpServer
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the listen address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop shuts the server down gracefully, bounded by ctx and ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	s.log.Info("stopping HTTP server")
	return srv.Shutdown(ctx)
}

// Run starts the server and blocks until ctx is done, then stops it.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop(context.Background())
}
