package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/httpserver"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/logger"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenant"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantdb"
)

var (
	ErrNilRegistry = errors.New("api: nil registry")
	ErrNilRouter   = errors.New("api: nil router")

	errProvisioningDisabled = errors.New("tenant provisioning needs the postgres source")
)

// Sources is the part of the tenant configuration chain the API manages.
type Sources interface {
	Provision(ctx context.Context, tenantID string, conn tenantdb.ConnectionConfig) error
	Invalidate(ctx context.Context, tenantID string) error
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	registry *tenantdb.Registry
	router   *tenantdb.Router
	monitor  *tenantdb.Monitor
	sources  Sources
	gatherer prometheus.Gatherer
	checks   []httpserver.Check
	timeout  time.Duration
	validate bool
	log      *slog.Logger
}

// Option configures Server.
type Option func(*Server)

// WithMonitor runs on-demand health checks through the monitor so they are logged like scheduled ones.
func WithMonitor(m *tenantdb.Monitor) Option {
	return func(s *Server) { s.monitor = m }
}

// WithSources enables provisioning and cache invalidation on refresh.
func WithSources(src Sources) Option {
	return func(s *Server) { s.sources = src }
}

// WithGatherer serves the given registry on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithReadinessChecks adds probes to /readyz.
func WithReadinessChecks(timeout time.Duration, checks ...httpserver.Check) Option {
	return func(s *Server) {
		s.timeout = timeout
		s.checks = append(s.checks, checks...)
	}
}

// WithBoundaryValidation controls whether the boundary filter opens the tenant
// pool before the handler runs. It is on by default.
func WithBoundaryValidation(enabled bool) Option {
	return func(s *Server) { s.validate = enabled }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates the API server.
func New(registry *tenantdb.Registry, router *tenantdb.Router, opts ...Option) (*Server, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if router == nil {
		return nil, ErrNilRouter
	}

	s := &Server{
		registry: registry,
		router:   router,
		gatherer: prometheus.DefaultGatherer,
		timeout:  5 * time.Second,
		validate: true,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("api"))
	return s, nil
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.Liveness())
	r.Get("/readyz", httpserver.Readiness(s.log, s.timeout, s.checks...))
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/platform", func(r chi.Router) {
		r.Get("/pools", s.listPools)
		r.Post("/pools/healthcheck", s.checkPools)
		r.Get("/pools/{tenant}", s.getPool)
		r.Delete("/pools/{tenant}", s.evictPool)
		r.Post("/pools/{tenant}/refresh", s.refreshPool)
		r.Put("/tenants/{tenant}", s.provisionTenant)
	})

	boundary := []tenant.Option{
		tenant.WithErrorHandler(tenantErrorHandler),
		tenant.WithLogger(s.log),
	}
	if s.validate {
		boundary = append(boundary, tenant.WithValidator(s.validateTenant))
	}

	r.Group(func(r chi.Router) {
		r.Use(tenant.Middleware(tenant.DefaultResolver(), boundary...))

		r.Get("/api/ping", s.ping)
		r.With(tenant.RequireTenant(tenantErrorHandler)).Get("/api/tenant/pool", s.currentPool)
	})

	return r
}

// validateTenant opens the tenant pool at the boundary so unknown tenants
// fail with 404 before any handler runs.
func (s *Server) validateTenant(ctx context.Context, id string) error {
	_, err := s.registry.GetOrCreate(ctx, id)
	return err
}

// RequestIDExtractor adds the chi request id to log records.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := middleware.GetReqID(ctx); id != "" {
			return logger.RequestID(id), true
		}
		return slog.Attr{}, false
	}
}
