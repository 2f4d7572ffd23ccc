// Command humano-router serves tenant-routed database access for Humano:
// it resolves the tenant of each request, keeps one connection pool per
// tenant database and exposes pool management, health and metrics endpoints.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Zaaim-Halim/Humano-sub001/internal/api"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/config"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/httpserver"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/logger"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/pg"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/redis"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenant"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantdb"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantsource"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("humano-router stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg, config.WithEnvFiles(".env.local", ".env")); err != nil {
		return err
	}

	log := logger.New(append(cfg.Logger.Options(),
		logger.WithContextExtractors(tenant.LoggerExtractor(), api.RequestIDExtractor()))...)
	logger.SetAsDefault(log)

	masterDB, err := pg.Connect(ctx, cfg.Master)
	if err != nil {
		return err
	}
	defer masterDB.Close()

	if cfg.Master.MigrateOnStart {
		if err := pg.Migrate(ctx, masterDB, cfg.Master, log); err != nil {
			return err
		}
	}

	checks := []httpserver.Check{{Name: "master", Probe: pg.Healthcheck(masterDB)}}

	var cache goredis.UniversalClient
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		cache = client
		checks = append(checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
	}

	sources, err := tenantsource.Build(cfg.Source, masterDB, cache, log)
	if err != nil {
		return err
	}

	registry, err := tenantdb.NewRegistry(sources,
		tenantdb.WithConfig(cfg.TenantDB),
		tenantdb.WithLogger(log))
	if err != nil {
		return err
	}
	defer registry.Close()

	routerOpts := []tenantdb.RouterOption{tenantdb.WithRegistry(registry)}
	if !cfg.Routing {
		fallback, err := openDefault(ctx, cfg)
		if err != nil {
			return err
		}
		defer fallback.Close()
		routerOpts = []tenantdb.RouterOption{tenantdb.WithFallback(fallback)}
		log.WarnContext(ctx, "tenant routing disabled, all tenants use the default database")
	}

	router, err := tenantdb.NewRouter(tenantdb.MasterPool(masterDB), routerOpts...)
	if err != nil {
		return err
	}

	monitor, err := tenantdb.NewMonitor(registry, tenantdb.WithMonitorLogger(log))
	if err != nil {
		return err
	}

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		tenantdb.NewCollector(registry, cfg.MetricsNamespace),
	)

	server, err := api.New(registry, router,
		api.WithMonitor(monitor),
		api.WithSources(sources),
		api.WithGatherer(metrics),
		api.WithReadinessChecks(cfg.ReadinessTimeout, checks...),
		api.WithBoundaryValidation(cfg.Routing),
		api.WithLogger(log))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(monitor.Run(ctx))
	g.Go(func() error {
		return httpserver.New(cfg.HTTP, server.Routes(), httpserver.WithLogger(log)).Run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openDefault connects to the shared tenant database used when routing is off.
func openDefault(ctx context.Context, cfg appConfig) (*tenantdb.PgxPool, error) {
	if cfg.TenantDB.DefaultURL == "" {
		return nil, errors.New("TENANT_DB_DEFAULT_URL is required when TENANT_ROUTING is false")
	}

	db, err := pg.Connect(ctx, pg.Config{
		ConnectionString: cfg.TenantDB.DefaultURL,
		MaxOpenConns:     cfg.TenantDB.MaxPoolSize,
		MinConns:         cfg.TenantDB.MinIdle,
		MaxConnIdleTime:  cfg.TenantDB.IdleTimeout,
		MaxConnLifetime:  cfg.TenantDB.MaxLifetime,
		RetryAttempts:    cfg.Master.RetryAttempts,
		RetryInterval:    cfg.Master.RetryInterval,
	})
	if err != nil {
		return nil, err
	}
	return tenantdb.WrapPool("default-pool", "default", db), nil
}
