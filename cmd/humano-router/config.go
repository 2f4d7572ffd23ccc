package main

import (
	"time"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/httpserver"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/logger"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/pg"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/redis"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantdb"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantsource"
)

type appConfig struct {
	Logger   logger.Config
	HTTP     httpserver.Config
	Master   pg.Config
	Redis    redis.Config
	TenantDB tenantdb.Config
	Source   tenantsource.Config

	// Routing off sends every tenant to the default database at TENANT_DB_DEFAULT_URL.
	Routing          bool          `env:"TENANT_ROUTING" envDefault:"true"`
	MetricsNamespace string        `env:"METRICS_NAMESPACE" envDefault:"humano"`
	ReadinessTimeout time.Duration `env:"READINESS_TIMEOUT" envDefault:"3s"`
}
