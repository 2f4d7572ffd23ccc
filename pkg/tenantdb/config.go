package tenantdb

import (
	"net/url"
	"time"
)

// Config holds the process-wide defaults applied to every tenant pool.
type Config struct {
	DefaultURL     string        `env:"TENANT_DB_DEFAULT_URL"`                         // DefaultURL is the default tenant database, used for bootstrap and development.
	MaxPoolSize    int32         `env:"TENANT_DB_MAX_POOL_SIZE" envDefault:"10"`       // MaxPoolSize applies when the tenant has no override.
	MinIdle        int32         `env:"TENANT_DB_MIN_IDLE" envDefault:"2"`             // MinIdle is the number of idle connections kept warm per pool.
	ConnectTimeout time.Duration `env:"TENANT_DB_CONNECT_TIMEOUT" envDefault:"30s"`    // ConnectTimeout bounds dialing a new connection.
	IdleTimeout    time.Duration `env:"TENANT_DB_IDLE_TIMEOUT" envDefault:"10m"`       // IdleTimeout is how long a connection may stay idle before it is closed.
	MaxLifetime    time.Duration `env:"TENANT_DB_MAX_LIFETIME" envDefault:"30m"`       // MaxLifetime is the maximum age of a connection.
	Params         string        `env:"TENANT_DB_PARAMS" envDefault:"sslmode=disable"` // Params is the query string appended to every tenant connection string.
	ProbeQuery     string        `env:"TENANT_DB_PROBE_QUERY" envDefault:"SELECT 1"`   // ProbeQuery validates new connections before they join the pool.

	HealthCheckInterval    time.Duration `env:"TENANT_DB_HEALTHCHECK_INTERVAL" envDefault:"5m"`   // HealthCheckInterval is the period of the background health check.
	HealthCheckTimeout     time.Duration `env:"TENANT_DB_HEALTHCHECK_TIMEOUT" envDefault:"5s"`    // HealthCheckTimeout bounds the ping of a single pool.
	HealthCheckConcurrency int           `env:"TENANT_DB_HEALTHCHECK_CONCURRENCY" envDefault:"8"` // HealthCheckConcurrency limits pools checked in parallel.

	NewTenantHost string `env:"TENANT_DB_NEW_HOST" envDefault:"localhost"` // NewTenantHost is the database host for newly provisioned tenants.
	NewTenantPort int    `env:"TENANT_DB_NEW_PORT" envDefault:"5432"`      // NewTenantPort is the database port for newly provisioned tenants.
}

// DefaultConfig returns the same values as the envDefault tags.
func DefaultConfig() Config {
	return Config{
		MaxPoolSize:            10,
		MinIdle:                2,
		ConnectTimeout:         30 * time.Second,
		IdleTimeout:            10 * time.Minute,
		MaxLifetime:            30 * time.Minute,
		Params:                 "sslmode=disable",
		ProbeQuery:             "SELECT 1",
		HealthCheckInterval:    5 * time.Minute,
		HealthCheckTimeout:     5 * time.Second,
		HealthCheckConcurrency: 8,
		NewTenantHost:          "localhost",
		NewTenantPort:          5432,
	}
}

// NewTenantConnection returns the connection config of a tenant database that
// is provisioned on the default host and port.
func (c Config) NewTenantConnection(database, username, password string) ConnectionConfig {
	return ConnectionConfig{
		Host:     c.NewTenantHost,
		Port:     c.NewTenantPort,
		Database: database,
		Username: username,
		Password: password,
	}
}

func (c Config) defaultParams() url.Values {
	v, err := url.ParseQuery(c.Params)
	if err != nil {
		return url.Values{}
	}
	return v
}
