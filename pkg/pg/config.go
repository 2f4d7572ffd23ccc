package pg

import "time"

// Config configures the pool of the master database, the one that holds the
// tenants registry table.
type Config struct {
	ConnectionString  string        `env:"PG_MASTER_URL,required"`                 // ConnectionString is the connection string to the master database.
	MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`      // MaxOpenConns is the maximum number of open connections to the database.
	MinConns          int32         `env:"PG_MIN_CONNS" envDefault:"2"`            // MinConns is the number of connections kept open.
	HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`  // HealthCheckPeriod is the period between background health checks of idle connections.
	MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"` // MaxConnIdleTime is the maximum amount of time a connection may be idle to be reused.
	MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`  // MaxConnLifetime is the maximum amount of time a connection may be reused.

	RetryAttempts int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`  // RetryAttempts is the number of attempts to connect to the database.
	RetryInterval time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"` // RetryInterval is the base pause between attempts. Attempt n waits n times as long.

	MigrateOnStart  bool   `env:"PG_MIGRATE_ON_START" envDefault:"true"`                  // MigrateOnStart applies the embedded migrations at startup.
	MigrationsTable string `env:"PG_MIGRATIONS_TABLE" envDefault:"humano_schema_migrations"` // MigrationsTable stores the applied migration version.
}
