package tenantdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Factory builds the pool of one tenant. The returned pool must be ready for
// use: a factory that cannot reach the database returns an error instead.
type Factory func(ctx context.Context, tenantID string, conn ConnectionConfig, cfg Config) (Pool, error)

// OpenPgxPool is the production Factory.
func OpenPgxPool(ctx context.Context, tenantID string, conn ConnectionConfig, cfg Config) (Pool, error) {
	name := PoolName(tenantID)

	poolCfg, err := pgxpool.ParseConfig(conn.ConnString(cfg.defaultParams()))
	if err != nil {
		return nil, errors.Join(ErrInvalidConnectionConfig, err)
	}

	poolCfg.MaxConns = conn.PoolSize(cfg.MaxPoolSize)
	poolCfg.MinIdleConns = min(cfg.MinIdle, poolCfg.MaxConns)
	poolCfg.MaxConnIdleTime = cfg.IdleTimeout
	poolCfg.MaxConnLifetime = cfg.MaxLifetime
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	poolCfg.ConnConfig.RuntimeParams["application_name"] = name

	tracer := &acquireTracer{}
	poolCfg.ConnConfig.Tracer = tracer

	// pgxpool pings connections idle for more than a second before handing
	// them out; the probe covers fresh connections.
	if probe := cfg.ProbeQuery; probe != "" {
		poolCfg.AfterConnect = func(ctx context.Context, c *pgx.Conn) error {
			if _, err := c.Exec(ctx, probe); err != nil {
				return fmt.Errorf("probe query: %w", err)
			}
			return nil
		}
	}

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	// Bad hosts and credentials must fail here, not on first use.
	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := db.Ping(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", conn, err)
	}

	return &PgxPool{
		id:       uuid.New(),
		name:     name,
		tenantID: tenantID,
		conn:     conn.Redacted(),
		db:       db,
		tracer:   tracer,
	}, nil
}
