// Package pg connects to the Humano master database with pgx/v5 and keeps
// its schema current with goose.
//
// The master database owns the tenants registry table. Tenant databases are
// not managed here; their pools live in package tenantdb.
//
// Typical startup:
//
//	var cfg pg.Config
//	if err := env.Parse(&cfg); err != nil {
//		return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if cfg.MigrateOnStart {
//		if err := pg.Migrate(ctx, pool, cfg, logger); err != nil {
//			return err
//		}
//	}
//
// Healthcheck wraps the pool in a probe suitable for readiness endpoints.
package pg
