// Package tenantdb routes database work to the connection pool of the tenant
// that owns it.
//
// Each tenant keeps its business data in its own PostgreSQL database. The
// package lazily provisions one pgx connection pool per tenant, caches it for
// the life of the process and keeps it healthy.
//
// # Architecture
//
//   • Registry - the concurrency-safe owner of every tenant pool. Pools are
//     created on first access exactly once, even under concurrent first
//     access, and can be evicted, refreshed and health-checked.
//
//   • Router - decides on every call which pool serves it: the master pool
//     for platform level work, the tenant pool otherwise, or a static
//     fallback pool when no registry is wired.
//
//   • Monitor - a background loop that periodically health-checks the
//     registry and evicts pools that stopped working.
//
//   • Collector - a prometheus.Collector exporting pool statistics.
//
// Connection parameters come from a Source. Implementations live in
// the tenantsource package.
//
// # Usage
//
//	registry, err := tenantdb.NewRegistry(source,
//	    tenantdb.WithConfig(cfg),
//	    tenantdb.WithLogger(log),
//	)
//	if err != nil {
//	    return err
//	}
//	defer registry.Close()
//
//	router, err := tenantdb.NewRouter(tenantdb.MasterPool(masterDB),
//	    tenantdb.WithRegistry(registry),
//	)
//
//	// Inside a request scoped by tenant.Middleware:
//	rows, err := router.Query(ctx, "SELECT id, name FROM employees")
//
// # Errors
//
// GetOrCreate reports tenant.ErrTenantNotFound when the source has no usable
// record and ErrProvisioningFailed when loading the record or building the
// pool fails. Nothing is cached on failure, so a later attempt can succeed.
// The Router never falls back to the master pool on either error.
package tenantdb
