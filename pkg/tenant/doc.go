// Package tenant scopes a unit of work to one tenant and derives the tenant
// identifier from inbound HTTP requests.
//
// The package is built around three pieces:
//
// 1. Scope - a per-request holder in context.Context that stores "which tenant
// is this operation for", with guaranteed clearing when the unit of work ends
// 2. Resolvers - extract the tenant identifier from a request (header first,
// then subdomain, then the master sentinel)
// 3. Middleware - the boundary filter: resolve, begin the scope, run the
// handler, release the scope on every exit path
//
// # Usage
//
//	import "github.com/Zaaim-Halim/Humano-sub001/pkg/tenant"
//
//	mw := tenant.Middleware(tenant.DefaultResolver(),
//		tenant.WithSkipPaths("/static/", "/api/platform/"),
//	)
//	router.Use(mw)
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		id, ok := tenant.Current(r.Context())
//		if !ok || id == tenant.Master {
//			// platform level request
//		}
//	}
//
// # Scope semantics
//
// Begin installs a fresh holder so concurrent requests never observe each
// other's tenant. The returned Release clears the holder; after release any
// goroutine still holding the request context sees no tenant. Background work
// spawned from a request should use Go or Inherit, which copy the tenant at
// spawn time into a holder of their own.
//
// # Resolution
//
// Resolution never fails. A request without a usable header or subdomain
// resolves to Master, which means "operate against the master database".
// Unknown tenants are detected later, when their connection pool is
// provisioned, and surface as ErrTenantNotFound.
//
// # Error Handling
//
//   - ErrTenantNotFound: the tenant registry has no record for the identifier
//   - ErrProvisioningFailed: the tenant's database could not be reached
//   - ErrNoTenantInContext: a tenant-only route was called at platform level
//   - ErrInvalidIdentifier: malformed tenant identifier
//   - ErrNoScope: SetCurrent called on a context without a scope
package tenant
