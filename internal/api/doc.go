// Package api is the HTTP surface of the router: platform endpoints to
// inspect and manage tenant pools, health and metrics endpoints, and a
// tenant-scoped ping that exercises the routing path end to end.
//
// Platform routes live under /api/platform/ and run without a tenant scope.
// Every other /api route passes through the tenant boundary filter.
package api
