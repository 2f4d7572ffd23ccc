package tenantdb

import "context"

// Source supplies the connection parameters of a tenant database.
// Load returns an error wrapping ErrTenantNotFound when the tenant has no
// record or the record has no database configured.
type Source interface {
	Load(ctx context.Context, tenantID string) (ConnectionConfig, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, tenantID string) (ConnectionConfig, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context, tenantID string) (ConnectionConfig, error) {
	return f(ctx, tenantID)
}
