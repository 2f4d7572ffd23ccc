package tenantsource_test

import (
	"context"
	"sync/atomic"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantdb"
)

// countingSource wraps a source and counts loads.
type countingSource struct {
	next  tenantdb.Source
	loads atomic.Int32
}

func (c *countingSource) Load(ctx context.Context, tenantID string) (tenantdb.ConnectionConfig, error) {
	c.loads.Add(1)
	return c.next.Load(ctx, tenantID)
}

func acmeConn(host string) tenantdb.ConnectionConfig {
	size := int32(12)
	return tenantdb.ConnectionConfig{
		Host:        host,
		Port:        5432,
		Database:    "humano_acme",
		Username:    "humano",
		Password:    "secret",
		MaxPoolSize: &size,
	}
}
