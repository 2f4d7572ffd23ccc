package tenantsource

import (
	"context"
	"fmt"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenant"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantdb"
)

// Static is a fixed, read-only set of tenant records.
type Static map[string]tenantdb.ConnectionConfig

// Load implements tenantdb.Source.
func (s Static) Load(_ context.Context, tenantID string) (tenantdb.ConnectionConfig, error) {
	conn, ok := s[tenantID]
	if !ok || conn.Database == "" {
		return tenantdb.ConnectionConfig{}, fmt.Errorf("%w: %s", tenant.ErrTenantNotFound, tenantID)
	}
	return conn, nil
}
