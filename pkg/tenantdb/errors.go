package tenantdb

import (
	"errors"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenant"
)

var (
	// ErrTenantNotFound is returned when the source has no record for the tenant.
	ErrTenantNotFound = tenant.ErrTenantNotFound

	// ErrProvisioningFailed is returned when a tenant pool cannot be built.
	ErrProvisioningFailed = tenant.ErrProvisioningFailed

	ErrPoolNotFound            = errors.New("tenant pool not found")
	ErrPoolClosed              = errors.New("tenant pool is closed")
	ErrRegistryClosed          = errors.New("tenant pool registry is closed")
	ErrNilSource               = errors.New("tenant configuration source is nil")
	ErrNilRegistry             = errors.New("tenant pool registry is nil")
	ErrNoMasterPool            = errors.New("master pool is required")
	ErrInvalidConnectionConfig = errors.New("invalid tenant connection config")
	ErrHealthcheckFailed       = errors.New("tenant pool healthcheck failed")
	ErrMonitorAlreadyStarted   = errors.New("pool monitor already started")
	ErrMonitorNotStarted       = errors.New("pool monitor not started")
)
