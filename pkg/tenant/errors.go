package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when the tenant registry has no usable record for an identifier.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrProvisioningFailed is returned when a tenant's connection pool cannot be built.
	ErrProvisioningFailed = errors.New("tenant database provisioning failed")

	// ErrInvalidIdentifier is returned when the identifier format is invalid.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrNoTenantInContext is returned when a tenant is required but the request runs at platform level.
	ErrNoTenantInContext = errors.New("no tenant in context")

	// ErrNoScope is returned by SetCurrent when the context carries no tenant scope.
	ErrNoScope = errors.New("context has no tenant scope")
)
