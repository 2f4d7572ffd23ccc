package tenant

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// DefaultSkipPaths are exempt from tenant resolution: static assets,
// platform admin APIs, public endpoints and API documentation.
var DefaultSkipPaths = []string{
	"/static/",
	"/assets/",
	"/favicon.ico",
	"/api/platform/",
	"/api/public/",
	"/swagger",
	"/v3/api-docs",
	"/docs",
}

// ErrorHandler handles errors that occur at the tenant boundary.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Validator checks a resolved tenant before the handler runs.
type Validator func(ctx context.Context, id string) error

// config holds middleware configuration.
type config struct {
	errorHandler ErrorHandler
	skipPaths    []string
	validator    Validator
	logger       *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths replaces the default list of path prefixes that skip tenant resolution.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		c.skipPaths = paths
	}
}

// WithValidator rejects unknown tenants at the boundary instead of on first data access.
func WithValidator(v Validator) Option {
	return func(c *config) {
		c.validator = v
	}
}

// WithLogger sets a custom logger for the middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// DefaultErrorHandler keeps "tenant does not exist" distinct from platform level success.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTenantNotFound):
		http.Error(w, "Tenant not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidIdentifier):
		http.Error(w, "Invalid tenant identifier", http.StatusBadRequest)
	case errors.Is(err, ErrNoTenantInContext):
		http.Error(w, "Tenant required", http.StatusBadRequest)
	case errors.Is(err, ErrProvisioningFailed):
		http.Error(w, "Tenant database unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
