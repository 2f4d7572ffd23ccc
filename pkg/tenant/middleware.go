package tenant

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/logger"
)

// Middleware is the tenant boundary filter. For every request it resolves the
// tenant, begins a scope, runs the handler and releases the scope on every
// exit path, panics included.
func Middleware(resolver Resolver, opts ...Option) func(http.Handler) http.Handler {
	if resolver == nil {
		resolver = DefaultResolver()
	}

	cfg := &config{
		errorHandler: DefaultErrorHandler,
		skipPaths:    DefaultSkipPaths,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if hasPathPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			id := resolver(r)
			if id == "" {
				id = Master
			}

			ctx, release := Begin(r.Context(), id)
			defer release()
			r = r.WithContext(ctx)

			if id != Master && cfg.validator != nil {
				if err := cfg.validator(ctx, id); err != nil {
					cfg.logger.WarnContext(ctx, "tenant rejected at boundary",
						logger.TenantID(id),
						slog.String("path", r.URL.Path),
						logger.Error(err))
					cfg.errorHandler(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireTenant rejects requests that run at platform level.
// Use it on routes that only make sense for a concrete tenant.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = DefaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !HasTenant(r.Context()) {
				errorHandler(w, r, ErrNoTenantInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// hasPathPrefix matches prefix on a path segment boundary, so "/docs" covers
// "/docs" and "/docs/x" but not "/docsearch".
func hasPathPrefix(path, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) || strings.HasSuffix(prefix, "/") {
		return true
	}
	return path[len(prefix)] == '/'
}
