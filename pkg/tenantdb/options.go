package tenantdb

import "log/slog"

type registryOptions struct {
	factory Factory
	config  Config
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*registryOptions)

// WithFactory replaces the pool factory. Defaults to OpenPgxPool.
func WithFactory(f Factory) Option {
	return func(o *registryOptions) {
		if f != nil {
			o.factory = f
		}
	}
}

// WithConfig sets the pool defaults. Defaults to DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(o *registryOptions) {
		o.config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *registryOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
