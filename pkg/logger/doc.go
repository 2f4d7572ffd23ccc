// Package logger builds the slog.Logger used across the Humano router.
//
// New returns a logger whose handler runs ContextExtractor callbacks on every
// record, so request-scoped values such as the tenant id or request id show
// up in each log line without being passed around explicitly:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "humano-router"),
//		logger.WithContextExtractors(tenant.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
// The attribute helpers in attr.go keep key names consistent between
// packages: tenant_id, pool, reason, component and error.
package logger
