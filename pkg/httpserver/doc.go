// Package httpserver runs the HTTP surface of the router with graceful
// shutdown and provides liveness and readiness handlers.
//
//	srv := httpserver.New(cfg, router, httpserver.WithLogger(log))
//	if err := srv.Run(ctx); err != nil {
//		return err
//	}
//
// Run returns once ctx is cancelled and in-flight requests have finished or
// Config.ShutdownTimeout has passed.
package httpserver
