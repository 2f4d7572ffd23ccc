package pg

import "errors"

var (
	ErrFailedToOpenDBConnection = errors.New("failed to open master db connection")
	ErrEmptyConnectionString    = errors.New("empty postgres connection string, use PG_MASTER_URL env var")
	ErrHealthcheckFailed        = errors.New("healthcheck failed, master connection is not available")
	ErrFailedToParseDBConfig    = errors.New("failed to parse db config")
	ErrFailedToApplyMigrations  = errors.New("failed to apply migrations")
)
