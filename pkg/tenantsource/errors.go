package tenantsource

import "errors"

var (
	ErrLoadFailed    = errors.New("failed to load tenant connection config")
	ErrSaveFailed    = errors.New("failed to save tenant connection config")
	ErrDecryptFailed = errors.New("failed to decrypt tenant database password")
	ErrInvalidFile   = errors.New("invalid tenant file")
	ErrUnknownKind   = errors.New("unknown tenant source kind")
	ErrNilQuerier    = errors.New("master database querier is nil")
	ErrReadOnly      = errors.New("tenant source is read-only")
)
