package redis

import "errors"

var (
	ErrEmptyConnectionURL = errors.New("empty redis connection URL")
	ErrInvalidURL         = errors.New("invalid redis connection URL")
	ErrNotReady           = errors.New("redis cache did not become ready")
	ErrHealthcheckFailed  = errors.New("redis cache healthcheck failed")
)
