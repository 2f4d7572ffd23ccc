package tenantsource

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/logger"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantdb"
)

// Cached is a read-through Redis cache in front of another source.
// Redis failures are logged and the underlying source is used instead.
// Lookups that fail are not cached.
type Cached struct {
	next   tenantdb.Source
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// CacheOption configures Cached.
type CacheOption func(*Cached)

// WithTTL sets the lifetime of cached records.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cached) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithPrefix sets the cache key prefix.
func WithPrefix(prefix string) CacheOption {
	return func(c *Cached) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithCacheLogger sets the logger.
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *Cached) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCached wraps next with a cache stored in client.
func NewCached(next tenantdb.Source, client redis.UniversalClient, opts ...CacheOption) *Cached {
	c := &Cached{
		next:   next,
		client: client,
		ttl:    5 * time.Minute,
		prefix: "humano:tenant-db:",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load implements tenantdb.Source.
func (c *Cached) Load(ctx context.Context, tenantID string) (tenantdb.ConnectionConfig, error) {
	key := c.key(tenantID)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var conn tenantdb.ConnectionConfig
		if err := json.Unmarshal(raw, &conn); err == nil {
			return conn, nil
		}
		c.logger.WarnContext(ctx, "dropping corrupt tenant cache entry", logger.TenantID(tenantID))
		_ = c.client.Del(ctx, key).Err()
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "tenant cache unavailable",
			logger.TenantID(tenantID),
			logger.Error(err))
	}

	conn, err := c.next.Load(ctx, tenantID)
	if err != nil {
		return tenantdb.ConnectionConfig{}, err
	}

	if raw, err := json.Marshal(conn); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "failed to cache tenant config",
				logger.TenantID(tenantID),
				logger.Error(err))
		}
	}
	return conn, nil
}

// Invalidate drops the cached record of tenantID. Call it before a registry
// refresh so the refresh sees the new configuration.
func (c *Cached) Invalidate(ctx context.Context, tenantID string) error {
	return c.client.Del(ctx, c.key(tenantID)).Err()
}

func (c *Cached) key(tenantID string) string {
	return c.prefix + tenantID
}
