package tenantsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/secrets"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantdb"
)

// Chain is a source assembled by Build together with the handles needed to
// manage it.
type Chain struct {
	tenantdb.Source

	Postgres   *Postgres
	File       *File
	Cache      *Cached
	Decrypting *Decrypting
}

// Build assembles base source, optional cache and optional decryption.
// master is required for KindPostgres; cache may be nil.
func Build(cfg Config, master Querier, cache redis.UniversalClient, logger *slog.Logger) (*Chain, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Chain{}

	switch cfg.Kind {
	case KindPostgres, "":
		pg, err := NewPostgres(master)
		if err != nil {
			return nil, err
		}
		c.Postgres, c.Source = pg, pg
	case KindFile:
		f, err := NewFile(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		c.File, c.Source = f, f
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}

	if cache != nil && cfg.CacheTTL > 0 {
		c.Cache = NewCached(c.Source, cache,
			WithTTL(cfg.CacheTTL),
			WithPrefix(cfg.CachePrefix),
			WithCacheLogger(logger))
		c.Source = c.Cache
	}

	if cfg.SecretsKey != "" {
		key, err := secrets.ParseKey(cfg.SecretsKey)
		if err != nil {
			return nil, err
		}
		cipher, err := secrets.NewCipher(key)
		if err != nil {
			return nil, err
		}
		c.Decrypting = NewDecrypting(c.Source, cipher)
		c.Source = c.Decrypting
	}

	return c, nil
}

// Invalidate drops cached state for tenantID: the Redis entry and, for file
// sources, the in-memory copy of the file.
func (c *Chain) Invalidate(ctx context.Context, tenantID string) error {
	var errs []error
	if c.Cache != nil {
		errs = append(errs, c.Cache.Invalidate(ctx, tenantID))
	}
	if c.File != nil {
		errs = append(errs, c.File.Reload())
	}
	return errors.Join(errs...)
}

// Provision stores the record of a tenant in the master database, sealing
// the password when encryption is configured.
func (c *Chain) Provision(ctx context.Context, tenantID string, conn tenantdb.ConnectionConfig) error {
	if c.Postgres == nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, ErrReadOnly)
	}

	if c.Decrypting != nil {
		sealed, err := c.Decrypting.Seal(tenantID, conn)
		if err != nil {
			return errors.Join(ErrSaveFailed, err)
		}
		conn = sealed
	}

	if err := c.Postgres.Upsert(ctx, tenantID, conn); err != nil {
		return err
	}
	return c.Invalidate(ctx, tenantID)
}
