package tenantdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/logger"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenant"
)

// EvictReason labels why a pool left the registry.
type EvictReason string

const (
	EvictManual    EvictReason = "manual"
	EvictRefresh   EvictReason = "refresh"
	EvictUnhealthy EvictReason = "unhealthy"
	EvictShutdown  EvictReason = "shutdown"
)

var evictReasons = []EvictReason{EvictManual, EvictRefresh, EvictUnhealthy, EvictShutdown}

// Counters are cumulative registry counters since start.
type Counters struct {
	Created uint64                 `json:"created"`
	Failed  uint64                 `json:"failed"`
	Evicted map[EvictReason]uint64 `json:"evicted"`
}

// Registry owns the live pool of every tenant.
//
// Reads are lock-free. Concurrent first access to one tenant is coalesced so
// the source and the factory run once and every caller gets the same pool.
// Creation, eviction and refresh of one tenant are serialized by a per-tenant
// lock; different tenants never wait on each other.
type Registry struct {
	source  Source
	factory Factory
	config  Config
	logger  *slog.Logger

	pools  sync.Map // tenant id -> Pool
	count  atomic.Int64
	group  singleflight.Group
	locks  keyLocks
	closed atomic.Bool

	created   atomic.Uint64
	failed    atomic.Uint64
	evictedMu sync.Mutex
	evicted   map[EvictReason]uint64
}

// NewRegistry creates an empty registry backed by source.
func NewRegistry(source Source, opts ...Option) (*Registry, error) {
	if source == nil {
		return nil, ErrNilSource
	}

	o := &registryOptions{
		factory: OpenPgxPool,
		config:  DefaultConfig(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Registry{
		source:  source,
		factory: o.factory,
		config:  o.config,
		logger:  o.logger.With(logger.Component("tenantdb")),
		evicted: make(map[EvictReason]uint64, len(evictReasons)),
	}, nil
}

// GetOrCreate returns the pool of tenantID, creating it on first access.
//
// Concurrent callers for the same unseen tenant share one creation and its
// result, error included. Creation is not abandoned when the caller that
// started it goes away; every caller stops waiting when its own ctx is done.
func (r *Registry) GetOrCreate(ctx context.Context, tenantID string) (Pool, error) {
	id, err := normalize(tenantID)
	if err != nil {
		return nil, err
	}
	if r.closed.Load() {
		return nil, ErrRegistryClosed
	}
	if p, ok := r.load(id); ok {
		return p, nil
	}

	ch := r.group.DoChan(id, func() (any, error) {
		return r.create(context.WithoutCancel(ctx), id)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Pool), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Evict removes and closes the pool of tenantID. It returns false when no
// pool was registered. Connections are closed before it returns.
func (r *Registry) Evict(tenantID string) bool {
	id := tenant.Normalize(tenantID)

	unlock := r.locks.lock(id)
	defer unlock()

	return r.evictLocked(id, EvictManual)
}

// Refresh replaces the pool of tenantID with one built from a fresh load of
// its configuration. Both steps run in one critical section for the tenant.
func (r *Registry) Refresh(ctx context.Context, tenantID string) (Pool, error) {
	id, err := normalize(tenantID)
	if err != nil {
		return nil, err
	}
	if r.closed.Load() {
		return nil, ErrRegistryClosed
	}

	unlock := r.locks.lock(id)
	defer unlock()

	r.evictLocked(id, EvictRefresh)
	return r.createLocked(ctx, id)
}

// HealthCheck checks every registered pool and evicts the ones that are not
// running or fail their ping. A failing or panicking check only affects its
// own tenant. Once ctx is done no further pool is evicted. It returns the
// evicted tenant ids, sorted.
func (r *Registry) HealthCheck(ctx context.Context) []string {
	var (
		mu      sync.Mutex
		evicted []string
	)

	g := &errgroup.Group{}
	if n := r.config.HealthCheckConcurrency; n > 0 {
		g.SetLimit(n)
	}

	r.pools.Range(func(key, value any) bool {
		id, pool := key.(string), value.(Pool)
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			err := r.check(ctx, pool)
			if err == nil {
				return nil
			}
			// A cancelled cycle says nothing about the pool; only the
			// per-pool deadline counts as a failure.
			if ctx.Err() != nil {
				return nil
			}

			r.logger.WarnContext(ctx, "tenant pool unhealthy",
				logger.TenantID(id),
				logger.Pool(pool.Name()),
				logger.Error(err))

			if r.evictIf(id, pool, EvictUnhealthy) {
				mu.Lock()
				evicted = append(evicted, id)
				mu.Unlock()
			}
			return nil
		})
		return true
	})

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		r.logger.WarnContext(ctx, "tenant pool health check interrupted",
			slog.Int("evicted", len(evicted)),
			logger.Error(err))
	}

	slices.Sort(evicted)
	return evicted
}

// StatsFor returns the statistics of one tenant pool.
func (r *Registry) StatsFor(tenantID string) (Stats, error) {
	p, ok := r.load(tenant.Normalize(tenantID))
	if !ok {
		return Stats{}, ErrPoolNotFound
	}
	return p.Stats()
}

// StatsAll returns the statistics of every pool, sorted by tenant.
// Pools whose statistics cannot be read are logged and skipped.
func (r *Registry) StatsAll() []Stats {
	all := make([]Stats, 0, r.Count())

	r.pools.Range(func(key, value any) bool {
		id, pool := key.(string), value.(Pool)
		s, err := safeStats(pool)
		if err != nil {
			r.logger.Warn("failed to read tenant pool stats",
				logger.TenantID(id),
				logger.Error(err))
			return true
		}
		all = append(all, s)
		return true
	})

	slices.SortFunc(all, func(a, b Stats) int {
		switch {
		case a.Tenant < b.Tenant:
			return -1
		case a.Tenant > b.Tenant:
			return 1
		}
		return 0
	})
	return all
}

// Count returns the number of registered pools.
func (r *Registry) Count() int {
	return int(r.count.Load())
}

// Exists reports whether tenantID has a registered pool.
func (r *Registry) Exists(tenantID string) bool {
	_, ok := r.load(tenant.Normalize(tenantID))
	return ok
}

// Tenants returns the ids of registered tenants, sorted.
func (r *Registry) Tenants() []string {
	ids := make([]string, 0, r.Count())
	r.pools.Range(func(key, _ any) bool {
		ids = append(ids, key.(string))
		return true
	})
	slices.Sort(ids)
	return ids
}

// Counters returns a snapshot of the cumulative counters.
func (r *Registry) Counters() Counters {
	c := Counters{
		Created: r.created.Load(),
		Failed:  r.failed.Load(),
		Evicted: make(map[EvictReason]uint64, len(evictReasons)),
	}

	r.evictedMu.Lock()
	for _, reason := range evictReasons {
		c.Evicted[reason] = r.evicted[reason]
	}
	r.evictedMu.Unlock()

	return c
}

// Close evicts every pool and rejects further creation. It is idempotent.
func (r *Registry) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}

	for _, id := range r.Tenants() {
		unlock := r.locks.lock(id)
		r.evictLocked(id, EvictShutdown)
		unlock()
	}

	r.logger.Info("tenant pool registry closed")
}

func (r *Registry) load(id string) (Pool, bool) {
	v, ok := r.pools.Load(id)
	if !ok {
		return nil, false
	}
	return v.(Pool), true
}

func (r *Registry) create(ctx context.Context, id string) (Pool, error) {
	unlock := r.locks.lock(id)
	defer unlock()

	// A refresh may have published a pool while we waited for the lock.
	if p, ok := r.load(id); ok {
		return p, nil
	}
	return r.createLocked(ctx, id)
}

// createLocked must be called with the key lock of id held.
func (r *Registry) createLocked(ctx context.Context, id string) (Pool, error) {
	if r.closed.Load() {
		return nil, ErrRegistryClosed
	}

	start := time.Now()
	log := r.logger.With(logger.TenantID(id))

	conn, err := r.source.Load(ctx, id)
	if err != nil {
		r.failed.Add(1)
		if errors.Is(err, ErrTenantNotFound) {
			log.InfoContext(ctx, "tenant has no database configured", logger.Error(err))
			return nil, fmt.Errorf("tenant %q: %w", id, err)
		}
		log.ErrorContext(ctx, "failed to load tenant connection config", logger.Error(err))
		return nil, errors.Join(ErrProvisioningFailed, err)
	}

	if err := conn.Validate(); err != nil {
		r.failed.Add(1)
		log.ErrorContext(ctx, "invalid tenant connection config", logger.Error(err))
		return nil, errors.Join(ErrProvisioningFailed, err)
	}

	pool, err := r.factory(ctx, id, conn, r.config)
	if err != nil {
		r.failed.Add(1)
		log.ErrorContext(ctx, "failed to create tenant pool",
			slog.String("database", conn.String()),
			logger.Error(err))
		return nil, errors.Join(ErrProvisioningFailed, err)
	}

	r.pools.Store(id, pool)
	r.count.Add(1)
	r.created.Add(1)

	// Close may have swept the map before the store.
	if r.closed.Load() {
		r.evictLocked(id, EvictShutdown)
		return nil, ErrRegistryClosed
	}

	log.InfoContext(ctx, "tenant pool created",
		logger.Pool(pool.Name()),
		slog.String("database", conn.String()),
		slog.Int("max_pool_size", int(conn.PoolSize(r.config.MaxPoolSize))),
		slog.Duration("duration", time.Since(start)))

	return pool, nil
}

// evictLocked must be called with the key lock of id held.
func (r *Registry) evictLocked(id string, reason EvictReason) bool {
	v, ok := r.pools.LoadAndDelete(id)
	if !ok {
		return false
	}
	r.closePool(id, v.(Pool), reason)
	return true
}

// evictIf evicts id only while pool is still the registered instance.
func (r *Registry) evictIf(id string, pool Pool, reason EvictReason) bool {
	unlock := r.locks.lock(id)
	defer unlock()

	if !r.pools.CompareAndDelete(id, pool) {
		return false
	}
	r.closePool(id, pool, reason)
	return true
}

func (r *Registry) closePool(id string, pool Pool, reason EvictReason) {
	r.count.Add(-1)
	pool.Close()

	r.evictedMu.Lock()
	r.evicted[reason]++
	r.evictedMu.Unlock()

	r.logger.Info("tenant pool evicted",
		logger.TenantID(id),
		logger.Pool(pool.Name()),
		logger.Reason(string(reason)))
}

func (r *Registry) check(ctx context.Context, pool Pool) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic: %v", ErrHealthcheckFailed, rec)
		}
	}()

	if !pool.Running() {
		return ErrPoolClosed
	}

	if r.config.HealthCheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.HealthCheckTimeout)
		defer cancel()
	}

	if err := pool.Ping(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

func safeStats(pool Pool) (s Stats, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic reading stats: %v", rec)
		}
	}()
	return pool.Stats()
}

func normalize(tenantID string) (string, error) {
	id := tenant.Normalize(tenantID)
	if err := tenant.ValidateID(id); err != nil {
		return "", err
	}
	return id, nil
}
