package tenantdb_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenant"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantdb"
)

func newTestRegistry(t *testing.T, source tenantdb.Source, factory *fakeFactory) *tenantdb.Registry {
	t.Helper()

	registry, err := tenantdb.NewRegistry(source,
		tenantdb.WithFactory(factory.open),
		tenantdb.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	t.Cleanup(registry.Close)
	return registry
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	_, err := tenantdb.NewRegistry(nil)
	assert.ErrorIs(t, err, tenantdb.ErrNilSource)
}

func TestRegistry_GetOrCreate(t *testing.T) {
	t.Parallel()

	t.Run("exactly once under contention", func(t *testing.T) {
		t.Parallel()

		source := newCountingSource("newtenant")
		source.setDelay(50 * time.Millisecond)
		factory := &fakeFactory{}
		registry := newTestRegistry(t, source, factory)

		const callers = 64
		pools := make([]tenantdb.Pool, callers)
		errs := make([]error, callers)

		start := make(chan struct{})
		var wg sync.WaitGroup
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				pools[i], errs[i] = registry.GetOrCreate(context.Background(), "newTenant")
			}()
		}
		close(start)
		wg.Wait()

		for i := range callers {
			require.NoError(t, errs[i])
			assert.Same(t, pools[0], pools[i])
		}
		assert.Equal(t, int32(1), source.loads.Load())
		assert.Equal(t, int32(1), factory.created.Load())
		assert.Equal(t, 1, registry.Count())
		assert.True(t, registry.Exists("newtenant"))
	})

	t.Run("cached pool is returned without loading again", func(t *testing.T) {
		t.Parallel()

		source := newCountingSource("acme")
		registry := newTestRegistry(t, source, &fakeFactory{})

		first, err := registry.GetOrCreate(context.Background(), "acme")
		require.NoError(t, err)
		second, err := registry.GetOrCreate(context.Background(), " ACME ")
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, int32(1), source.loads.Load())
		assert.Equal(t, "tenant-acme-pool", first.Name())
	})

	t.Run("failure reaches every concurrent caller and is not cached", func(t *testing.T) {
		t.Parallel()

		source := newCountingSource("acme")
		source.setErr(errors.New("connection refused"))
		source.setDelay(30 * time.Millisecond)
		factory := &fakeFactory{}
		registry := newTestRegistry(t, source, factory)

		const callers = 16
		errs := make([]error, callers)
		var wg sync.WaitGroup
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = registry.GetOrCreate(context.Background(), "acme")
			}()
		}
		wg.Wait()

		for _, err := range errs {
			assert.ErrorIs(t, err, tenantdb.ErrProvisioningFailed)
		}
		assert.False(t, registry.Exists("acme"))
		assert.Zero(t, registry.Count())
		assert.Zero(t, factory.created.Load())

		source.setErr(nil)
		source.setDelay(0)

		pool, err := registry.GetOrCreate(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, "acme", pool.TenantID())
	})

	t.Run("unknown tenant", func(t *testing.T) {
		t.Parallel()

		registry := newTestRegistry(t, newCountingSource(), &fakeFactory{})

		_, err := registry.GetOrCreate(context.Background(), "ghost")
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
		assert.NotErrorIs(t, err, tenantdb.ErrProvisioningFailed)
		assert.False(t, registry.Exists("ghost"))
	})

	t.Run("factory failure", func(t *testing.T) {
		t.Parallel()

		factory := &fakeFactory{err: errors.New("password authentication failed")}
		registry := newTestRegistry(t, newCountingSource("acme"), factory)

		_, err := registry.GetOrCreate(context.Background(), "acme")
		assert.ErrorIs(t, err, tenantdb.ErrProvisioningFailed)
		assert.False(t, registry.Exists("acme"))
		assert.Equal(t, uint64(1), registry.Counters().Failed)
	})

	t.Run("invalid connection config", func(t *testing.T) {
		t.Parallel()

		source := newCountingSource()
		source.set("acme", tenantdb.ConnectionConfig{Host: "db1", Database: "acme"})
		factory := &fakeFactory{}
		registry := newTestRegistry(t, source, factory)

		_, err := registry.GetOrCreate(context.Background(), "acme")
		assert.ErrorIs(t, err, tenantdb.ErrProvisioningFailed)
		assert.ErrorIs(t, err, tenantdb.ErrInvalidConnectionConfig)
		assert.Zero(t, factory.created.Load())
	})

	t.Run("invalid identifier never reaches the source", func(t *testing.T) {
		t.Parallel()

		source := newCountingSource()
		registry := newTestRegistry(t, source, &fakeFactory{})

		for _, id := range []string{"", "   ", "acme.com", "../etc"} {
			_, err := registry.GetOrCreate(context.Background(), id)
			assert.ErrorIs(t, err, tenant.ErrInvalidIdentifier, "id %q", id)
		}
		assert.Zero(t, source.loads.Load())
	})

	t.Run("caller cancellation does not abort shared creation", func(t *testing.T) {
		t.Parallel()

		source := newCountingSource("acme")
		source.setDelay(100 * time.Millisecond)
		factory := &fakeFactory{}
		registry := newTestRegistry(t, source, factory)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			_, err := registry.GetOrCreate(ctx, "acme")
			errCh <- err
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()
		assert.ErrorIs(t, <-errCh, context.Canceled)

		pool, err := registry.GetOrCreate(context.Background(), "acme")
		require.NoError(t, err)
		assert.NotNil(t, pool)
		assert.Equal(t, int32(1), factory.created.Load())
	})
}

func TestRegistry_Evict(t *testing.T) {
	t.Parallel()

	source := newCountingSource("acme")
	factory := &fakeFactory{}
	registry := newTestRegistry(t, source, factory)

	first, err := registry.GetOrCreate(context.Background(), "acme")
	require.NoError(t, err)

	assert.True(t, registry.Evict("acme"))
	assert.False(t, registry.Exists("acme"))
	assert.Zero(t, registry.Count())
	assert.Equal(t, int32(1), factory.all()[0].closes.Load())

	assert.False(t, registry.Evict("acme"), "evicting an absent tenant is a no-op")
	assert.False(t, registry.Evict("never-seen"))

	second, err := registry.GetOrCreate(context.Background(), "acme")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.True(t, second.Running())
	assert.Equal(t, uint64(1), registry.Counters().Evicted[tenantdb.EvictManual])
}

func TestRegistry_Refresh(t *testing.T) {
	t.Parallel()

	source := newCountingSource("acme")
	factory := &fakeFactory{}
	registry := newTestRegistry(t, source, factory)

	old, err := registry.GetOrCreate(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "db1.internal", old.Config().Host)

	source.set("acme", connFor("acme", "db2.internal"))

	fresh, err := registry.Refresh(context.Background(), "acme")
	require.NoError(t, err)

	assert.Equal(t, "db2.internal", fresh.Config().Host)
	assert.NotEqual(t, old.ID(), fresh.ID())
	assert.Equal(t, int32(1), factory.all()[0].closes.Load(), "old pool must be closed")
	assert.False(t, old.Running())
	assert.Equal(t, 1, registry.Count())

	current, err := registry.GetOrCreate(context.Background(), "acme")
	require.NoError(t, err)
	assert.Same(t, fresh, current)

	t.Run("refresh of an unknown pool creates it", func(t *testing.T) {
		source.set("globex", connFor("globex", "db1.internal"))

		pool, err := registry.Refresh(context.Background(), "globex")
		require.NoError(t, err)
		assert.Equal(t, "globex", pool.TenantID())
	})

	t.Run("failed refresh leaves nothing registered", func(t *testing.T) {
		source.setErr(errors.New("registry database down"))
		defer source.setErr(nil)

		_, err := registry.Refresh(context.Background(), "acme")
		assert.ErrorIs(t, err, tenantdb.ErrProvisioningFailed)
		assert.False(t, registry.Exists("acme"))
		assert.False(t, fresh.Running())
	})
}

func TestRegistry_HealthCheck(t *testing.T) {
	t.Parallel()

	source := newCountingSource("a", "b", "c", "d", "e")
	factory := &fakeFactory{}
	registry := newTestRegistry(t, source, factory)

	pools := map[string]*fakePool{}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		_, err := registry.GetOrCreate(context.Background(), id)
		require.NoError(t, err)
		pools[id] = factory.last()
	}

	pools["b"].setPingErr(errors.New("server closed the connection unexpectedly"))
	pools["d"].stopped.Store(true)
	pools["e"].setPingPanic()

	evicted := registry.HealthCheck(context.Background())
	assert.Equal(t, []string{"b", "d", "e"}, evicted)

	assert.Equal(t, []string{"a", "c"}, registry.Tenants())
	assert.Equal(t, int32(1), pools["b"].closes.Load())
	assert.Zero(t, pools["a"].closes.Load())
	assert.Zero(t, pools["c"].closes.Load())

	stats := registry.StatsAll()
	require.Len(t, stats, 2)
	assert.Equal(t, "a", stats[0].Tenant)
	assert.Equal(t, "c", stats[1].Tenant)
	assert.Equal(t, int32(3), stats[1].Total)

	assert.Empty(t, registry.HealthCheck(context.Background()))
	assert.Equal(t, uint64(3), registry.Counters().Evicted[tenantdb.EvictUnhealthy])

	pool, err := registry.GetOrCreate(context.Background(), "b")
	require.NoError(t, err)
	assert.True(t, pool.Running(), "evicted tenant is recreated lazily")
}

func TestRegistry_HealthCheckCancelled(t *testing.T) {
	t.Parallel()

	t.Run("cancelled cycle keeps healthy pools", func(t *testing.T) {
		t.Parallel()

		factory := &fakeFactory{}
		registry := newTestRegistry(t, newCountingSource("a", "b"), factory)
		for _, id := range []string{"a", "b"} {
			_, err := registry.GetOrCreate(context.Background(), id)
			require.NoError(t, err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.Empty(t, registry.HealthCheck(ctx))
		assert.Equal(t, []string{"a", "b"}, registry.Tenants())
		for _, p := range factory.all() {
			assert.Zero(t, p.closes.Load(), p.tenantID)
		}
		assert.Zero(t, registry.Counters().Evicted[tenantdb.EvictUnhealthy])
	})

	t.Run("cancel during a slow ping evicts nothing", func(t *testing.T) {
		t.Parallel()

		factory := &fakeFactory{}
		registry := newTestRegistry(t, newCountingSource("a", "slow"), factory)
		for _, id := range []string{"a", "slow"} {
			_, err := registry.GetOrCreate(context.Background(), id)
			require.NoError(t, err)
		}
		factory.last().setPingHang()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		assert.Empty(t, registry.HealthCheck(ctx))
		assert.Equal(t, 2, registry.Count())
	})

	t.Run("per-pool timeout still evicts", func(t *testing.T) {
		t.Parallel()

		cfg := tenantdb.DefaultConfig()
		cfg.HealthCheckTimeout = 20 * time.Millisecond

		factory := &fakeFactory{}
		registry, err := tenantdb.NewRegistry(newCountingSource("a", "slow"),
			tenantdb.WithFactory(factory.open),
			tenantdb.WithConfig(cfg),
			tenantdb.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		)
		require.NoError(t, err)
		t.Cleanup(registry.Close)

		for _, id := range []string{"a", "slow"} {
			_, err := registry.GetOrCreate(context.Background(), id)
			require.NoError(t, err)
		}
		slow := factory.last()
		slow.setPingHang()

		assert.Equal(t, []string{"slow"}, registry.HealthCheck(context.Background()))
		assert.Equal(t, []string{"a"}, registry.Tenants())
		assert.Equal(t, int32(1), slow.closes.Load())
	})
}

func TestRegistry_Stats(t *testing.T) {
	t.Parallel()

	source := newCountingSource("a", "b", "c")
	factory := &fakeFactory{}
	registry := newTestRegistry(t, source, factory)

	for _, id := range []string{"c", "a", "b"} {
		_, err := registry.GetOrCreate(context.Background(), id)
		require.NoError(t, err)
	}
	factory.all()[2].setStatsErr(errors.New("stat failed"))

	stats := registry.StatsAll()
	require.Len(t, stats, 2)
	assert.Equal(t, "a", stats[0].Tenant)
	assert.Equal(t, "c", stats[1].Tenant)

	s, err := registry.StatsFor("a")
	require.NoError(t, err)
	assert.Equal(t, "tenant-a-pool", s.Pool)
	assert.Equal(t, int32(1), s.Active)
	assert.Equal(t, int32(2), s.Idle)

	_, err = registry.StatsFor("b")
	assert.Error(t, err)

	_, err = registry.StatsFor("missing")
	assert.ErrorIs(t, err, tenantdb.ErrPoolNotFound)
}

func TestRegistry_Close(t *testing.T) {
	t.Parallel()

	factory := &fakeFactory{}
	registry := newTestRegistry(t, newCountingSource("a", "b"), factory)

	for _, id := range []string{"a", "b"} {
		_, err := registry.GetOrCreate(context.Background(), id)
		require.NoError(t, err)
	}

	registry.Close()
	registry.Close()

	assert.Zero(t, registry.Count())
	for _, p := range factory.all() {
		assert.Equal(t, int32(1), p.closes.Load())
	}

	_, err := registry.GetOrCreate(context.Background(), "a")
	assert.ErrorIs(t, err, tenantdb.ErrRegistryClosed)
	_, err = registry.Refresh(context.Background(), "a")
	assert.ErrorIs(t, err, tenantdb.ErrRegistryClosed)
	assert.Equal(t, uint64(2), registry.Counters().Evicted[tenantdb.EvictShutdown])
}

func TestRegistry_ConcurrentLifecycle(t *testing.T) {
	t.Parallel()

	ids := []string{"t0", "t1", "t2", "t3"}
	source := newCountingSource(ids...)
	factory := &fakeFactory{}
	registry := newTestRegistry(t, source, factory)

	var wg sync.WaitGroup
	for w := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(uint64(w), 42))
			for range 200 {
				id := ids[rng.IntN(len(ids))]
				switch rng.IntN(4) {
				case 0:
					registry.Evict(id)
				case 1:
					_, err := registry.Refresh(context.Background(), id)
					assert.NoError(t, err)
				default:
					_, err := registry.GetOrCreate(context.Background(), id)
					assert.NoError(t, err)
				}
			}
		}()
	}
	wg.Wait()

	live := map[string]bool{}
	for _, id := range registry.Tenants() {
		pool, err := registry.GetOrCreate(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, pool.Running(), "registry must never hold a closed pool")
		live[pool.ID().String()] = true
	}
	assert.Equal(t, len(live), registry.Count())

	for _, p := range factory.all() {
		want := int32(1)
		if live[p.ID().String()] {
			want = 0
		}
		assert.Equal(t, want, p.closes.Load(), fmt.Sprintf("pool %s of %s", p.ID(), p.TenantID()))
	}
}
