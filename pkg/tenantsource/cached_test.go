package tenantsource_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenant"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantsource"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestCached_ReadThrough(t *testing.T) {
	t.Parallel()

	srv, client := newRedis(t)
	backing := tenantsource.Static{"acme": acmeConn("db1.internal")}
	counting := &countingSource{next: backing}
	cached := tenantsource.NewCached(counting, client, tenantsource.WithTTL(time.Minute), tenantsource.WithPrefix("test:"))

	for range 3 {
		conn, err := cached.Load(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, "db1.internal", conn.Host)
		require.NotNil(t, conn.MaxPoolSize)
		assert.Equal(t, int32(12), *conn.MaxPoolSize)
	}
	assert.Equal(t, int32(1), counting.loads.Load())

	assert.True(t, srv.Exists("test:acme"))
	assert.Equal(t, time.Minute, srv.TTL("test:acme"))

	srv.FastForward(2 * time.Minute)
	_, err := cached.Load(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, int32(2), counting.loads.Load(), "expired entry is reloaded")
}

func TestCached_Invalidate(t *testing.T) {
	t.Parallel()

	srv, client := newRedis(t)
	backing := tenantsource.Static{"acme": acmeConn("db1.internal")}
	cached := tenantsource.NewCached(backing, client)

	_, err := cached.Load(context.Background(), "acme")
	require.NoError(t, err)

	backing["acme"] = acmeConn("db2.internal")

	conn, err := cached.Load(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "db1.internal", conn.Host, "served from cache")

	require.NoError(t, cached.Invalidate(context.Background(), "acme"))
	assert.False(t, srv.Exists("humano:tenant-db:acme"))

	conn, err = cached.Load(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "db2.internal", conn.Host)
}

func TestCached_NotFoundIsNotCached(t *testing.T) {
	t.Parallel()

	srv, client := newRedis(t)
	counting := &countingSource{next: tenantsource.Static{}}
	cached := tenantsource.NewCached(counting, client)

	for range 2 {
		_, err := cached.Load(context.Background(), "ghost")
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
	}
	assert.Equal(t, int32(2), counting.loads.Load())
	assert.Empty(t, srv.Keys())
}

func TestCached_DegradesWithoutRedis(t *testing.T) {
	t.Parallel()

	srv, client := newRedis(t)
	counting := &countingSource{next: tenantsource.Static{"acme": acmeConn("db1.internal")}}
	cached := tenantsource.NewCached(counting, client)

	srv.Close()

	conn, err := cached.Load(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "db1.internal", conn.Host)
	assert.Equal(t, int32(1), counting.loads.Load())
}

func TestCached_CorruptEntry(t *testing.T) {
	t.Parallel()

	srv, client := newRedis(t)
	require.NoError(t, srv.Set("humano:tenant-db:acme", "{not json"))

	cached := tenantsource.NewCached(tenantsource.Static{"acme": acmeConn("db1.internal")}, client)

	conn, err := cached.Load(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "db1.internal", conn.Host)

	raw, err := srv.Get("humano:tenant-db:acme")
	require.NoError(t, err)
	assert.Contains(t, raw, "db1.internal", "corrupt entry replaced")
}
