package api_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Zaaim-Halim/Humano-sub001/internal/api"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenant"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantdb"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantsource"
)

var errDown = errors.New("database is down")

type stubPool struct {
	id       uuid.UUID
	name     string
	tenantID string
	conn     tenantdb.ConnectionConfig
	closed   atomic.Bool
	down     atomic.Bool
}

func newStubPool(name, tenantID string, conn tenantdb.ConnectionConfig) *stubPool {
	return &stubPool{id: uuid.New(), name: name, tenantID: tenantID, conn: conn}
}

func (p *stubPool) ID() uuid.UUID                     { return p.id }
func (p *stubPool) Name() string                      { return p.name }
func (p *stubPool) TenantID() string                  { return p.tenantID }
func (p *stubPool) Config() tenantdb.ConnectionConfig { return p.conn.Redacted() }
func (p *stubPool) Running() bool                     { return !p.closed.Load() }
func (p *stubPool) Close()                            { p.closed.Store(true) }

func (p *stubPool) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func (p *stubPool) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errDown
}

func (p *stubPool) QueryRow(context.Context, string, ...any) pgx.Row {
	return stubRow{pool: p}
}

func (p *stubPool) Begin(context.Context) (pgx.Tx, error) { return nil, errDown }

func (p *stubPool) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func (p *stubPool) Ping(context.Context) error {
	if p.down.Load() {
		return errDown
	}
	return nil
}

func (p *stubPool) Stats() (tenantdb.Stats, error) {
	if p.closed.Load() {
		return tenantdb.Stats{}, tenantdb.ErrPoolClosed
	}
	return tenantdb.Stats{Tenant: p.tenantID, Pool: p.name, Idle: 2, Total: 2, Max: p.conn.PoolSize(10)}, nil
}

type stubRow struct{ pool *stubPool }

func (r stubRow) Scan(dest ...any) error {
	if r.pool.down.Load() {
		return errDown
	}
	*dest[0].(*string) = r.pool.conn.Database
	return nil
}

// stubFactory opens stubPools and remembers them by tenant.
type stubFactory struct {
	mu    sync.Mutex
	pools map[string]*stubPool
}

func (f *stubFactory) open(_ context.Context, tenantID string, conn tenantdb.ConnectionConfig, _ tenantdb.Config) (tenantdb.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := newStubPool(tenantdb.PoolName(tenantID), tenantID, conn)
	f.pools[tenantID] = p
	return p, nil
}

func (f *stubFactory) pool(tenantID string) *stubPool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pools[tenantID]
}

// stubSources records provisioning calls.
type stubSources struct {
	static      tenantsource.Static
	mu          sync.Mutex
	invalidated []string
	err         error
}

func (s *stubSources) Provision(_ context.Context, tenantID string, conn tenantdb.ConnectionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.static[tenantID] = conn
	return nil
}

func (s *stubSources) Invalidate(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, tenantID)
	return nil
}

func conn(db string) tenantdb.ConnectionConfig {
	return tenantdb.ConnectionConfig{Host: "db.internal", Port: 5432, Database: db, Username: "humano", Password: "secret"}
}

type fixture struct {
	registry *tenantdb.Registry
	factory  *stubFactory
	master   *stubPool
	sources  *stubSources
	server   *api.Server
}

func newFixture(t *testing.T, opts ...api.Option) *fixture {
	t.Helper()

	static := tenantsource.Static{
		"acme":   conn("humano_acme"),
		"globex": conn("humano_globex"),
	}
	f := &fixture{
		factory: &stubFactory{pools: map[string]*stubPool{}},
		master:  newStubPool("master-pool", tenant.Master, conn("humano_master")),
		sources: &stubSources{static: static},
	}

	var err error
	f.registry, err = tenantdb.NewRegistry(static, tenantdb.WithFactory(f.factory.open))
	require.NoError(t, err)
	t.Cleanup(f.registry.Close)

	router, err := tenantdb.NewRouter(f.master, tenantdb.WithRegistry(f.registry))
	require.NoError(t, err)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(tenantdb.NewCollector(f.registry, ""))

	opts = append([]api.Option{api.WithSources(f.sources), api.WithGatherer(promReg)}, opts...)
	f.server, err = api.New(f.registry, router, opts...)
	require.NoError(t, err)
	return f
}
