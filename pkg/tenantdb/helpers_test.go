package tenantdb_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenant"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantdb"
)

var errFake = errors.New("fake pool")

// fakePool tracks closes and lets tests toggle its health.
type fakePool struct {
	id       uuid.UUID
	tenantID string
	conn     tenantdb.ConnectionConfig

	closes  atomic.Int32
	execs   atomic.Int32
	stopped atomic.Bool

	mu        sync.Mutex
	pingErr   error
	statsErr  error
	pingPanic bool
	pingHang  bool
}

func newFakePool(tenantID string, conn tenantdb.ConnectionConfig) *fakePool {
	return &fakePool{id: uuid.New(), tenantID: tenantID, conn: conn}
}

func (p *fakePool) ID() uuid.UUID                     { return p.id }
func (p *fakePool) Name() string                      { return tenantdb.PoolName(p.tenantID) }
func (p *fakePool) TenantID() string                  { return p.tenantID }
func (p *fakePool) Config() tenantdb.ConnectionConfig { return p.conn.Redacted() }
func (p *fakePool) Running() bool                     { return !p.stopped.Load() && p.closes.Load() == 0 }

func (p *fakePool) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	p.execs.Add(1)
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func (p *fakePool) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errFake
}

func (p *fakePool) QueryRow(context.Context, string, ...any) pgx.Row {
	return fakeRow{tenantID: p.tenantID}
}

func (p *fakePool) Begin(context.Context) (pgx.Tx, error) {
	return nil, errFake
}

func (p *fakePool) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	return nil
}

// Ping fails with ctx.Err() once ctx is done, as pgxpool does.
func (p *fakePool) Ping(ctx context.Context) error {
	p.mu.Lock()
	hang, doPanic, err := p.pingHang, p.pingPanic, p.pingErr
	p.mu.Unlock()

	if doPanic {
		panic("driver exploded")
	}
	if hang {
		<-ctx.Done()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (p *fakePool) Stats() (tenantdb.Stats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.statsErr != nil {
		return tenantdb.Stats{}, p.statsErr
	}
	return tenantdb.Stats{
		Tenant: p.tenantID,
		Pool:   p.Name(),
		Active: 1,
		Idle:   2,
		Total:  3,
		Max:    p.conn.PoolSize(10),
	}, nil
}

func (p *fakePool) Close() { p.closes.Add(1) }

func (p *fakePool) setPingErr(err error) {
	p.mu.Lock()
	p.pingErr = err
	p.mu.Unlock()
}

func (p *fakePool) setStatsErr(err error) {
	p.mu.Lock()
	p.statsErr = err
	p.mu.Unlock()
}

func (p *fakePool) setPingHang() {
	p.mu.Lock()
	p.pingHang = true
	p.mu.Unlock()
}

func (p *fakePool) setPingPanic() {
	p.mu.Lock()
	p.pingPanic = true
	p.mu.Unlock()
}

type fakeRow struct{ tenantID string }

func (r fakeRow) Scan(dest ...any) error {
	if len(dest) == 1 {
		if s, ok := dest[0].(*string); ok {
			*s = r.tenantID
			return nil
		}
	}
	return errFake
}

// fakeFactory builds fakePools and remembers every one of them.
type fakeFactory struct {
	mu      sync.Mutex
	pools   []*fakePool
	created atomic.Int32
	err     error
}

func (f *fakeFactory) open(_ context.Context, tenantID string, conn tenantdb.ConnectionConfig, _ tenantdb.Config) (tenantdb.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p := newFakePool(tenantID, conn)
	f.pools = append(f.pools, p)
	f.created.Add(1)
	return p, nil
}

func (f *fakeFactory) all() []*fakePool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakePool(nil), f.pools...)
}

func (f *fakeFactory) last() *fakePool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pools[len(f.pools)-1]
}

// countingSource counts loads and can be slowed down or broken.
type countingSource struct {
	mu      sync.Mutex
	configs map[string]tenantdb.ConnectionConfig
	err     error
	delay   time.Duration
	loads   atomic.Int32
}

func newCountingSource(ids ...string) *countingSource {
	s := &countingSource{configs: make(map[string]tenantdb.ConnectionConfig)}
	for _, id := range ids {
		s.configs[id] = connFor(id, "db1.internal")
	}
	return s
}

func connFor(id, host string) tenantdb.ConnectionConfig {
	return tenantdb.ConnectionConfig{
		Host:     host,
		Port:     5432,
		Database: "humano_" + id,
		Username: "humano",
		Password: "secret",
	}
}

func (s *countingSource) Load(ctx context.Context, tenantID string) (tenantdb.ConnectionConfig, error) {
	s.loads.Add(1)

	s.mu.Lock()
	delay, err := s.delay, s.err
	conn, ok := s.configs[tenantID]
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return tenantdb.ConnectionConfig{}, ctx.Err()
		}
	}
	if err != nil {
		return tenantdb.ConnectionConfig{}, err
	}
	if !ok {
		return tenantdb.ConnectionConfig{}, tenant.ErrTenantNotFound
	}
	return conn, nil
}

func (s *countingSource) set(id string, conn tenantdb.ConnectionConfig) {
	s.mu.Lock()
	s.configs[id] = conn
	s.mu.Unlock()
}

func (s *countingSource) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *countingSource) setDelay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}
