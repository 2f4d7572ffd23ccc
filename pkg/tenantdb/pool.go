package tenantdb

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenant"
)

// Querier is the data access surface shared by every pool.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Pool is a live, named connection pool bound to one database.
type Pool interface {
	Querier

	// ID identifies this pool instance. A refreshed tenant gets a new ID.
	ID() uuid.UUID
	Name() string
	TenantID() string
	// Config returns the connection config with the password redacted.
	Config() ConnectionConfig
	Ping(ctx context.Context) error
	// Running reports whether the pool still accepts work.
	// It is safe to call while connections are borrowed and returned.
	Running() bool
	Stats() (Stats, error)
	// Close releases every connection and returns once they are closed.
	Close()
}

// Stats is a point in time snapshot of a pool.
type Stats struct {
	Tenant  string `json:"tenant"`
	Pool    string `json:"pool"`
	Active  int32  `json:"active"`
	Idle    int32  `json:"idle"`
	Total   int32  `json:"total"`
	// Waiting counts Acquire calls in flight, including ones an idle
	// connection serves at once. It approximates callers blocked on the pool.
	Waiting int32  `json:"waiting"`
	Max     int32  `json:"max"`
}

// PoolName derives the pool name from the tenant identifier.
func PoolName(tenantID string) string {
	return "tenant-" + tenantID + "-pool"
}

// PgxPool implements Pool on top of *pgxpool.Pool.
type PgxPool struct {
	id       uuid.UUID
	name     string
	tenantID string
	conn     ConnectionConfig
	db       *pgxpool.Pool
	tracer   *acquireTracer
	closed   atomic.Bool
}

// MasterPool wraps the master database pool. The registry never owns it.
func MasterPool(db *pgxpool.Pool) *PgxPool {
	return WrapPool("master-pool", tenant.Master, db)
}

// WrapPool adapts a pool opened elsewhere, such as the default tenant
// database used when per-tenant routing is off.
func WrapPool(name, tenantID string, db *pgxpool.Pool) *PgxPool {
	cfg := db.Config().ConnConfig
	conn := ConnectionConfig{
		Host:     cfg.Host,
		Port:     int(cfg.Port),
		Database: cfg.Database,
		Username: cfg.User,
	}
	return &PgxPool{
		id:       uuid.New(),
		name:     name,
		tenantID: tenantID,
		conn:     conn,
		db:       db,
	}
}

// DB exposes the underlying pgx pool.
func (p *PgxPool) DB() *pgxpool.Pool { return p.db }

func (p *PgxPool) ID() uuid.UUID            { return p.id }
func (p *PgxPool) Name() string             { return p.name }
func (p *PgxPool) TenantID() string         { return p.tenantID }
func (p *PgxPool) Config() ConnectionConfig { return p.conn.Redacted() }
func (p *PgxPool) Running() bool            { return !p.closed.Load() }

func (p *PgxPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.db.Exec(ctx, sql, args...)
}

func (p *PgxPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.db.Query(ctx, sql, args...)
}

func (p *PgxPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.db.QueryRow(ctx, sql, args...)
}

func (p *PgxPool) Begin(ctx context.Context) (pgx.Tx, error) {
	return p.db.Begin(ctx)
}

func (p *PgxPool) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return p.db.SendBatch(ctx, b)
}

func (p *PgxPool) Ping(ctx context.Context) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	return p.db.Ping(ctx)
}

func (p *PgxPool) Stats() (Stats, error) {
	if p.closed.Load() {
		return Stats{}, ErrPoolClosed
	}

	st := p.db.Stat()
	s := Stats{
		Tenant: p.tenantID,
		Pool:   p.name,
		Active: st.AcquiredConns(),
		Idle:   st.IdleConns(),
		Total:  st.TotalConns(),
		Max:    st.MaxConns(),
	}
	if p.tracer != nil {
		s.Waiting = p.tracer.waiting.Load()
	}
	return s, nil
}

// Close is idempotent.
func (p *PgxPool) Close() {
	if p.closed.CompareAndSwap(false, true) {
		p.db.Close()
	}
}

// acquireTracer counts Acquire calls between start and end. Calls served by
// an idle connection are counted too, for the moment they take.
// pgxpool picks it up from ConnConfig.Tracer, so it also has to be a QueryTracer.
type acquireTracer struct {
	waiting atomic.Int32
}

func (t *acquireTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryStartData) context.Context {
	return ctx
}

func (t *acquireTracer) TraceQueryEnd(context.Context, *pgx.Conn, pgx.TraceQueryEndData) {}

func (t *acquireTracer) TraceAcquireStart(ctx context.Context, _ *pgxpool.Pool, _ pgxpool.TraceAcquireStartData) context.Context {
	t.waiting.Add(1)
	return ctx
}

func (t *acquireTracer) TraceAcquireEnd(context.Context, *pgxpool.Pool, pgxpool.TraceAcquireEndData) {
	t.waiting.Add(-1)
}
