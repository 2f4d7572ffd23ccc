package tenantdb

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenant"
)

// KeyResolver returns the routing key of the current unit of work.
// An empty key or tenant.Master routes to the master pool.
type KeyResolver interface {
	RoutingKey(ctx context.Context) string
}

// KeyResolverFunc adapts a function to KeyResolver.
type KeyResolverFunc func(ctx context.Context) string

// RoutingKey calls f.
func (f KeyResolverFunc) RoutingKey(ctx context.Context) string { return f(ctx) }

// CurrentTenant routes by the tenant scope installed with tenant.Begin.
func CurrentTenant() KeyResolver {
	return KeyResolverFunc(func(ctx context.Context) string {
		id, _ := tenant.Current(ctx)
		return id
	})
}

// TargetKind tells which kind of pool serves an operation.
type TargetKind int

const (
	TargetMaster TargetKind = iota
	TargetDefault
	TargetTenant
)

func (k TargetKind) String() string {
	switch k {
	case TargetMaster:
		return "master"
	case TargetDefault:
		return "default"
	case TargetTenant:
		return "tenant"
	}
	return "unknown"
}

// Target is the outcome of one routing decision.
type Target struct {
	Kind TargetKind
	Key  string
	Pool Pool
}

// Router picks the pool for every operation from the current routing key.
// Decisions are never cached: each call resolves again.
type Router struct {
	keys     KeyResolver
	master   Pool
	registry *Registry
	fallback Pool
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRegistry wires the tenant pool registry.
func WithRegistry(registry *Registry) RouterOption {
	return func(r *Router) {
		r.registry = registry
	}
}

// WithFallback sets the pool used for tenant work when no registry is wired.
// Defaults to the master pool.
func WithFallback(pool Pool) RouterOption {
	return func(r *Router) {
		if pool != nil {
			r.fallback = pool
		}
	}
}

// WithKeyResolver replaces CurrentTenant as the source of routing keys.
func WithKeyResolver(keys KeyResolver) RouterOption {
	return func(r *Router) {
		if keys != nil {
			r.keys = keys
		}
	}
}

// NewRouter creates a router around the master pool.
func NewRouter(master Pool, opts ...RouterOption) (*Router, error) {
	if master == nil {
		return nil, ErrNoMasterPool
	}

	r := &Router{
		keys:   CurrentTenant(),
		master: master,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fallback == nil {
		r.fallback = master
	}
	return r, nil
}

// Resolve decides which pool serves the next operation of ctx.
// Registry errors are returned as is; there is no fallback to master.
func (r *Router) Resolve(ctx context.Context) (Target, error) {
	key := r.keys.RoutingKey(ctx)
	if key == "" || key == tenant.Master {
		return Target{Kind: TargetMaster, Key: tenant.Master, Pool: r.master}, nil
	}

	if r.registry == nil {
		return Target{Kind: TargetDefault, Key: key, Pool: r.fallback}, nil
	}

	pool, err := r.registry.GetOrCreate(ctx, key)
	if err != nil {
		return Target{}, err
	}
	return Target{Kind: TargetTenant, Key: key, Pool: pool}, nil
}

// Pool returns the pool that serves the next operation of ctx.
func (r *Router) Pool(ctx context.Context) (Pool, error) {
	t, err := r.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return t.Pool, nil
}

// Master returns the master pool.
func (r *Router) Master() Pool { return r.master }

func (r *Router) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p, err := r.Pool(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return p.Exec(ctx, sql, args...)
}

func (r *Router) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	p, err := r.Pool(ctx)
	if err != nil {
		return nil, err
	}
	return p.Query(ctx, sql, args...)
}

func (r *Router) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	p, err := r.Pool(ctx)
	if err != nil {
		return errRow{err: err}
	}
	return p.QueryRow(ctx, sql, args...)
}

func (r *Router) Begin(ctx context.Context) (pgx.Tx, error) {
	p, err := r.Pool(ctx)
	if err != nil {
		return nil, err
	}
	return p.Begin(ctx)
}

func (r *Router) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	p, err := r.Pool(ctx)
	if err != nil {
		return errBatch{err: err}
	}
	return p.SendBatch(ctx, b)
}

var _ Querier = (*Router)(nil)

type errRow struct{ err error }

func (e errRow) Scan(...any) error { return e.err }

type errBatch struct{ err error }

func (e errBatch) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, e.err }
func (e errBatch) Query() (pgx.Rows, error)         { return nil, e.err }
func (e errBatch) QueryRow() pgx.Row                { return errRow(e) }
func (e errBatch) Close() error                     { return e.err }
