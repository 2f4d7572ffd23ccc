package tenantsource

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenant"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantdb"
)

// Querier is the subset of *pgxpool.Pool used by Postgres.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const loadQuery = `SELECT db_host, db_port, db_name, db_username, db_password, max_pool_size
FROM tenants
WHERE subdomain = $1 AND db_name IS NOT NULL`

const upsertQuery = `INSERT INTO tenants (subdomain, db_host, db_port, db_name, db_username, db_password, max_pool_size)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (subdomain) DO UPDATE SET
	db_host = EXCLUDED.db_host,
	db_port = EXCLUDED.db_port,
	db_name = EXCLUDED.db_name,
	db_username = EXCLUDED.db_username,
	db_password = EXCLUDED.db_password,
	max_pool_size = EXCLUDED.max_pool_size,
	updated_at = now()`

// Postgres reads tenant records from the tenants table of the master database.
// Passwords are returned as stored.
type Postgres struct {
	db Querier
}

// NewPostgres creates a source on top of the master database.
func NewPostgres(db Querier) (*Postgres, error) {
	if db == nil {
		return nil, ErrNilQuerier
	}
	return &Postgres{db: db}, nil
}

// Load implements tenantdb.Source. A record without a database host or name
// counts as not found.
func (s *Postgres) Load(ctx context.Context, tenantID string) (tenantdb.ConnectionConfig, error) {
	var (
		host, name, user, password pgtype.Text
		port, maxPool              pgtype.Int4
	)

	err := s.db.QueryRow(ctx, loadQuery, tenantID).Scan(&host, &port, &name, &user, &password, &maxPool)
	if errors.Is(err, pgx.ErrNoRows) {
		return tenantdb.ConnectionConfig{}, fmt.Errorf("%w: %s", tenant.ErrTenantNotFound, tenantID)
	}
	if err != nil {
		return tenantdb.ConnectionConfig{}, errors.Join(ErrLoadFailed, err)
	}
	if !host.Valid || host.String == "" || !name.Valid || name.String == "" {
		return tenantdb.ConnectionConfig{}, fmt.Errorf("%w: %s has no database configured", tenant.ErrTenantNotFound, tenantID)
	}

	conn := tenantdb.ConnectionConfig{
		Host:     host.String,
		Port:     int(port.Int32),
		Database: name.String,
		Username: user.String,
		Password: password.String,
	}
	if maxPool.Valid {
		size := maxPool.Int32
		conn.MaxPoolSize = &size
	}
	return conn, nil
}

// Upsert stores the connection record of tenantID. A zero port is stored as
// tenantdb.DefaultPort. The password is written as given; seal it first with
// Decrypting.Seal when passwords are encrypted.
func (s *Postgres) Upsert(ctx context.Context, tenantID string, conn tenantdb.ConnectionConfig) error {
	conn = conn.WithDefaults()

	var maxPool pgtype.Int4
	if conn.MaxPoolSize != nil {
		maxPool = pgtype.Int4{Int32: *conn.MaxPoolSize, Valid: true}
	}

	_, err := s.db.Exec(ctx, upsertQuery,
		tenantID, conn.Host, conn.Port, conn.Database, conn.Username, conn.Password, maxPool)
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	return nil
}
