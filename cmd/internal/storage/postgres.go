package storage

import (
	"context"
	"time"

	"liftlog/cmd/identity"
	"liftlog/cmd/internal/auth/session"
	"liftlog/cmd/internal/dbx"
	"liftlog/cmd/internal/ownership"
	"liftlog/cmd/internal/storage/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// PoolOptions tunes the connection pool.
type PoolOptions struct {
	MaxConns int32
	MinConns int32
}

// OpenPool builds a pgxpool and validates connectivity.
func OpenPool(ctx context.Context, url string, opts PoolOptions) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	if opts.MaxConns > 0 {
		pcfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns >= 0 {
		pcfg.MinConns = opts.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	if err := PingPool(ctx, pool, 3*time.Second); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// PingPool checks that a connection can be acquired within timeout.
func PingPool(parent context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	conn.Release()
	return nil
}

// Migrate applies the embedded migrations through pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()
	return migrations.Up(ctx, db)
}

// Postgres is the pgx-backed Backend. It owns the pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps pool. Close closes the pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Sessions() session.Store { return session.NewPostgresStore(p.pool) }

func (p *Postgres) Users() identity.Store { return identity.NewPostgresStore(p.pool) }

func (p *Postgres) Owned() ownership.Counter { return ownership.NewPostgresCounter(p.pool) }

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Close() { p.pool.Close() }

func (p *Postgres) Ping(ctx context.Context) error {
	return PingPool(ctx, p.pool, 2*time.Second)
}

// WithTx runs fn inside a pgx transaction.
func (p *Postgres) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return dbx.WithTx(ctx, p.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

func (t pgTx) Sessions() session.Store { return session.NewPostgresStore(t.tx) }

func (t pgTx) Users() identity.Store { return identity.NewPostgresStore(t.tx) }

func (t pgTx) Owned() ownership.Counter { return ownership.NewPostgresCounter(t.tx) }
