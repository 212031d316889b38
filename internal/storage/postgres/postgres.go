// Package postgres persists unit health in PostgreSQL using pgx v5 and
// applies the schema with golang-migrate.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/momserver/internal/config"
)

// ErrSchemaMissing is returned by Health when the units table has not been
// migrated into the connected database.
var ErrSchemaMissing = errors.New("units schema missing")

// Pool is the connection pool behind the unit store. The combat server owns
// one for its lifetime and hands it to UnitRepository.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the unit database described by cfg.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a pinged Pool or a non-nil error. The schema is not
// checked here; see Health.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// Health checks within timeout that the database answers and that the units
// table unit health is written to exists.
//
// Precondition: The pool must not be closed.
// Postcondition: Returns ErrSchemaMissing when the database answers but the
// units table is absent.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	var present bool
	if err := p.pool.QueryRow(ctx, `SELECT to_regclass('units') IS NOT NULL`).Scan(&present); err != nil {
		return fmt.Errorf("checking unit store: %w", err)
	}
	if !present {
		return ErrSchemaMissing
	}
	return nil
}

// Close releases all pool resources.
//
// Postcondition: The pool is no longer usable after calling Close.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}

// Units returns a UnitRepository sharing this pool.
func (p *Pool) Units() *UnitRepository {
	return NewUnitRepository(p.pool)
}
