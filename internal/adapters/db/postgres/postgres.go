// Package postgres keeps the session store in PostgreSQL for deployments that
// separate session state from the primary document store.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store owns the connection pool
type Store struct {
	pool *pgxpool.Pool
}

// New opens a pool and pings the server
func New(ctx context.Context, dsn string) (*Store, error) {
	const op = "postgres.New"

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the pool
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks the server is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
