package postgres

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LockManager provides distributed locks using PostgreSQL advisory locks.
// Advisory locks belong to a connection, so each lock pins one pool connection
// until it is released.
type LockManager struct {
	pool *pgxpool.Pool
}

func NewLockManager(pool *pgxpool.Pool) *LockManager { return &LockManager{pool: pool} }

// Lock is a held advisory lock and the connection that owns it
type Lock struct {
	conn *pgxpool.Conn
	key  string
	id   int64
}

// Conn returns the connection holding the lock
func (l *Lock) Conn() *pgxpool.Conn { return l.conn }

// Release unlocks and returns the connection to the pool
func (l *Lock) Release(ctx context.Context) error {
	defer l.conn.Release()
	if _, err := l.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", l.id); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}

// hashKey converts a string key to a uint32 for advisory locks
func hashKey(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32()
}

// Acquire obtains an exclusive advisory lock. Blocks until acquired.
func (m *LockManager) Acquire(ctx context.Context, key string) (*Lock, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for lock %s: %w", key, err)
	}
	id := int64(hashKey(key))
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", id); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	return &Lock{conn: conn, key: key, id: id}, nil
}

// tryAcquire tries to obtain the lock without blocking. A nil lock means it is held elsewhere.
func (m *LockManager) tryAcquire(ctx context.Context, key string) (*Lock, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for lock %s: %w", key, err)
	}
	id := int64(hashKey(key))
	var ok bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", id).Scan(&ok); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to try lock %s: %w", key, err)
	}
	if !ok {
		conn.Release()
		return nil, nil
	}
	return &Lock{conn: conn, key: key, id: id}, nil
}
