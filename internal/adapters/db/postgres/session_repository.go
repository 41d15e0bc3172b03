package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourbook/internal/domain/auth"

	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, user_id, valid, user_agent, ip, created_at, updated_at`

// SessionRepository is a Postgres implementation of auth.SessionRepository
type SessionRepository struct {
	store *Store
}

// NewSessionRepository constructs a SessionRepository
func NewSessionRepository(s *Store) *SessionRepository { return &SessionRepository{store: s} }

// scanSession scans a session row into an auth.Session
func scanSession(row pgx.CollectableRow) (*auth.Session, error) {
	var s auth.Session
	if err := row.Scan(&s.ID, &s.UserID, &s.Valid, &s.UserAgent, &s.IP, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) CreateSession(ctx context.Context, s *auth.Session) error {
	_, err := r.store.pool.Exec(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.UserID, s.Valid, s.UserAgent, s.IP, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*auth.Session, error) {
	rows, err := r.store.pool.Query(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id=$1`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, scanSession)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// InvalidateSession flips a valid session in one round trip. The existence check reads
// the statement snapshot, so it also covers sessions that were already invalid.
func (r *SessionRepository) InvalidateSession(ctx context.Context, sessionID string) error {
	var exists bool
	err := r.store.pool.QueryRow(ctx, `
		WITH updated AS (
			UPDATE sessions SET valid = FALSE, updated_at = $2 WHERE id = $1 AND valid
			RETURNING id
		)
		SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`,
		sessionID, time.Now().UTC()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	if !exists {
		return auth.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) InvalidateUserSessions(ctx context.Context, userID, keepID string) (int, error) {
	tag, err := r.store.pool.Exec(ctx,
		`UPDATE sessions SET valid = FALSE, updated_at = $3 WHERE user_id = $1 AND valid AND id <> $2`,
		userID, keepID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("invalidate user sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *SessionRepository) ListUserSessions(ctx context.Context, userID string) ([]*auth.Session, error) {
	rows, err := r.store.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id=$1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	sessions, err := pgx.CollectRows(rows, scanSession)
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	return sessions, nil
}
