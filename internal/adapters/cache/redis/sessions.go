// Package redis puts a Redis read-through cache in front of the session store.
//
// A cached session is a hash with two fields: "data" holds the JSON record and
// "valid" holds "1" or "0". Fills use HSETNX so a fill racing an invalidation can
// never turn "0" back into "1". Invalidations write "0" through even when the key
// is absent. If Redis is unreachable while a session is invalidated, the entry
// may stay valid until its TTL expires; keep SESSION_CACHE_TTL short.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tourbook/internal/domain/auth"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix  = "tourbook:session:"
	fieldData  = "data"
	fieldValid = "valid"
)

// SessionRepository decorates an auth.SessionRepository with a Redis cache
type SessionRepository struct {
	next   auth.SessionRepository
	client redis.UniversalClient
	ttl    time.Duration
}

// NewSessionRepository wraps next. A non-positive ttl defaults to ten minutes.
func NewSessionRepository(next auth.SessionRepository, client redis.UniversalClient, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SessionRepository{next: next, client: client, ttl: ttl}
}

// NewClient connects to the Redis server at url and pings it
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func key(sessionID string) string { return keyPrefix + sessionID }

func validFlag(valid bool) string {
	if valid {
		return "1"
	}
	return "0"
}

func (r *SessionRepository) CreateSession(ctx context.Context, s *auth.Session) error {
	return r.next.CreateSession(ctx, s)
}

// GetSession serves from the cache when both fields are present, otherwise reads
// through and fills.
func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*auth.Session, error) {
	if s, ok := r.cached(ctx, sessionID); ok {
		return s, nil
	}

	s, err := r.next.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	r.fill(ctx, s)
	return s, nil
}

func (r *SessionRepository) cached(ctx context.Context, sessionID string) (*auth.Session, bool) {
	fields, err := r.client.HGetAll(ctx, key(sessionID)).Result()
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("session cache read failed")
		return nil, false
	}
	data, hasData := fields[fieldData]
	valid, hasValid := fields[fieldValid]
	if !hasData || !hasValid {
		return nil, false
	}

	var s auth.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("session cache entry corrupt")
		return nil, false
	}
	s.Valid = valid == "1"
	return &s, true
}

func (r *SessionRepository) fill(ctx context.Context, s *auth.Session) {
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	k := key(s.ID)
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSetNX(ctx, k, fieldValid, validFlag(s.Valid))
		p.HSetNX(ctx, k, fieldData, data)
		p.Expire(ctx, k, r.ttl)
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", s.ID).Msg("session cache fill failed")
	}
}

// markInvalid writes "0" through for every id
func (r *SessionRepository) markInvalid(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, id := range ids {
			p.HSet(ctx, key(id), fieldValid, validFlag(false))
			p.Expire(ctx, key(id), r.ttl)
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Strs("session_ids", ids).Msg("session cache invalidation failed")
	}
}

func (r *SessionRepository) InvalidateSession(ctx context.Context, sessionID string) error {
	if err := r.next.InvalidateSession(ctx, sessionID); err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			r.client.Del(ctx, key(sessionID))
		}
		return err
	}
	r.markInvalid(ctx, sessionID)
	return nil
}

// InvalidateUserSessions writes through every session of the user that is now invalid
func (r *SessionRepository) InvalidateUserSessions(ctx context.Context, userID, keepID string) (int, error) {
	n, err := r.next.InvalidateUserSessions(ctx, userID, keepID)
	if err != nil || n == 0 {
		return n, err
	}

	sessions, err := r.next.ListUserSessions(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("session cache invalidation skipped")
		return n, nil
	}
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		if !s.Valid {
			ids = append(ids, s.ID)
		}
	}
	r.markInvalid(ctx, ids...)
	return n, nil
}

func (r *SessionRepository) ListUserSessions(ctx context.Context, userID string) ([]*auth.Session, error) {
	return r.next.ListUserSessions(ctx, userID)
}
