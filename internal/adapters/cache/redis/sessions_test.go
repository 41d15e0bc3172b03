package redis

import (
	"context"
	"testing"
	"time"

	"tourbook/internal/adapters/db/memory"
	"tourbook/internal/domain/auth"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRepo counts reads reaching the backing store
type countingRepo struct {
	*memory.SessionRepository
	gets int
}

func (c *countingRepo) GetSession(ctx context.Context, id string) (*auth.Session, error) {
	c.gets++
	return c.SessionRepository.GetSession(ctx, id)
}

type env struct {
	mr    *miniredis.Miniredis
	inner *countingRepo
	repo  *SessionRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	inner := &countingRepo{SessionRepository: memory.NewSessionRepository()}
	return &env{mr: mr, inner: inner, repo: NewSessionRepository(inner, client, time.Minute)}
}

func (e *env) seed(t *testing.T, userID string) *auth.Session {
	t.Helper()
	now := time.Now().UTC()
	s := &auth.Session{ID: uuid.NewString(), UserID: userID, Valid: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, e.repo.CreateSession(context.Background(), s))
	return s
}

func TestGetSession_ReadThrough(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.seed(t, "u1")

	got, err := e.repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.Equal(t, 1, e.inner.gets)

	got, err = e.repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, 1, e.inner.gets, "second read is served from redis")

	assert.Equal(t, time.Minute, e.mr.TTL(key(s.ID)))
}

func TestGetSession_NotFoundIsNotCached(t *testing.T) {
	e := newEnv(t)
	_, err := e.repo.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	assert.False(t, e.mr.Exists(key("missing")))
}

func TestInvalidateSession_WritesThrough(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.seed(t, "u1")

	_, err := e.repo.GetSession(ctx, s.ID)
	require.NoError(t, err)

	require.NoError(t, e.repo.InvalidateSession(ctx, s.ID))

	got, err := e.repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.Valid)
	assert.Equal(t, 1, e.inner.gets, "served from the cache after write-through")

	assert.ErrorIs(t, e.repo.InvalidateSession(ctx, "missing"), auth.ErrSessionNotFound)
}

func TestFill_NeverRevivesInvalidatedEntry(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.seed(t, "u1")

	// a reader loaded the session before it was invalidated and fills afterwards
	stale := *s
	require.NoError(t, e.repo.InvalidateSession(ctx, s.ID))
	e.repo.fill(ctx, &stale)

	v := e.mr.HGet(key(s.ID), fieldValid)
	assert.Equal(t, "0", v)

	got, err := e.repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.Valid)
}

func TestInvalidateUserSessions_MarksEveryRevokedSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.seed(t, "u1")
	b := e.seed(t, "u1")
	keep := e.seed(t, "u1")

	for _, s := range []*auth.Session{a, b, keep} {
		_, err := e.repo.GetSession(ctx, s.ID)
		require.NoError(t, err)
	}

	n, err := e.repo.InvalidateUserSessions(ctx, "u1", keep.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, "0", e.mr.HGet(key(a.ID), fieldValid))
	assert.Equal(t, "0", e.mr.HGet(key(b.ID), fieldValid))
	assert.Equal(t, "1", e.mr.HGet(key(keep.ID), fieldValid))
}

func TestGetSession_RedisDownFallsBack(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.seed(t, "u1")
	e.mr.Close()

	got, err := e.repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.Equal(t, 1, e.inner.gets)

	require.NoError(t, e.repo.InvalidateSession(ctx, s.ID), "store remains authoritative")
}
