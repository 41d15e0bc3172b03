package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"tourbook/internal/domain/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Run with: GO_TEST_INTEGRATION=1 go test ./internal/adapters/db/postgres -count=1

// startPostgres starts a disposable PostgreSQL, migrates it and returns the store
func startPostgres(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	st, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.Migrate(ctx), "migrations are idempotent")
	return st
}

func TestSessionRepository(t *testing.T) {
	st := startPostgres(t)
	repo := NewSessionRepository(st)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userID := uuid.NewString()
	base := time.Now().UTC().Truncate(time.Microsecond)
	ids := make([]string, 3)
	for i := range ids {
		ids[i] = uuid.NewString()
		require.NoError(t, repo.CreateSession(ctx, &auth.Session{
			ID:        ids[i],
			UserID:    userID,
			Valid:     true,
			UserAgent: "curl/8",
			IP:        "10.0.0.1",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base,
		}))
	}

	t.Run("get", func(t *testing.T) {
		s, err := repo.GetSession(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, userID, s.UserID)
		assert.True(t, s.Valid)
		assert.Equal(t, "curl/8", s.UserAgent)
		assert.True(t, base.Equal(s.CreatedAt))

		_, err = repo.GetSession(ctx, uuid.NewString())
		assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	})

	t.Run("invalidate is idempotent", func(t *testing.T) {
		require.NoError(t, repo.InvalidateSession(ctx, ids[0]))
		require.NoError(t, repo.InvalidateSession(ctx, ids[0]))
		assert.ErrorIs(t, repo.InvalidateSession(ctx, uuid.NewString()), auth.ErrSessionNotFound)

		s, err := repo.GetSession(ctx, ids[0])
		require.NoError(t, err)
		assert.False(t, s.Valid)
	})

	t.Run("revalidation is refused", func(t *testing.T) {
		_, err := st.pool.Exec(ctx, `UPDATE sessions SET valid = TRUE WHERE id = $1`, ids[0])
		assert.Error(t, err)
	})

	t.Run("invalidate all but current", func(t *testing.T) {
		n, err := repo.InvalidateUserSessions(ctx, userID, ids[2])
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		sessions, err := repo.ListUserSessions(ctx, userID)
		require.NoError(t, err)
		require.Len(t, sessions, 3)
		assert.Equal(t, ids[2], sessions[0].ID)
		assert.True(t, sessions[0].Valid)
		assert.False(t, sessions[1].Valid)
		assert.False(t, sessions[2].Valid)
	})
}

func TestLockManager_TryAcquireWhileHeld(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()
	locks := NewLockManager(st.pool)

	held, err := locks.Acquire(ctx, "reindex")
	require.NoError(t, err)

	other, err := locks.tryAcquire(ctx, "reindex")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, held.Release(ctx))

	again, err := locks.tryAcquire(ctx, "reindex")
	require.NoError(t, err)
	require.NotNil(t, again)
	require.NoError(t, again.Release(ctx))
}
