package mongo

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"tourbook/internal/domain/auth"
	"tourbook/internal/domain/query"
	"tourbook/internal/domain/tour"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testTimeout = 10 * time.Second

// TestMain starts one MongoDB container for the package when GO_TEST_INTEGRATION is set.
// Each test gets its own database.
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7.0",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	host, err := mongoC.Host(ctx)
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}
	port, err := mongoC.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}
	_ = os.Setenv("DATABASE_URL", fmt.Sprintf("mongodb://%s:%s", host, port.Port()))

	code := m.Run()
	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

// newTestStore connects to a fresh database, skipping without a container
func newTestStore(t *testing.T) *Store {
	t.Helper()

	base := os.Getenv("DATABASE_URL")
	if os.Getenv("GO_TEST_INTEGRATION") == "" || base == "" {
		t.Skip("set GO_TEST_INTEGRATION=1 to run mongo integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	name := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	s, err := New(ctx, base+"/"+name)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		_ = s.db.Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}

func newUser(email string) *auth.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &auth.User{
		ID:        uuid.NewString(),
		Name:      "Test User",
		Email:     email,
		Role:      auth.RoleUser,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestUsers_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := testCtx(t)
	repo := NewUserRepository(s)

	u := newUser("ada@example.com")
	require.NoError(t, repo.CreateUser(ctx, u))
	assert.ErrorIs(t, repo.CreateUser(ctx, newUser("ada@example.com")), auth.ErrEmailTaken)

	got, err := repo.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, u.CreatedAt.Equal(got.CreatedAt))

	got.Role = auth.RoleGuide
	require.NoError(t, repo.UpdateUser(ctx, got))
	got, err = repo.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleGuide, got.Role)

	require.NoError(t, repo.DeleteUser(ctx, u.ID))
	_, err = repo.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
	assert.ErrorIs(t, repo.DeleteUser(ctx, u.ID), auth.ErrUserNotFound)
	assert.ErrorIs(t, repo.UpdateUser(ctx, u), auth.ErrUserNotFound)
}

func TestSessions_Invalidate(t *testing.T) {
	s := newTestStore(t)
	ctx := testCtx(t)
	repo := NewSessionRepository(s)

	userID := uuid.NewString()
	base := time.Now().UTC().Truncate(time.Millisecond)
	ids := make([]string, 3)
	for i := range ids {
		ids[i] = uuid.NewString()
		require.NoError(t, repo.CreateSession(ctx, &auth.Session{
			ID:        ids[i],
			UserID:    userID,
			Valid:     true,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base,
		}))
	}

	require.NoError(t, repo.InvalidateSession(ctx, ids[0]))
	require.NoError(t, repo.InvalidateSession(ctx, ids[0]), "already invalid is a success")
	assert.ErrorIs(t, repo.InvalidateSession(ctx, uuid.NewString()), auth.ErrSessionNotFound)

	n, err := repo.InvalidateUserSessions(ctx, userID, ids[2])
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sessions, err := repo.ListUserSessions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, ids[2], sessions[0].ID, "newest first")
	assert.True(t, sessions[0].Valid)
	assert.False(t, sessions[1].Valid)
	assert.False(t, sessions[2].Valid)

	_, err = repo.GetSession(ctx, uuid.NewString())
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestTours_ListWithSpec(t *testing.T) {
	s := newTestStore(t)
	ctx := testCtx(t)
	repo := NewTourRepository(s)

	prices := map[string]float64{"The Forest Hiker": 397, "The Sea Explorer": 497, "The Snow Adventurer": 997}
	for name, price := range prices {
		require.NoError(t, repo.CreateTour(ctx, &tour.Tour{
			ID:         uuid.NewString(),
			Name:       name,
			Slug:       tour.Slugify(name),
			Price:      price,
			Difficulty: tour.DifficultyEasy,
		}))
	}
	err := repo.CreateTour(ctx, &tour.Tour{ID: uuid.NewString(), Name: "The Forest Hiker", Slug: "other"})
	assert.ErrorIs(t, err, tour.ErrDuplicate)

	got, err := repo.ListTours(ctx, query.Spec{
		Conditions: []query.Condition{
			{Field: "price", Op: query.OpGte, Value: 400.0},
			{Field: "price", Op: query.OpLt, Value: 1000.0},
		},
		Sort:  []query.SortKey{{Field: "price", Descending: true}},
		Page:  1,
		Limit: 1,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "The Snow Adventurer", got[0].Name)

	got, err = repo.ListTours(ctx, query.Spec{
		Conditions: []query.Condition{{Field: "price", Op: query.OpGte, Value: 400.0}},
		Sort:       []query.SortKey{{Field: "price", Descending: true}},
		Page:       2,
		Limit:      1,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "The Sea Explorer", got[0].Name)
}

func TestReviews_UniquePerTourAndUser(t *testing.T) {
	s := newTestStore(t)
	ctx := testCtx(t)
	repo := NewTourRepository(s)

	tourID, userID := uuid.NewString(), uuid.NewString()
	rv := &tour.Review{ID: uuid.NewString(), Review: "great", Rating: 5, TourID: tourID, UserID: userID}
	require.NoError(t, repo.CreateReview(ctx, rv))

	dup := &tour.Review{ID: uuid.NewString(), Review: "again", Rating: 4, TourID: tourID, UserID: userID}
	assert.ErrorIs(t, repo.CreateReview(ctx, dup), tour.ErrDuplicate)

	got, err := repo.ListReviews(ctx, query.All(query.Eq("tour", tourID)))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rv.ID, got[0].ID)

	require.NoError(t, repo.DeleteReview(ctx, rv.ID))
	_, err = repo.GetReview(ctx, rv.ID)
	assert.ErrorIs(t, err, tour.ErrReviewNotFound)
}

func TestBookings_CheckoutSessionUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := testCtx(t)
	repo := NewTourRepository(s)

	// manual bookings carry no checkout session and must not collide
	require.NoError(t, repo.CreateBooking(ctx, &tour.Booking{ID: uuid.NewString(), TourID: "t", UserID: "u", Price: 10}))
	require.NoError(t, repo.CreateBooking(ctx, &tour.Booking{ID: uuid.NewString(), TourID: "t", UserID: "u", Price: 10}))

	b := &tour.Booking{ID: uuid.NewString(), TourID: "t", UserID: "u", Price: 10, Paid: true, CheckoutSessionID: "cs_1"}
	require.NoError(t, repo.CreateBooking(ctx, b))
	dup := &tour.Booking{ID: uuid.NewString(), TourID: "t", UserID: "u", Price: 10, CheckoutSessionID: "cs_1"}
	assert.ErrorIs(t, repo.CreateBooking(ctx, dup), tour.ErrDuplicate)

	got, err := repo.ListBookings(ctx, query.All(query.Eq("checkoutSession", "cs_1")))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)
}
