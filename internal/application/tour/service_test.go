package tour

import (
	"context"
	"testing"

	"tourbook/internal/adapters/db/memory"
	"tourbook/internal/apperr"
	"tourbook/internal/domain/auth"
	"tourbook/internal/domain/payment"
	"tourbook/internal/domain/query"
	domainTour "tourbook/internal/domain/tour"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockPayments implements payment.Provider for testing
type mockPayments struct {
	lastRequest payment.CheckoutRequest
	event       *payment.CheckoutCompleted
	verifyErr   error
}

func (m *mockPayments) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	m.lastRequest = req
	return &payment.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example.com/cs_test_1"}, nil
}

func (m *mockPayments) VerifyWebhook(payload []byte, signature string) (*payment.CheckoutCompleted, error) {
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	return m.event, nil
}

type fixture struct {
	svc      *Service
	users    *memory.UserRepository
	payments *mockPayments
	guide    *auth.User
	customer *auth.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	users := memory.NewUserRepository()
	tours := memory.NewTourRepository()
	payments := &mockPayments{}

	guide := &auth.User{ID: "guide-1", Name: "Guide", Email: "guide@example.com", Role: auth.RoleGuide, Active: true}
	customer := &auth.User{ID: "user-1", Name: "Customer", Email: "customer@example.com", Role: auth.RoleUser, Active: true}
	require.NoError(t, users.CreateUser(ctx, guide))
	require.NoError(t, users.CreateUser(ctx, customer))

	svc := NewService(
		Repositories{Tours: tours, Reviews: tours, Bookings: tours, Users: users},
		Options{Payments: payments, BaseURL: "https://tours.example.com/"},
	)
	return &fixture{svc: svc, users: users, payments: payments, guide: guide, customer: customer}
}

func (f *fixture) createTour(t *testing.T, name string, price float64) *domainTour.Tour {
	t.Helper()
	created, err := f.svc.CreateTour(context.Background(), domainTour.TourCreateRequest{
		Name:         name,
		Duration:     5,
		MaxGroupSize: 10,
		Difficulty:   domainTour.DifficultyEasy,
		Price:        price,
		Summary:      "  Breathtaking hike  ",
		Guides:       []string{f.guide.ID},
	})
	require.NoError(t, err)
	return created
}

func TestCreateTour(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.createTour(t, "The Forest Hiker", 397)
	assert.Equal(t, "the-forest-hiker", created.Slug)
	assert.Equal(t, "Breathtaking hike", created.Summary)

	_, err := f.svc.CreateTour(ctx, domainTour.TourCreateRequest{Name: "The Forest Hiker", Price: 1})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "duplicate names are a validation failure")

	_, err = f.svc.CreateTour(ctx, domainTour.TourCreateRequest{Name: "The Sea Explorer", Price: 1, Guides: []string{f.customer.ID}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateTour(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createTour(t, "The Forest Hiker", 397)

	name := "The Snow Adventurer"
	discount := 100.0
	updated, err := f.svc.UpdateTour(ctx, created.ID, domainTour.TourUpdateRequest{Name: &name, PriceDiscount: &discount})
	require.NoError(t, err)
	assert.Equal(t, "the-snow-adventurer", updated.Slug)
	assert.Equal(t, 297.0, updated.FinalPrice())

	tooMuch := 500.0
	_, err = f.svc.UpdateTour(ctx, created.ID, domainTour.TourUpdateRequest{PriceDiscount: &tooMuch})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.UpdateTour(ctx, "missing", domainTour.TourUpdateRequest{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUploadTourImages_Disabled(t *testing.T) {
	f := newFixture(t)
	created := f.createTour(t, "The Forest Hiker", 397)

	_, err := f.svc.UploadTourImages(context.Background(), created.ID, []byte("cover"), nil)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestReviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createTour(t, "The Forest Hiker", 397)

	rv, err := f.svc.CreateReview(ctx, f.customer.ID, created.ID, domainTour.ReviewCreateRequest{Review: "Great", Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, created.ID, rv.TourID)

	_, err = f.svc.CreateReview(ctx, f.customer.ID, "", domainTour.ReviewCreateRequest{Review: "Again", Rating: 4, TourID: created.ID})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "one review per user and tour")

	_, err = f.svc.CreateReview(ctx, f.customer.ID, "missing", domainTour.ReviewCreateRequest{Review: "x", Rating: 1})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	rating := 3
	updated, err := f.svc.UpdateReview(ctx, rv, domainTour.ReviewUpdateRequest{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Rating)

	list, err := f.svc.ListReviews(ctx, query.All(query.Eq("tour", created.ID)))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].Rating)

	require.NoError(t, f.svc.DeleteReview(ctx, rv.ID))
	_, err = f.svc.GetReview(ctx, rv.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCheckoutFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createTour(t, "The Forest Hiker", 397)

	session, err := f.svc.CheckoutSession(ctx, created.ID, f.customer.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, 397.0, f.payments.lastRequest.Price)
	assert.Equal(t, "customer@example.com", f.payments.lastRequest.CustomerEmail)
	assert.Equal(t, "https://tours.example.com/tour/the-forest-hiker", f.payments.lastRequest.CancelURL)

	f.payments.event = &payment.CheckoutCompleted{
		SessionID:     "cs_test_1",
		TourID:        created.ID,
		CustomerEmail: "Customer@example.com",
		AmountPaid:    397,
	}
	booking, err := f.svc.CompleteCheckout(ctx, []byte("{}"), "sig")
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, booking.UserID)
	assert.True(t, booking.Paid)

	again, err := f.svc.CompleteCheckout(ctx, []byte("{}"), "sig")
	require.NoError(t, err)
	assert.Equal(t, booking.ID, again.ID, "redelivered events must not create a second booking")

	mine, err := f.svc.ListBookings(ctx, query.All(query.Eq("user", f.customer.ID)))
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestCompleteCheckout_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.payments.verifyErr = payment.ErrInvalidSignature
	_, err := f.svc.CompleteCheckout(ctx, nil, "bad")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	f.payments.verifyErr = payment.ErrIgnoredEvent
	booking, err := f.svc.CompleteCheckout(ctx, nil, "sig")
	require.NoError(t, err)
	assert.Nil(t, booking)

	f.payments.verifyErr = nil
	f.payments.event = &payment.CheckoutCompleted{SessionID: "cs_2", TourID: "t", CustomerEmail: "nobody@example.com"}
	_, err = f.svc.CompleteCheckout(ctx, nil, "sig")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCheckout_Disabled(t *testing.T) {
	tours := memory.NewTourRepository()
	svc := NewService(Repositories{Tours: tours, Reviews: tours, Bookings: tours, Users: memory.NewUserRepository()}, Options{})

	_, err := svc.CheckoutSession(context.Background(), "t", auth.Snapshot{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestBookings_Manual(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createTour(t, "The Forest Hiker", 397)

	b, err := f.svc.CreateBooking(ctx, domainTour.BookingCreateRequest{TourID: created.ID, UserID: f.customer.ID, Price: 300})
	require.NoError(t, err)
	assert.True(t, b.Paid)

	_, err = f.svc.CreateBooking(ctx, domainTour.BookingCreateRequest{TourID: created.ID, UserID: "ghost", Price: 300})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	paid := false
	updated, err := f.svc.UpdateBooking(ctx, b, domainTour.BookingUpdateRequest{Paid: &paid})
	require.NoError(t, err)
	assert.False(t, updated.Paid)

	require.NoError(t, f.svc.DeleteBooking(ctx, b.ID))
	assert.True(t, apperr.Is(f.svc.DeleteBooking(ctx, b.ID), apperr.KindNotFound))
}
