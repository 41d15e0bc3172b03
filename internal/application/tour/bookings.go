package tour

import (
	"context"
	"errors"
	"fmt"

	"tourbook/internal/apperr"
	"tourbook/internal/domain/auth"
	"tourbook/internal/domain/notification"
	"tourbook/internal/domain/payment"
	"tourbook/internal/domain/query"
	domainTour "tourbook/internal/domain/tour"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrCheckoutDisabled is returned when no payment provider is configured
var ErrCheckoutDisabled = errors.New("online checkout is not configured")

// ListBookings returns bookings matching a translated query
func (s *Service) ListBookings(ctx context.Context, q query.Spec) ([]*domainTour.Booking, error) {
	bookings, err := s.bookings.ListBookings(ctx, q)
	if err != nil {
		return nil, storeError(err)
	}
	return bookings, nil
}

// GetBooking returns one booking
func (s *Service) GetBooking(ctx context.Context, id string) (*domainTour.Booking, error) {
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return b, nil
}

// CreateBooking records a booking made outside the checkout flow
func (s *Service) CreateBooking(ctx context.Context, req domainTour.BookingCreateRequest) (*domainTour.Booking, error) {
	if _, err := s.GetTour(ctx, req.TourID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUser(ctx, req.UserID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, apperr.Validation(fmt.Sprintf("user %s does not exist", req.UserID))
		}
		return nil, apperr.Internal(err)
	}

	paid := true
	if req.Paid != nil {
		paid = *req.Paid
	}
	now := s.now()
	b := &domainTour.Booking{
		ID:        uuid.NewString(),
		TourID:    req.TourID,
		UserID:    req.UserID,
		Price:     req.Price,
		Paid:      paid,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.bookings.CreateBooking(ctx, b); err != nil {
		return nil, storeError(err)
	}
	return b, nil
}

// UpdateBooking applies a partial update to a booking already loaded by the caller
func (s *Service) UpdateBooking(ctx context.Context, b *domainTour.Booking, req domainTour.BookingUpdateRequest) (*domainTour.Booking, error) {
	if req.Price != nil {
		b.Price = *req.Price
	}
	if req.Paid != nil {
		b.Paid = *req.Paid
	}
	b.UpdatedAt = s.now()
	if err := s.bookings.UpdateBooking(ctx, b); err != nil {
		return nil, storeError(err)
	}
	return b, nil
}

// DeleteBooking removes a booking
func (s *Service) DeleteBooking(ctx context.Context, id string) error {
	if err := s.bookings.DeleteBooking(ctx, id); err != nil {
		return storeError(err)
	}
	return nil
}

// CheckoutSession opens a payment provider session for one tour
func (s *Service) CheckoutSession(ctx context.Context, tourID string, user auth.Snapshot) (*payment.CheckoutSession, error) {
	if s.payments == nil {
		return nil, apperr.Validation(ErrCheckoutDisabled.Error())
	}
	t, err := s.GetTour(ctx, tourID)
	if err != nil {
		return nil, err
	}

	session, err := s.payments.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		TourID:        t.ID,
		TourName:      t.Name,
		TourSummary:   t.Summary,
		ImageURL:      t.ImageCover,
		UserID:        user.ID,
		CustomerEmail: user.Email,
		Price:         t.FinalPrice(),
		SuccessURL:    s.baseURL + "/my-tours?alert=booking",
		CancelURL:     s.baseURL + "/tour/" + t.Slug,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return session, nil
}

// CompleteCheckout verifies a provider webhook and records the paid booking.
// A redelivered event returns the booking created the first time.
func (s *Service) CompleteCheckout(ctx context.Context, payload []byte, signature string) (*domainTour.Booking, error) {
	if s.payments == nil {
		return nil, apperr.Validation(ErrCheckoutDisabled.Error())
	}

	event, err := s.payments.VerifyWebhook(payload, signature)
	switch {
	case errors.Is(err, payment.ErrIgnoredEvent):
		return nil, nil
	case errors.Is(err, payment.ErrInvalidSignature):
		return nil, apperr.Validation("webhook error: " + err.Error())
	case err != nil:
		return nil, apperr.Internal(err)
	}

	existing, err := s.bookings.ListBookings(ctx, query.All(query.Eq("checkoutSession", event.SessionID)))
	if err != nil {
		return nil, storeError(err)
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	user, err := s.checkoutUser(ctx, event)
	if err != nil {
		return nil, err
	}

	now := s.now()
	b := &domainTour.Booking{
		ID:                uuid.NewString(),
		TourID:            event.TourID,
		UserID:            user.ID,
		Price:             event.AmountPaid,
		Paid:              true,
		CheckoutSessionID: event.SessionID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.bookings.CreateBooking(ctx, b); err != nil {
		return nil, storeError(err)
	}

	data := map[string]any{"Name": user.Name, "BookingID": b.ID, "TourID": b.TourID, "Price": b.Price}
	if err := s.mailer.Send(ctx, notification.TemplateBooking, user.Email, data); err != nil {
		log.Warn().Err(err).Str("booking_id", b.ID).Msg("failed to send booking confirmation")
	}
	return b, nil
}

func (s *Service) checkoutUser(ctx context.Context, event *payment.CheckoutCompleted) (*auth.User, error) {
	var (
		user *auth.User
		err  error
	)
	if event.UserID != "" {
		user, err = s.users.GetUser(ctx, event.UserID)
	} else {
		user, err = s.users.GetUserByEmail(ctx, auth.NormalizeEmail(event.CustomerEmail))
	}
	if errors.Is(err, auth.ErrUserNotFound) {
		return nil, apperr.Validation("checkout does not belong to a known user")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return user, nil
}
