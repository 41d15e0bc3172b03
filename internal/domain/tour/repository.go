package tour

import (
	"context"
	"errors"

	"tourbook/internal/domain/query"
)

var (
	ErrTourNotFound    = errors.New("tour not found")
	ErrReviewNotFound  = errors.New("review not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrDuplicate       = errors.New("duplicate value")
)

// Repository persists tours
type Repository interface {
	CreateTour(ctx context.Context, t *Tour) error
	GetTour(ctx context.Context, id string) (*Tour, error)
	UpdateTour(ctx context.Context, t *Tour) error
	DeleteTour(ctx context.Context, id string) error
	ListTours(ctx context.Context, q query.Spec) ([]*Tour, error)
}

// ReviewRepository persists reviews; (tour, user) is unique
type ReviewRepository interface {
	CreateReview(ctx context.Context, r *Review) error
	GetReview(ctx context.Context, id string) (*Review, error)
	UpdateReview(ctx context.Context, r *Review) error
	DeleteReview(ctx context.Context, id string) error
	ListReviews(ctx context.Context, q query.Spec) ([]*Review, error)
}

// BookingRepository persists bookings
type BookingRepository interface {
	CreateBooking(ctx context.Context, b *Booking) error
	GetBooking(ctx context.Context, id string) (*Booking, error)
	UpdateBooking(ctx context.Context, b *Booking) error
	DeleteBooking(ctx context.Context, id string) error
	ListBookings(ctx context.Context, q query.Spec) ([]*Booking, error)
}
