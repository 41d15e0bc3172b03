package mongo

import (
	"context"
	"errors"
	"fmt"

	"tourbook/internal/domain/query"
	"tourbook/internal/domain/tour"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// TourRepository persists tours, reviews and bookings
type TourRepository struct {
	tours    *mongodriver.Collection
	reviews  *mongodriver.Collection
	bookings *mongodriver.Collection
}

// NewTourRepository creates a tour repository on the store
func NewTourRepository(s *Store) *TourRepository {
	return &TourRepository{tours: s.tours, reviews: s.reviews, bookings: s.bookings}
}

// wrap maps driver errors onto the domain ones and passes sentinels through
func wrap(op string, err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, notFound):
		return err
	case mongodriver.IsDuplicateKeyError(err):
		return tour.ErrDuplicate
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func byID(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

// Tours

func (r *TourRepository) CreateTour(ctx context.Context, t *tour.Tour) error {
	_, err := r.tours.InsertOne(ctx, t)
	return wrap("mongo.CreateTour", err, tour.ErrTourNotFound)
}

func (r *TourRepository) GetTour(ctx context.Context, id string) (*tour.Tour, error) {
	t, err := findOne[tour.Tour](ctx, r.tours, byID(id), tour.ErrTourNotFound)
	return t, wrap("mongo.GetTour", err, tour.ErrTourNotFound)
}

func (r *TourRepository) UpdateTour(ctx context.Context, t *tour.Tour) error {
	err := replaceByID(ctx, r.tours, t.ID, t, tour.ErrTourNotFound)
	return wrap("mongo.UpdateTour", err, tour.ErrTourNotFound)
}

func (r *TourRepository) DeleteTour(ctx context.Context, id string) error {
	err := deleteByID(ctx, r.tours, id, tour.ErrTourNotFound)
	return wrap("mongo.DeleteTour", err, tour.ErrTourNotFound)
}

func (r *TourRepository) ListTours(ctx context.Context, q query.Spec) ([]*tour.Tour, error) {
	tours, err := list[tour.Tour](ctx, r.tours, q)
	if err != nil {
		return nil, wrap("mongo.ListTours", err, tour.ErrTourNotFound)
	}
	return tours, nil
}

// Reviews

func (r *TourRepository) CreateReview(ctx context.Context, rv *tour.Review) error {
	_, err := r.reviews.InsertOne(ctx, rv)
	return wrap("mongo.CreateReview", err, tour.ErrReviewNotFound)
}

func (r *TourRepository) GetReview(ctx context.Context, id string) (*tour.Review, error) {
	rv, err := findOne[tour.Review](ctx, r.reviews, byID(id), tour.ErrReviewNotFound)
	return rv, wrap("mongo.GetReview", err, tour.ErrReviewNotFound)
}

func (r *TourRepository) UpdateReview(ctx context.Context, rv *tour.Review) error {
	err := replaceByID(ctx, r.reviews, rv.ID, rv, tour.ErrReviewNotFound)
	return wrap("mongo.UpdateReview", err, tour.ErrReviewNotFound)
}

func (r *TourRepository) DeleteReview(ctx context.Context, id string) error {
	err := deleteByID(ctx, r.reviews, id, tour.ErrReviewNotFound)
	return wrap("mongo.DeleteReview", err, tour.ErrReviewNotFound)
}

func (r *TourRepository) ListReviews(ctx context.Context, q query.Spec) ([]*tour.Review, error) {
	reviews, err := list[tour.Review](ctx, r.reviews, q)
	if err != nil {
		return nil, wrap("mongo.ListReviews", err, tour.ErrReviewNotFound)
	}
	return reviews, nil
}

// Bookings

func (r *TourRepository) CreateBooking(ctx context.Context, b *tour.Booking) error {
	_, err := r.bookings.InsertOne(ctx, b)
	return wrap("mongo.CreateBooking", err, tour.ErrBookingNotFound)
}

func (r *TourRepository) GetBooking(ctx context.Context, id string) (*tour.Booking, error) {
	b, err := findOne[tour.Booking](ctx, r.bookings, byID(id), tour.ErrBookingNotFound)
	return b, wrap("mongo.GetBooking", err, tour.ErrBookingNotFound)
}

func (r *TourRepository) UpdateBooking(ctx context.Context, b *tour.Booking) error {
	err := replaceByID(ctx, r.bookings, b.ID, b, tour.ErrBookingNotFound)
	return wrap("mongo.UpdateBooking", err, tour.ErrBookingNotFound)
}

func (r *TourRepository) DeleteBooking(ctx context.Context, id string) error {
	err := deleteByID(ctx, r.bookings, id, tour.ErrBookingNotFound)
	return wrap("mongo.DeleteBooking", err, tour.ErrBookingNotFound)
}

func (r *TourRepository) ListBookings(ctx context.Context, q query.Spec) ([]*tour.Booking, error) {
	bookings, err := list[tour.Booking](ctx, r.bookings, q)
	if err != nil {
		return nil, wrap("mongo.ListBookings", err, tour.ErrBookingNotFound)
	}
	return bookings, nil
}
