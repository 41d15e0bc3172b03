package memory

import (
	"context"
	"sync"

	"tourbook/internal/domain/query"
	"tourbook/internal/domain/tour"
)

// TourRepository is an in-memory implementation of the tour, review and booking repositories
type TourRepository struct {
	mu       sync.RWMutex
	tours    map[string]*tour.Tour    // tourID -> Tour
	reviews  map[string]*tour.Review  // reviewID -> Review
	bookings map[string]*tour.Booking // bookingID -> Booking
}

// NewTourRepository creates a new in-memory tour repository
func NewTourRepository() *TourRepository {
	return &TourRepository{
		tours:    make(map[string]*tour.Tour),
		reviews:  make(map[string]*tour.Review),
		bookings: make(map[string]*tour.Booking),
	}
}

// Tour persistence methods

func (r *TourRepository) CreateTour(ctx context.Context, t *tour.Tour) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.tours {
		if existing.Name == t.Name || existing.Slug == t.Slug {
			return tour.ErrDuplicate
		}
	}
	r.tours[t.ID] = cloneTour(t)
	return nil
}

func (r *TourRepository) GetTour(ctx context.Context, id string) (*tour.Tour, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.tours[id]
	if !exists {
		return nil, tour.ErrTourNotFound
	}
	return cloneTour(t), nil
}

func (r *TourRepository) UpdateTour(ctx context.Context, t *tour.Tour) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tours[t.ID]; !exists {
		return tour.ErrTourNotFound
	}
	for id, existing := range r.tours {
		if id != t.ID && (existing.Name == t.Name || existing.Slug == t.Slug) {
			return tour.ErrDuplicate
		}
	}
	r.tours[t.ID] = cloneTour(t)
	return nil
}

func (r *TourRepository) DeleteTour(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tours[id]; !exists {
		return tour.ErrTourNotFound
	}
	delete(r.tours, id)
	return nil
}

func (r *TourRepository) ListTours(ctx context.Context, q query.Spec) ([]*tour.Tour, error) {
	r.mu.RLock()
	tours := make([]*tour.Tour, 0, len(r.tours))
	for _, t := range r.tours {
		tours = append(tours, cloneTour(t))
	}
	r.mu.RUnlock()

	return applySpec(tours, q)
}

// Review persistence methods

func (r *TourRepository) CreateReview(ctx context.Context, rv *tour.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.reviews {
		if existing.TourID == rv.TourID && existing.UserID == rv.UserID {
			return tour.ErrDuplicate
		}
	}
	cp := *rv
	r.reviews[rv.ID] = &cp
	return nil
}

func (r *TourRepository) GetReview(ctx context.Context, id string) (*tour.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rv, exists := r.reviews[id]
	if !exists {
		return nil, tour.ErrReviewNotFound
	}
	cp := *rv
	return &cp, nil
}

func (r *TourRepository) UpdateReview(ctx context.Context, rv *tour.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reviews[rv.ID]; !exists {
		return tour.ErrReviewNotFound
	}
	cp := *rv
	r.reviews[rv.ID] = &cp
	return nil
}

func (r *TourRepository) DeleteReview(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reviews[id]; !exists {
		return tour.ErrReviewNotFound
	}
	delete(r.reviews, id)
	return nil
}

func (r *TourRepository) ListReviews(ctx context.Context, q query.Spec) ([]*tour.Review, error) {
	r.mu.RLock()
	reviews := make([]*tour.Review, 0, len(r.reviews))
	for _, rv := range r.reviews {
		cp := *rv
		reviews = append(reviews, &cp)
	}
	r.mu.RUnlock()

	return applySpec(reviews, q)
}

// Booking persistence methods

func (r *TourRepository) CreateBooking(ctx context.Context, b *tour.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *TourRepository) GetBooking(ctx context.Context, id string) (*tour.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, exists := r.bookings[id]
	if !exists {
		return nil, tour.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *TourRepository) UpdateBooking(ctx context.Context, b *tour.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[b.ID]; !exists {
		return tour.ErrBookingNotFound
	}
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *TourRepository) DeleteBooking(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[id]; !exists {
		return tour.ErrBookingNotFound
	}
	delete(r.bookings, id)
	return nil
}

func (r *TourRepository) ListBookings(ctx context.Context, q query.Spec) ([]*tour.Booking, error) {
	r.mu.RLock()
	bookings := make([]*tour.Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		cp := *b
		bookings = append(bookings, &cp)
	}
	r.mu.RUnlock()

	return applySpec(bookings, q)
}

func cloneTour(t *tour.Tour) *tour.Tour {
	cp := *t
	cp.Images = append([]string(nil), t.Images...)
	cp.StartDates = append(cp.StartDates[:0:0], t.StartDates...)
	cp.Guides = append([]string(nil), t.Guides...)
	return &cp
}
