// Package tour implements the tour catalogue, reviews and bookings, including the
// checkout flow that turns a completed payment into a paid booking.
package tour

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tourbook/internal/apperr"
	"tourbook/internal/domain/auth"
	"tourbook/internal/domain/media"
	"tourbook/internal/domain/notification"
	"tourbook/internal/domain/payment"
	"tourbook/internal/domain/query"
	domainTour "tourbook/internal/domain/tour"

	"github.com/google/uuid"
)

// Repositories groups the stores the service works on
type Repositories struct {
	Tours    domainTour.Repository
	Reviews  domainTour.ReviewRepository
	Bookings domainTour.BookingRepository
	Users    auth.UserRepository
}

// Options configures the external collaborators. Nil collaborators disable their feature.
type Options struct {
	Payments payment.Provider
	Images   media.ImageStore
	Mailer   notification.Mailer
	BaseURL  string
}

// Service handles tours, reviews and bookings
type Service struct {
	tours    domainTour.Repository
	reviews  domainTour.ReviewRepository
	bookings domainTour.BookingRepository
	users    auth.UserRepository
	payments payment.Provider
	images   media.ImageStore
	mailer   notification.Mailer
	baseURL  string
	now      func() time.Time
}

// NewService creates a new tour service
func NewService(repos Repositories, opts Options) *Service {
	if opts.Images == nil {
		opts.Images = media.Disabled{}
	}
	if opts.Mailer == nil {
		opts.Mailer = notification.Discard{}
	}
	return &Service{
		tours:    repos.Tours,
		reviews:  repos.Reviews,
		bookings: repos.Bookings,
		users:    repos.Users,
		payments: opts.Payments,
		images:   opts.Images,
		mailer:   opts.Mailer,
		baseURL:  strings.TrimSuffix(opts.BaseURL, "/"),
		now:      time.Now,
	}
}

// ListTours returns tours matching a translated query
func (s *Service) ListTours(ctx context.Context, q query.Spec) ([]*domainTour.Tour, error) {
	tours, err := s.tours.ListTours(ctx, q)
	if err != nil {
		return nil, storeError(err)
	}
	return tours, nil
}

// GetTour returns one tour
func (s *Service) GetTour(ctx context.Context, id string) (*domainTour.Tour, error) {
	t, err := s.tours.GetTour(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return t, nil
}

// CreateTour creates a tour
func (s *Service) CreateTour(ctx context.Context, req domainTour.TourCreateRequest) (*domainTour.Tour, error) {
	now := s.now()
	t := &domainTour.Tour{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Slug:          domainTour.Slugify(req.Name),
		Duration:      req.Duration,
		MaxGroupSize:  req.MaxGroupSize,
		Difficulty:    req.Difficulty,
		Price:         req.Price,
		PriceDiscount: req.PriceDiscount,
		Summary:       strings.TrimSpace(req.Summary),
		Description:   strings.TrimSpace(req.Description),
		ImageCover:    req.ImageCover,
		Images:        []string{},
		StartDates:    req.StartDates,
		Guides:        req.Guides,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.checkGuides(ctx, t.Guides); err != nil {
		return nil, err
	}
	if err := s.tours.CreateTour(ctx, t); err != nil {
		return nil, storeError(err)
	}
	return t, nil
}

// UpdateTour applies a partial update
func (s *Service) UpdateTour(ctx context.Context, id string, req domainTour.TourUpdateRequest) (*domainTour.Tour, error) {
	t, err := s.GetTour(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		t.Name = *req.Name
		t.Slug = domainTour.Slugify(*req.Name)
	}
	if req.Duration != nil {
		t.Duration = *req.Duration
	}
	if req.MaxGroupSize != nil {
		t.MaxGroupSize = *req.MaxGroupSize
	}
	if req.Difficulty != nil {
		t.Difficulty = *req.Difficulty
	}
	if req.Price != nil {
		t.Price = *req.Price
	}
	if req.PriceDiscount != nil {
		t.PriceDiscount = *req.PriceDiscount
	}
	if req.Summary != nil {
		t.Summary = strings.TrimSpace(*req.Summary)
	}
	if req.Description != nil {
		t.Description = strings.TrimSpace(*req.Description)
	}
	if req.StartDates != nil {
		t.StartDates = req.StartDates
	}
	if req.Guides != nil {
		if err := s.checkGuides(ctx, req.Guides); err != nil {
			return nil, err
		}
		t.Guides = req.Guides
	}
	if t.PriceDiscount >= t.Price {
		return nil, apperr.Validation(fmt.Sprintf("discount price (%v) should be below regular price", t.PriceDiscount))
	}

	t.UpdatedAt = s.now()
	if err := s.tours.UpdateTour(ctx, t); err != nil {
		return nil, storeError(err)
	}
	return t, nil
}

// DeleteTour removes a tour
func (s *Service) DeleteTour(ctx context.Context, id string) error {
	if err := s.tours.DeleteTour(ctx, id); err != nil {
		return storeError(err)
	}
	return nil
}

// UploadTourImages stores a new cover and gallery for a tour. Empty inputs keep the current values.
func (s *Service) UploadTourImages(ctx context.Context, id string, cover []byte, images [][]byte) (*domainTour.Tour, error) {
	t, err := s.GetTour(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(cover) > 0 {
		url, err := s.images.Upload(ctx, cover, media.FolderTours, fmt.Sprintf("tour-%s-cover", t.ID))
		if err != nil {
			return nil, mediaError(err)
		}
		t.ImageCover = url
	}
	if len(images) > 0 {
		urls := make([]string, 0, len(images))
		for i, img := range images {
			url, err := s.images.Upload(ctx, img, media.FolderTours, fmt.Sprintf("tour-%s-%d", t.ID, i+1))
			if err != nil {
				return nil, mediaError(err)
			}
			urls = append(urls, url)
		}
		t.Images = urls
	}

	t.UpdatedAt = s.now()
	if err := s.tours.UpdateTour(ctx, t); err != nil {
		return nil, storeError(err)
	}
	return t, nil
}

func (s *Service) checkGuides(ctx context.Context, guides []string) error {
	for _, id := range guides {
		u, err := s.users.GetUser(ctx, id)
		if errors.Is(err, auth.ErrUserNotFound) {
			return apperr.Validation(fmt.Sprintf("guide %s does not exist", id))
		}
		if err != nil {
			return apperr.Internal(err)
		}
		if !u.Snapshot().HasRole(auth.RoleGuide, auth.RoleLeadGuide) {
			return apperr.Validation(fmt.Sprintf("user %s is not a guide", id))
		}
	}
	return nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, domainTour.ErrTourNotFound):
		return apperr.NotFound("no tour found with that ID")
	case errors.Is(err, domainTour.ErrReviewNotFound):
		return apperr.NotFound("no review found with that ID")
	case errors.Is(err, domainTour.ErrBookingNotFound):
		return apperr.NotFound("no booking found with that ID")
	case errors.Is(err, domainTour.ErrDuplicate):
		return apperr.Validation(err.Error())
	case errors.Is(err, query.ErrUnsupported):
		return apperr.Validation(err.Error())
	default:
		return apperr.Internal(err)
	}
}

func mediaError(err error) error {
	switch {
	case errors.Is(err, media.ErrStorageDisabled), errors.Is(err, media.ErrUnsupportedImage):
		return apperr.Validation(err.Error())
	default:
		return apperr.Internal(err)
	}
}
