package tour

import (
	"context"

	"tourbook/internal/apperr"
	"tourbook/internal/domain/query"
	domainTour "tourbook/internal/domain/tour"

	"github.com/google/uuid"
)

// ListReviews returns reviews matching a translated query
func (s *Service) ListReviews(ctx context.Context, q query.Spec) ([]*domainTour.Review, error) {
	reviews, err := s.reviews.ListReviews(ctx, q)
	if err != nil {
		return nil, storeError(err)
	}
	return reviews, nil
}

// GetReview returns one review
func (s *Service) GetReview(ctx context.Context, id string) (*domainTour.Review, error) {
	rv, err := s.reviews.GetReview(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return rv, nil
}

// CreateReview stores the review of userID for tourID. A user reviews a tour once.
func (s *Service) CreateReview(ctx context.Context, userID, tourID string, req domainTour.ReviewCreateRequest) (*domainTour.Review, error) {
	if tourID == "" {
		tourID = req.TourID
	}
	if tourID == "" {
		return nil, apperr.Validation("review must belong to a tour")
	}
	if _, err := s.GetTour(ctx, tourID); err != nil {
		return nil, err
	}

	now := s.now()
	rv := &domainTour.Review{
		ID:        uuid.NewString(),
		Review:    req.Review,
		Rating:    req.Rating,
		TourID:    tourID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reviews.CreateReview(ctx, rv); err != nil {
		return nil, storeError(err)
	}
	return rv, nil
}

// UpdateReview applies a partial update to a review already loaded by the caller
func (s *Service) UpdateReview(ctx context.Context, rv *domainTour.Review, req domainTour.ReviewUpdateRequest) (*domainTour.Review, error) {
	if req.Review != nil {
		rv.Review = *req.Review
	}
	if req.Rating != nil {
		rv.Rating = *req.Rating
	}
	rv.UpdatedAt = s.now()
	if err := s.reviews.UpdateReview(ctx, rv); err != nil {
		return nil, storeError(err)
	}
	return rv, nil
}

// DeleteReview removes a review
func (s *Service) DeleteReview(ctx context.Context, id string) error {
	if err := s.reviews.DeleteReview(ctx, id); err != nil {
		return storeError(err)
	}
	return nil
}
