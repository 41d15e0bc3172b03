package tour

import "time"

// Review is a user's rating of a tour
type Review struct {
	ID        string    `json:"id" bson:"_id"`
	Review    string    `json:"review" bson:"review"`
	Rating    int       `json:"rating" bson:"rating"`
	TourID    string    `json:"tour" bson:"tour"`
	UserID    string    `json:"user" bson:"user"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// OwnerID returns the review author
func (r *Review) OwnerID() string { return r.UserID }

// ReviewCreateRequest represents a new review.
// TourID may come from the URL instead of the body.
type ReviewCreateRequest struct {
	Review string `json:"review" binding:"required"`
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	TourID string `json:"tour" binding:"omitempty,uuid"`
}

// ReviewUpdateRequest represents a partial review update
type ReviewUpdateRequest struct {
	Review *string `json:"review,omitempty"`
	Rating *int    `json:"rating,omitempty" binding:"omitempty,min=1,max=5"`
}
