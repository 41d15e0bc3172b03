package tour

import "time"

// Booking is a paid (or manually created) reservation of a tour
type Booking struct {
	ID                string    `json:"id" bson:"_id"`
	TourID            string    `json:"tour" bson:"tour"`
	UserID            string    `json:"user" bson:"user"`
	Price             float64   `json:"price" bson:"price"`
	Paid              bool      `json:"paid" bson:"paid"`
	CheckoutSessionID string    `json:"checkoutSession,omitempty" bson:"checkoutSession,omitempty"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updatedAt"`
}

// OwnerID returns the user the booking was made for
func (b *Booking) OwnerID() string { return b.UserID }

// BookingCreateRequest is used by staff to record a booking manually
type BookingCreateRequest struct {
	TourID string  `json:"tour" binding:"required,uuid"`
	UserID string  `json:"user" binding:"required,uuid"`
	Price  float64 `json:"price" binding:"required,gt=0"`
	Paid   *bool   `json:"paid,omitempty"`
}

// BookingUpdateRequest represents a partial booking update
type BookingUpdateRequest struct {
	Price *float64 `json:"price,omitempty" binding:"omitempty,gt=0"`
	Paid  *bool    `json:"paid,omitempty"`
}
