// Package payment describes the checkout provider consumed by the booking flow.
package payment

import (
	"context"
	"errors"
)

// ErrInvalidSignature is returned when a webhook payload cannot be authenticated
var ErrInvalidSignature = errors.New("invalid webhook signature")

// ErrIgnoredEvent is returned for authentic webhook events the booking flow does not handle
var ErrIgnoredEvent = errors.New("ignored webhook event")

// CheckoutRequest describes a single-tour checkout
type CheckoutRequest struct {
	TourID        string
	TourName      string
	TourSummary   string
	ImageURL      string
	UserID        string
	CustomerEmail string
	Price         float64
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the provider-side session the client is redirected to
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutCompleted is a verified "payment finished" notification
type CheckoutCompleted struct {
	SessionID     string
	TourID        string
	UserID        string
	CustomerEmail string
	AmountPaid    float64
}

// Provider creates checkout sessions and authenticates webhooks
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	VerifyWebhook(payload []byte, signature string) (*CheckoutCompleted, error)
}
