// Package stripe implements the checkout provider on Stripe Checkout.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tourbook/internal/config"
	"tourbook/internal/domain/payment"

	"github.com/shopspring/decimal"
	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	eventCheckoutCompleted = "checkout.session.completed"
	metadataUserID         = "user_id"
)

// Provider creates checkout sessions and verifies webhooks
type Provider struct {
	api           *client.API
	webhookSecret string
	currency      string
}

// New builds a provider. backends is nil outside tests.
func New(cfg config.StripeConfig, backends *stripego.Backends) *Provider {
	api := &client.API{}
	api.Init(cfg.SecretKey, backends)

	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "usd"
	}
	return &Provider{api: api, webhookSecret: cfg.WebhookSecret, currency: currency}
}

// toMinorUnits converts a price to cents, rounding half away from zero
func toMinorUnits(price float64) int64 {
	return decimal.NewFromFloat(price).Shift(2).Round(0).IntPart()
}

func fromMinorUnits(amount int64) float64 {
	return decimal.New(amount, -2).InexactFloat64()
}

func (p *Provider) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	const op = "stripe.CreateCheckoutSession"

	product := &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripego.String(req.TourName + " Tour"),
	}
	if req.TourSummary != "" {
		product.Description = stripego.String(req.TourSummary)
	}
	if req.ImageURL != "" {
		product.Images = stripego.StringSlice([]string{req.ImageURL})
	}

	params := &stripego.CheckoutSessionParams{
		Mode:               stripego.String(string(stripego.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripego.StringSlice([]string{"card"}),
		SuccessURL:         stripego.String(req.SuccessURL),
		CancelURL:          stripego.String(req.CancelURL),
		CustomerEmail:      stripego.String(req.CustomerEmail),
		ClientReferenceID:  stripego.String(req.TourID),
		LineItems: []*stripego.CheckoutSessionLineItemParams{{
			Quantity: stripego.Int64(1),
			PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripego.String(p.currency),
				UnitAmount:  stripego.Int64(toMinorUnits(req.Price)),
				ProductData: product,
			},
		}},
	}
	params.Context = ctx
	params.AddMetadata(metadataUserID, req.UserID)

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &payment.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// VerifyWebhook authenticates the payload and decodes a completed checkout.
// Authentic events of any other type yield payment.ErrIgnoredEvent.
func (p *Provider) VerifyWebhook(payload []byte, signature string) (*payment.CheckoutCompleted, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrInvalidSignature, err)
	}
	if string(event.Type) != eventCheckoutCompleted {
		return nil, payment.ErrIgnoredEvent
	}
	if event.Data == nil {
		return nil, errors.New("stripe: checkout event without data")
	}

	var s stripego.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("stripe: decode checkout session: %w", err)
	}

	email := s.CustomerEmail
	if email == "" && s.CustomerDetails != nil {
		email = s.CustomerDetails.Email
	}
	return &payment.CheckoutCompleted{
		SessionID:     s.ID,
		TourID:        s.ClientReferenceID,
		UserID:        s.Metadata[metadataUserID],
		CustomerEmail: email,
		AmountPaid:    fromMinorUnits(s.AmountTotal),
	}, nil
}

var _ payment.Provider = (*Provider)(nil)
