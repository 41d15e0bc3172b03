// Package notification describes the transactional email sender.
package notification

import "context"

// Templates known to every Mailer
const (
	TemplateWelcome = "welcome"
	TemplateBooking = "booking"
)

// Mailer sends one templated email to one recipient
type Mailer interface {
	Send(ctx context.Context, template, recipient string, data map[string]any) error
}

// Discard is a Mailer that drops every message
type Discard struct{}

func (Discard) Send(ctx context.Context, template, recipient string, data map[string]any) error {
	return nil
}
