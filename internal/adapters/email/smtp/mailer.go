// Package smtp sends the transactional emails over SMTP.
package smtp

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"tourbook/internal/config"
	"tourbook/internal/domain/notification"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// DialFunc opens a connection able to send messages
type DialFunc func() (gomail.SendCloser, error)

type message struct {
	html *template.Template
	text *texttemplate.Template
}

// Mailer renders a named template and sends it through an SMTP server
type Mailer struct {
	dial      DialFunc
	from      string
	baseURL   string
	templates map[string]message
}

// New builds a Mailer for the configured server. baseURL is linked from the emails.
func New(cfg config.SMTPConfig, baseURL string) (*Mailer, error) {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return NewWithDialer(d.Dial, cfg.From, baseURL)
}

// NewWithDialer builds a Mailer on an arbitrary connection factory
func NewWithDialer(dial DialFunc, from, baseURL string) (*Mailer, error) {
	m := &Mailer{dial: dial, from: from, baseURL: strings.TrimRight(baseURL, "/"), templates: map[string]message{}}
	for _, name := range []string{notification.TemplateWelcome, notification.TemplateBooking} {
		file := "templates/" + name + ".html"
		html, err := template.ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		text, err := texttemplate.ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		m.templates[name] = message{html: html, text: text}
	}
	return m, nil
}

// view adds the fields every template may use
func (m *Mailer) view(data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+2)
	for k, v := range data {
		out[k] = v
	}
	if name, ok := out["Name"].(string); ok {
		out["FirstName"] = ""
		if parts := strings.Fields(name); len(parts) > 0 {
			out["FirstName"] = parts[0]
		}
	}
	if price, ok := out["Price"].(float64); ok {
		out["Price"] = decimal.NewFromFloat(price).StringFixed(2)
	}
	if _, ok := out["URL"]; !ok {
		out["URL"] = m.baseURL + "/me"
	}
	return out
}

func render(exec func(*bytes.Buffer) error) (string, error) {
	var buf bytes.Buffer
	if err := exec(&buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// Send renders template for recipient and delivers it on a fresh connection
func (m *Mailer) Send(ctx context.Context, name, recipient string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tpl, ok := m.templates[name]
	if !ok {
		return fmt.Errorf("smtp: unknown template %q", name)
	}

	v := m.view(data)
	subject, err := render(func(b *bytes.Buffer) error { return tpl.text.ExecuteTemplate(b, "subject", v) })
	if err != nil {
		return fmt.Errorf("render %s subject: %w", name, err)
	}
	text, err := render(func(b *bytes.Buffer) error { return tpl.text.ExecuteTemplate(b, "text", v) })
	if err != nil {
		return fmt.Errorf("render %s text: %w", name, err)
	}
	html, err := render(func(b *bytes.Buffer) error { return tpl.html.ExecuteTemplate(b, "html", v) })
	if err != nil {
		return fmt.Errorf("render %s html: %w", name, err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", text)
	msg.AddAlternative("text/html", html)

	conn, err := m.dial()
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	if err := gomail.Send(conn, msg); err != nil {
		return fmt.Errorf("smtp send %s: %w", name, err)
	}
	return nil
}

var _ notification.Mailer = (*Mailer)(nil)
