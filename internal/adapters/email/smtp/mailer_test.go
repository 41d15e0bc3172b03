package smtp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"tourbook/internal/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type sent struct {
	from string
	to   []string
	raw  string
}

// fakeConn records messages instead of talking to a server
type fakeConn struct {
	out    *[]sent
	closed bool
}

func (c *fakeConn) Send(from string, to []string, msg io.WriterTo) error {
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return err
	}
	*c.out = append(*c.out, sent{from: from, to: to, raw: buf.String()})
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func newTestMailer(t *testing.T) (*Mailer, *[]sent) {
	t.Helper()
	var out []sent
	m, err := NewWithDialer(func() (gomail.SendCloser, error) {
		return &fakeConn{out: &out}, nil
	}, "Tourbook <hello@tourbook.test>", "http://tourbook.test/")
	require.NoError(t, err)
	return m, &out
}

func TestSend_Welcome(t *testing.T) {
	m, out := newTestMailer(t)

	err := m.Send(context.Background(), notification.TemplateWelcome, "ada@example.com", map[string]any{"Name": "Ada Lovelace"})
	require.NoError(t, err)
	require.Len(t, *out, 1)

	msg := (*out)[0]
	assert.Equal(t, "hello@tourbook.test", msg.from)
	assert.Equal(t, []string{"ada@example.com"}, msg.to)
	assert.Contains(t, msg.raw, "Subject: Welcome to Tourbook, Ada!")
	assert.Contains(t, msg.raw, "http://tourbook.test/me")
	assert.Contains(t, msg.raw, "text/html")
}

func TestSend_BookingFormatsPrice(t *testing.T) {
	m, out := newTestMailer(t)

	err := m.Send(context.Background(), notification.TemplateBooking, "ada@example.com", map[string]any{
		"Name":      "Ada",
		"BookingID": "b-1",
		"Price":     397.5,
	})
	require.NoError(t, err)
	require.Len(t, *out, 1)
	assert.Contains(t, (*out)[0].raw, "397.50")
	assert.Contains(t, (*out)[0].raw, "b-1")
}

func TestSend_EscapesHTML(t *testing.T) {
	m, out := newTestMailer(t)

	err := m.Send(context.Background(), notification.TemplateWelcome, "x@example.com", map[string]any{"Name": "<script>"})
	require.NoError(t, err)
	assert.NotContains(t, (*out)[0].raw, "<p>Hi <script>,</p>")
}

func TestSend_Errors(t *testing.T) {
	m, _ := newTestMailer(t)
	assert.ErrorContains(t, m.Send(context.Background(), "reset", "a@example.com", nil), `unknown template "reset"`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, notification.TemplateWelcome, "a@example.com", nil), context.Canceled)

	failing, err := NewWithDialer(func() (gomail.SendCloser, error) {
		return nil, errors.New("connection refused")
	}, "from@example.com", "")
	require.NoError(t, err)
	assert.ErrorContains(t, failing.Send(context.Background(), notification.TemplateWelcome, "a@example.com", map[string]any{"Name": "A"}), "connection refused")
}

func TestView_Defaults(t *testing.T) {
	m, _ := newTestMailer(t)
	v := m.view(map[string]any{"Name": ""})
	assert.Equal(t, "", v["FirstName"])
	assert.Equal(t, "http://tourbook.test/me", v["URL"])
}
