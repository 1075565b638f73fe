package mailer

import (
	"context"
	"fmt"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Mailgun sends GreenLoop notifications. Every message is tagged so
// level-up and welcome traffic can be told apart in the Mailgun dashboard.
type Mailgun struct {
	client  *mg.MailgunImpl
	from    string
	tags    []string
	timeout time.Duration
}

// MailgunOption customises a Mailgun sender.
type MailgunOption func(*Mailgun)

// WithAPIBase points the client at another region, e.g. mg.APIBaseEU.
func WithAPIBase(base string) MailgunOption {
	return func(m *Mailgun) {
		if base != "" {
			m.client.SetAPIBase(base)
		}
	}
}

// WithTags adds Mailgun tags to every message.
func WithTags(tags ...string) MailgunOption {
	return func(m *Mailgun) { m.tags = append(m.tags, tags...) }
}

func NewMailgun(domain, apiKey, from string, opts ...MailgunOption) *Mailgun {
	m := &Mailgun{
		client:  mg.NewMailgun(domain, apiKey),
		from:    from,
		tags:    []string{"greenloop"},
		timeout: 10 * time.Second,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Send delivers text with an optional HTML alternative.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.from, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	if err := msg.AddTag(m.tags...); err != nil {
		return fmt.Errorf("mailgun tags: %w", err)
	}
	c, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if _, _, err := m.client.Send(c, msg); err != nil {
		return fmt.Errorf("mailgun send to %s: %w", to, err)
	}
	return nil
}
