package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
)

// Message is a provider-agnostic outbound email. Ref identifies the entity
// the message is about (the order id); the provider uses it to collapse
// duplicate deliveries of the same message.
type Message struct {
	To      []string
	Bcc     []string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
	Ref     string
}

// Mailer sends a single email. Implementations must not retry; the caller
// owns the delivery contract.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ResendMailer delivers mail through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
}

// NewResendMailer constructs a ResendMailer. The from address is the
// configured sender identity, e.g. "Scoot Shop <orders@scootshop.co>".
func NewResendMailer(apiKey, from string) (*ResendMailer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("notify: resend api key is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, errors.New("notify: sender address is required")
	}
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}, nil
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("notify: message has no recipients")
	}
	// a stable ref lets the provider deduplicate; only fall back to a
	// random one when the caller has nothing to key on
	ref := msg.Ref
	if ref == "" {
		ref = uuid.NewString()
	}
	req := &resend.SendEmailRequest{
		From:    m.from,
		To:      msg.To,
		Bcc:     msg.Bcc,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		Headers: map[string]string{
			"X-Entity-Ref-ID": ref,
		},
	}
	if msg.ReplyTo != "" {
		req.ReplyTo = msg.ReplyTo
	}
	_, err := m.client.Emails.SendWithContext(ctx, req)
	return err
}
