package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scootshop/checkout-api/internal/catalog"
	"github.com/scootshop/checkout-api/internal/obs"
)

// Confirmation is everything needed to send one order confirmation email.
// Product is zero-valued when catalog resolution found nothing; the
// dispatcher substitutes its configured default so the buyer still gets a
// usable receipt.
type Confirmation struct {
	To       string
	OrderID  string
	Amount   string
	Currency string
	Product  catalog.Entry
}

// DispatcherConfig groups Dispatcher construction parameters.
type DispatcherConfig struct {
	Mailer         Mailer
	Brand          Brand
	ReplyTo        string
	Bcc            string
	DefaultProduct catalog.Entry
	Logger         zerolog.Logger
}

// Dispatcher turns confirmations into exactly one email send attempt each.
// It never retries; the webhook acknowledgment contract with the payment
// provider is the only retry mechanism in the system.
type Dispatcher struct {
	mailer         Mailer
	brand          Brand
	replyTo        string
	bcc            string
	defaultProduct catalog.Entry
	log            zerolog.Logger
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		mailer:         cfg.Mailer,
		brand:          cfg.Brand,
		replyTo:        cfg.ReplyTo,
		bcc:            cfg.Bcc,
		defaultProduct: cfg.DefaultProduct,
		log:            cfg.Logger,
	}
}

// SendConfirmation sends one confirmation email. An empty recipient is a
// no-op success: deliverability must never decide whether the payment event
// itself is acknowledged.
func (d *Dispatcher) SendConfirmation(ctx context.Context, c Confirmation) error {
	to := strings.TrimSpace(c.To)
	if to == "" {
		d.log.Info().Str("order_id", c.OrderID).Msg("no recipient, skipping confirmation email")
		return nil
	}

	product := c.Product
	if product.Code == "" {
		product = d.defaultProduct
	}

	html, text, err := renderConfirmation(confirmationData{
		Brand:        d.brand,
		ProductName:  product.Name,
		ProductURL:   product.URL,
		ProductImage: product.ImageURL,
		OrderID:      c.OrderID,
		Amount:       c.Amount,
		Currency:     c.Currency,
	})
	if err != nil {
		return err
	}

	msg := Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Your %s order is confirmed", d.brand.Name),
		HTML:    html,
		Text:    text,
		ReplyTo: d.replyTo,
		Ref:     c.OrderID,
	}
	if d.bcc != "" {
		msg.Bcc = []string{d.bcc}
	}

	if err := d.mailer.Send(ctx, msg); err != nil {
		if obs.EmailSendTotal != nil {
			obs.EmailSendTotal.WithLabelValues("error").Inc()
		}
		d.log.Error().Err(err).Str("order_id", c.OrderID).Msg("confirmation email send failed")
		return fmt.Errorf("send confirmation email: %w", err)
	}
	if obs.EmailSendTotal != nil {
		obs.EmailSendTotal.WithLabelValues("sent").Inc()
	}
	d.log.Info().Str("order_id", c.OrderID).Str("product", product.Code).Msg("confirmation email sent")
	return nil
}
