package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scootshop/checkout-api/internal/paypal"
)

// OrderFetcher is the provider lookup the Resolver depends on.
type OrderFetcher interface {
	GetOrder(ctx context.Context, orderID string) (paypal.Order, error)
}

// Resolver turns a verified paid event into the order it belongs to. Data
// already embedded in the trusted event wins over a provider round-trip; the
// provider is only consulted when the event itself lacks the buyer email.
type Resolver struct {
	provider OrderFetcher
	log      zerolog.Logger
}

func NewResolver(provider OrderFetcher, log zerolog.Logger) *Resolver {
	return &Resolver{provider: provider, log: log}
}

// Resolve returns the order behind the event, or nil when no order id can be
// derived. A nil order is not an error: some event shapes legitimately carry
// no order reference and must still be acknowledged.
func (r *Resolver) Resolve(ctx context.Context, ev Event) (*paypal.Order, error) {
	var res eventResource
	if len(ev.Resource) > 0 {
		if err := json.Unmarshal(ev.Resource, &res); err != nil {
			return nil, fmt.Errorf("decode event resource: %w", err)
		}
	}

	orderID := r.orderIDFor(ev.EventType, res)
	if orderID == "" {
		r.log.Info().Str("event_type", ev.EventType).Str("event_id", ev.ID).
			Msg("event carries no order reference")
		return nil, nil
	}

	if res.Payer != nil && strings.TrimSpace(res.Payer.EmailAddress) != "" {
		return orderFromResource(ev.EventType, orderID, res), nil
	}

	order, err := r.provider.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetch order %s: %w", orderID, err)
	}
	return &order, nil
}

func (r *Resolver) orderIDFor(eventType string, res eventResource) string {
	if isOrderEvent(eventType) {
		return res.ID
	}
	if res.SupplementaryData != nil {
		return res.SupplementaryData.RelatedIDs.OrderID
	}
	return ""
}

// orderFromResource builds an order snapshot out of resource fields alone.
// Capture resources do not carry purchase units, so one is synthesized from
// the capture's own metadata to feed product resolution.
func orderFromResource(eventType, orderID string, res eventResource) *paypal.Order {
	order := &paypal.Order{
		ID:     orderID,
		Status: res.Status,
		Payer:  res.Payer,
	}
	if isOrderEvent(eventType) {
		order.PurchaseUnits = res.PurchaseUnits
		return order
	}
	order.PurchaseUnits = []paypal.PurchaseUnit{{
		CustomID:  res.CustomID,
		InvoiceID: res.InvoiceID,
		Amount:    res.Amount,
	}}
	return order
}
