package webhook

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/scootshop/checkout-api/internal/paypal"
)

// Event is an inbound payment-provider webhook notification. Resource is
// kept raw: its shape depends on the event type and is decoded lazily by the
// order resolver, after signature verification established trust.
type Event struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Resource  json.RawMessage `json:"resource"`
}

// SignatureHeaders are the five provider-supplied headers the verification
// endpoint requires. All five must be present or verification is not
// attempted at all.
type SignatureHeaders struct {
	AuthAlgo         string
	CertURL          string
	TransmissionID   string
	TransmissionSig  string
	TransmissionTime string
}

// HeadersFrom extracts the provider signature headers from an HTTP request.
func HeadersFrom(h http.Header) SignatureHeaders {
	return SignatureHeaders{
		AuthAlgo:         h.Get("Paypal-Auth-Algo"),
		CertURL:          h.Get("Paypal-Cert-Url"),
		TransmissionID:   h.Get("Paypal-Transmission-Id"),
		TransmissionSig:  h.Get("Paypal-Transmission-Sig"),
		TransmissionTime: h.Get("Paypal-Transmission-Time"),
	}
}

// Complete reports whether every signature header carries a value.
func (s SignatureHeaders) Complete() bool {
	for _, v := range []string{s.AuthAlgo, s.CertURL, s.TransmissionID, s.TransmissionSig, s.TransmissionTime} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// eventResource is the union of resource fields this service reads. Order
// events inline the order itself; capture events carry the amounts and
// metadata of the capture plus a pointer back to the order id.
type eventResource struct {
	ID                string                `json:"id"`
	Status            string                `json:"status"`
	CustomID          string                `json:"custom_id"`
	InvoiceID         string                `json:"invoice_id"`
	Payer             *paypal.Payer         `json:"payer"`
	Amount            *paypal.Amount        `json:"amount"`
	PurchaseUnits     []paypal.PurchaseUnit `json:"purchase_units"`
	SupplementaryData *supplementaryData    `json:"supplementary_data"`
}

type supplementaryData struct {
	RelatedIDs struct {
		OrderID string `json:"order_id"`
	} `json:"related_ids"`
}
