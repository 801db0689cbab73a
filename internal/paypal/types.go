package paypal

// Amount is a decimal money value with an ISO currency code. PayPal sends
// values as strings; they are never parsed into floats here.
type Amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

// Payer identifies the buyer on an order.
type Payer struct {
	EmailAddress string `json:"email_address,omitempty"`
	PayerID      string `json:"payer_id,omitempty"`
}

// Item is a single line item within a purchase unit.
type Item struct {
	Name       string  `json:"name,omitempty"`
	SKU        string  `json:"sku,omitempty"`
	Quantity   string  `json:"quantity,omitempty"`
	UnitAmount *Amount `json:"unit_amount,omitempty"`
}

// PurchaseUnit groups items, amount and free-text identifiers within an order.
type PurchaseUnit struct {
	ReferenceID string  `json:"reference_id,omitempty"`
	CustomID    string  `json:"custom_id,omitempty"`
	InvoiceID   string  `json:"invoice_id,omitempty"`
	Description string  `json:"description,omitempty"`
	Amount      *Amount `json:"amount,omitempty"`
	Items       []Item  `json:"items,omitempty"`
}

// Order is a read-only snapshot of a checkout order as returned by the
// provider. It is fetched on demand and never cached or mutated.
type Order struct {
	ID            string         `json:"id"`
	Status        string         `json:"status,omitempty"`
	Payer         *Payer         `json:"payer,omitempty"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units,omitempty"`
}

// CaptureResult is the outcome of capturing an approved order.
type CaptureResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// VerifySignatureRequest is the payload for the webhook signature
// verification endpoint. WebhookEvent carries the full original event body.
type VerifySignatureRequest struct {
	AuthAlgo         string `json:"auth_algo"`
	CertURL          string `json:"cert_url"`
	TransmissionID   string `json:"transmission_id"`
	TransmissionSig  string `json:"transmission_sig"`
	TransmissionTime string `json:"transmission_time"`
	WebhookID        string `json:"webhook_id"`
	WebhookEvent     any    `json:"webhook_event"`
}

// VerificationSuccess is the literal marker PayPal returns for a valid
// signature. Anything else, including transport success with a different
// status, is treated as unverified.
const VerificationSuccess = "SUCCESS"
