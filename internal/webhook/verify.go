package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/scootshop/checkout-api/internal/paypal"
)

// Rejection reason codes. ProviderFault marks rejections that stem from our
// side of the trust boundary (credentials, provider outage) rather than from
// untrusted input.
const (
	ReasonMissingHeaders   = "missing_headers"
	ReasonMissingWebhookID = "missing_webhook_id"
	ReasonMismatch         = "signature_mismatch"
	ReasonProviderError    = "provider_error"
)

// Rejection describes why an inbound event failed signature verification.
type Rejection struct {
	Reason        string
	ProviderFault bool
}

// SignatureVerifier is the provider call the Verifier depends on.
type SignatureVerifier interface {
	VerifyWebhookSignature(ctx context.Context, req paypal.VerifySignatureRequest) (string, error)
}

// Verifier decides whether an inbound event genuinely originates from the
// payment provider. This is the sole trust boundary of the webhook pipeline:
// nothing in the event body may drive business decisions before Verify
// returns nil.
type Verifier struct {
	provider  SignatureVerifier
	webhookID string
}

func NewVerifier(provider SignatureVerifier, webhookID string) *Verifier {
	return &Verifier{provider: provider, webhookID: strings.TrimSpace(webhookID)}
}

// Verify returns nil when the provider explicitly confirms the signature,
// and a Rejection otherwise. Missing headers or a missing webhook id reject
// immediately without contacting the provider.
func (v *Verifier) Verify(ctx context.Context, hdr SignatureHeaders, rawBody []byte) *Rejection {
	if !hdr.Complete() {
		return &Rejection{Reason: ReasonMissingHeaders}
	}
	if v.webhookID == "" {
		return &Rejection{Reason: ReasonMissingWebhookID}
	}

	// the provider re-validates the exact original body, so it is forwarded
	// untouched rather than re-marshaled from a parsed struct
	status, err := v.provider.VerifyWebhookSignature(ctx, paypal.VerifySignatureRequest{
		AuthAlgo:         hdr.AuthAlgo,
		CertURL:          hdr.CertURL,
		TransmissionID:   hdr.TransmissionID,
		TransmissionSig:  hdr.TransmissionSig,
		TransmissionTime: hdr.TransmissionTime,
		WebhookID:        v.webhookID,
		WebhookEvent:     json.RawMessage(rawBody),
	})
	if err != nil {
		var apiErr *paypal.APIError
		if errors.As(err, &apiErr) {
			return &Rejection{
				Reason:        fmt.Sprintf("%s:%d", ReasonProviderError, apiErr.StatusCode),
				ProviderFault: true,
			}
		}
		return &Rejection{Reason: ReasonProviderError, ProviderFault: true}
	}
	if status != paypal.VerificationSuccess {
		return &Rejection{Reason: ReasonMismatch}
	}
	return nil
}
