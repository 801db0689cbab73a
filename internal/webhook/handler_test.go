package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/scootshop/checkout-api/internal/catalog"
	"github.com/scootshop/checkout-api/internal/notify"
	"github.com/scootshop/checkout-api/internal/paypal"
)

type stubProvider struct {
	verifyCalls  atomic.Int64
	orderCalls   atomic.Int64
	verifyStatus string
	verifyErr    error
	order        paypal.Order
	orderErr     error
}

func (s *stubProvider) VerifyWebhookSignature(_ context.Context, _ paypal.VerifySignatureRequest) (string, error) {
	s.verifyCalls.Add(1)
	if s.verifyErr != nil {
		return "", s.verifyErr
	}
	return s.verifyStatus, nil
}

func (s *stubProvider) GetOrder(_ context.Context, _ string) (paypal.Order, error) {
	s.orderCalls.Add(1)
	if s.orderErr != nil {
		return paypal.Order{}, s.orderErr
	}
	return s.order, nil
}

type stubSender struct {
	sent []notify.Confirmation
	err  error
}

func (s *stubSender) SendConfirmation(_ context.Context, c notify.Confirmation) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, c)
	return nil
}

type pipeline struct {
	provider *stubProvider
	sender   *stubSender
	router   chi.Router
}

func newPipeline(t *testing.T, opts ...func(*HandlerConfig)) *pipeline {
	t.Helper()
	cat, err := catalog.New([]catalog.Entry{
		{Code: "IX3", Name: "iScooter iX3", URL: "https://scootshop.co/products/ix3"},
		{Code: "T10", Name: "Kukirin T10", Aliases: []string{"HOSTED-BTN-T10"}},
	})
	require.NoError(t, err)

	provider := &stubProvider{verifyStatus: paypal.VerificationSuccess}
	sender := &stubSender{}
	cfg := HandlerConfig{
		Verifier: NewVerifier(provider, "wh-test"),
		Resolver: NewResolver(provider, zerolog.Nop()),
		Catalog:  cat,
		Sender:   sender,
		Logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()
	r.Route("/api/paypal/webhook", NewHandler(cfg).Routes)
	return &pipeline{provider: provider, sender: sender, router: r}
}

func signedRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/api/paypal/webhook", strings.NewReader(body))
	req.Header.Set("Paypal-Auth-Algo", "SHA256withRSA")
	req.Header.Set("Paypal-Cert-Url", "https://api.paypal.com/cert")
	req.Header.Set("Paypal-Transmission-Id", "tx-1")
	req.Header.Set("Paypal-Transmission-Sig", "sig")
	req.Header.Set("Paypal-Transmission-Time", "2026-01-01T00:00:00Z")
	return req
}

const captureEvent = `{
	"id": "WH-1",
	"event_type": "PAYMENT.CAPTURE.COMPLETED",
	"resource": {
		"id": "CAP-1",
		"status": "COMPLETED",
		"custom_id": "IX3",
		"amount": {"currency_code": "EUR", "value": "449.00"},
		"payer": {"email_address": "buyer@example.com"},
		"supplementary_data": {"related_ids": {"order_id": "ORD-1"}}
	}
}`

func TestNonPostRejectedWithoutProviderCall(t *testing.T) {
	p := newPipeline(t)
	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		rec := httptest.NewRecorder()
		p.router.ServeHTTP(rec, signedRequest(method, captureEvent))
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
	}
	require.Zero(t, p.provider.verifyCalls.Load())
	require.Zero(t, p.provider.orderCalls.Load())
}

func TestGetLiveness(t *testing.T) {
	p := newPipeline(t)
	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/paypal/webhook", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, p.provider.verifyCalls.Load())
}

func TestMissingHeaderRejectsWithoutNetworkCall(t *testing.T) {
	p := newPipeline(t)
	req := signedRequest(http.MethodPost, captureEvent)
	req.Header.Del("Paypal-Transmission-Sig")

	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, p.provider.verifyCalls.Load())
	require.Empty(t, p.sender.sent)
}

func TestSignatureMismatchBlocksSend(t *testing.T) {
	p := newPipeline(t)
	p.provider.verifyStatus = "FAILURE"

	// resource content is attacker-controlled until verification passes
	tampered := strings.Replace(captureEvent, "buyer@example.com", "attacker@evil.test", 1)
	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, signedRequest(http.MethodPost, tampered))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), ReasonMismatch)
	require.Empty(t, p.sender.sent)
}

func TestSuppressPolicyAcknowledgesRejections(t *testing.T) {
	p := newPipeline(t, func(cfg *HandlerConfig) { cfg.OnVerifyFailure = PolicySuppress })
	p.provider.verifyStatus = "FAILURE"

	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, signedRequest(http.MethodPost, captureEvent))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ok":false`)
	require.Empty(t, p.sender.sent)
}

func TestProviderErrorDuringVerification(t *testing.T) {
	p := newPipeline(t)
	p.provider.verifyErr = &paypal.APIError{StatusCode: http.StatusUnauthorized}

	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, signedRequest(http.MethodPost, captureEvent))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Empty(t, p.sender.sent)
}

func TestIgnoredEventTypeAcknowledgedWithoutWork(t *testing.T) {
	p := newPipeline(t)
	body := strings.Replace(captureEvent, "PAYMENT.CAPTURE.COMPLETED", "PAYMENT.CAPTURE.REFUNDED", 1)

	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, signedRequest(http.MethodPost, body))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ignored":true`)
	require.Zero(t, p.provider.orderCalls.Load())
	require.Empty(t, p.sender.sent)
}

func TestHappyPathSendsExactlyOneEmail(t *testing.T) {
	p := newPipeline(t)
	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, signedRequest(http.MethodPost, captureEvent))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"emailSent":true`)
	require.Len(t, p.sender.sent, 1)
	// email was embedded in the event, so no order fetch happened
	require.Zero(t, p.provider.orderCalls.Load())

	c := p.sender.sent[0]
	require.Equal(t, "buyer@example.com", c.To)
	require.Equal(t, "ORD-1", c.OrderID)
	require.Equal(t, "449.00", c.Amount)
	require.Equal(t, "EUR", c.Currency)
	require.Equal(t, "IX3", c.Product.Code)
}

func TestMissingEmailFetchesOrder(t *testing.T) {
	p := newPipeline(t)
	p.provider.order = paypal.Order{
		ID:    "ORD-2",
		Payer: &paypal.Payer{EmailAddress: "fetched@example.com"},
		PurchaseUnits: []paypal.PurchaseUnit{{
			ReferenceID: "T10",
			Amount:      &paypal.Amount{CurrencyCode: "EUR", Value: "399.00"},
		}},
	}
	body := strings.Replace(captureEvent, `"email_address": "buyer@example.com"`, `"email_address": ""`, 1)

	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, signedRequest(http.MethodPost, body))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(1), p.provider.orderCalls.Load())
	require.Len(t, p.sender.sent, 1)
	require.Equal(t, "fetched@example.com", p.sender.sent[0].To)
	require.Equal(t, "T10", p.sender.sent[0].Product.Code)
}

func TestNoOrderReferenceAcknowledgedWithoutSend(t *testing.T) {
	p := newPipeline(t)
	body := `{
		"id": "WH-3",
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"resource": {"id": "CAP-3", "status": "COMPLETED"}
	}`

	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, signedRequest(http.MethodPost, body))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ok":true`)
	require.Contains(t, rec.Body.String(), `"emailSent":false`)
	require.Zero(t, p.provider.orderCalls.Load())
	require.Empty(t, p.sender.sent)
}

func TestOrderFetchFailureFailsClosed(t *testing.T) {
	p := newPipeline(t)
	p.provider.orderErr = errors.New("provider unavailable")
	body := strings.Replace(captureEvent, `"email_address": "buyer@example.com"`, `"email_address": ""`, 1)

	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, signedRequest(http.MethodPost, body))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Empty(t, p.sender.sent)
}

func TestSendFailureStillAcknowledges(t *testing.T) {
	p := newPipeline(t)
	p.sender.err = errors.New("email provider down")

	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, signedRequest(http.MethodPost, captureEvent))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"emailSent":false`)
}

func TestDuplicateDeliveryProcessedOnce(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	p := newPipeline(t, func(cfg *HandlerConfig) {
		cfg.Deduper = NewRedisDeduper(rdb, time.Hour)
	})

	first := httptest.NewRecorder()
	p.router.ServeHTTP(first, signedRequest(http.MethodPost, captureEvent))
	require.Equal(t, http.StatusOK, first.Code)
	require.Contains(t, first.Body.String(), `"emailSent":true`)

	second := httptest.NewRecorder()
	p.router.ServeHTTP(second, signedRequest(http.MethodPost, captureEvent))
	require.Equal(t, http.StatusOK, second.Code)
	require.Contains(t, second.Body.String(), `"duplicate":true`)

	require.Len(t, p.sender.sent, 1)
}

func TestRedeliveryAfterLookupFailureStillSends(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	p := newPipeline(t, func(cfg *HandlerConfig) {
		cfg.Deduper = NewRedisDeduper(rdb, time.Hour)
	})
	p.provider.order = paypal.Order{
		ID:    "ORD-1",
		Payer: &paypal.Payer{EmailAddress: "fetched@example.com"},
		PurchaseUnits: []paypal.PurchaseUnit{{
			CustomID: "IX3",
			Amount:   &paypal.Amount{CurrencyCode: "EUR", Value: "449.00"},
		}},
	}
	p.provider.orderErr = errors.New("provider unavailable")
	body := strings.Replace(captureEvent, `"email_address": "buyer@example.com"`, `"email_address": ""`, 1)

	first := httptest.NewRecorder()
	p.router.ServeHTTP(first, signedRequest(http.MethodPost, body))
	require.Equal(t, http.StatusInternalServerError, first.Code)
	require.Empty(t, p.sender.sent)

	// the 500 asked for a redelivery; once the outage clears it must be
	// processed, not dismissed as a duplicate
	p.provider.orderErr = nil
	second := httptest.NewRecorder()
	p.router.ServeHTTP(second, signedRequest(http.MethodPost, body))
	require.Equal(t, http.StatusOK, second.Code)
	require.Contains(t, second.Body.String(), `"emailSent":true`)
	require.NotContains(t, second.Body.String(), `"duplicate":true`)
	require.Len(t, p.sender.sent, 1)
	require.Equal(t, "fetched@example.com", p.sender.sent[0].To)
}

func TestOrderCompletedEventUsesResourceAsOrder(t *testing.T) {
	p := newPipeline(t)
	body := fmt.Sprintf(`{
		"id": "WH-4",
		"event_type": %q,
		"resource": {
			"id": "ORD-4",
			"status": "COMPLETED",
			"payer": {"email_address": "buyer@example.com"},
			"purchase_units": [{
				"custom_id": "HOSTED-BTN-T10",
				"amount": {"currency_code": "EUR", "value": "399.00"}
			}]
		}
	}`, EventOrderCompleted)

	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, signedRequest(http.MethodPost, body))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, p.sender.sent, 1)
	require.Equal(t, "ORD-4", p.sender.sent[0].OrderID)
	// opaque hosted-button id resolves through the catalog alias table
	require.Equal(t, "T10", p.sender.sent[0].Product.Code)
	require.Zero(t, p.provider.orderCalls.Load())
}

func TestMalformedBody(t *testing.T) {
	p := newPipeline(t)
	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, signedRequest(http.MethodPost, "{not json"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, p.provider.verifyCalls.Load())
}
