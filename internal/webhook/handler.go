package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/scootshop/checkout-api/internal/catalog"
	"github.com/scootshop/checkout-api/internal/common"
	"github.com/scootshop/checkout-api/internal/notify"
	"github.com/scootshop/checkout-api/internal/obs"
	"github.com/scootshop/checkout-api/internal/paypal"
)

// Verification-failure acknowledgment policy. Retry answers 400 so the
// provider redelivers (risking duplicate processing on transient false
// negatives); suppress answers 200 so it does not (risking a silently
// dropped payment event). Retry is the default.
const (
	PolicyRetry    = "retry"
	PolicySuppress = "suppress"
)

const maxEventBody = 1 << 20

// ConfirmationSender is the notification side the handler depends on.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, c notify.Confirmation) error
}

// HandlerConfig groups Handler construction parameters.
type HandlerConfig struct {
	Verifier        *Verifier
	Resolver        *Resolver
	Catalog         *catalog.Catalog
	Sender          ConfirmationSender
	Deduper         Deduper
	OnVerifyFailure string
	Logger          zerolog.Logger
}

// Handler exposes the payment webhook endpoint and runs the full pipeline:
// verify signature, classify, deduplicate, resolve order and product, send
// the confirmation email.
type Handler struct {
	verifier *Verifier
	resolver *Resolver
	catalog  *catalog.Catalog
	sender   ConfirmationSender
	deduper  Deduper
	suppress bool
	log      zerolog.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		verifier: cfg.Verifier,
		resolver: cfg.Resolver,
		catalog:  cfg.Catalog,
		sender:   cfg.Sender,
		deduper:  cfg.Deduper,
		suppress: cfg.OnVerifyFailure == PolicySuppress,
		log:      cfg.Logger,
	}
}

// Routes mounts the webhook endpoint. GET is a liveness probe for provider
// dashboard checks; everything except GET and POST answers 405.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Liveness)
	r.Post("/", h.Receive)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		common.MethodNotAllowed(w, http.MethodGet, http.MethodPost)
	})
}

func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type receipt struct {
	OK        bool   `json:"ok"`
	Reason    string `json:"reason,omitempty"`
	Ignored   bool   `json:"ignored,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	EmailSent bool   `json:"emailSent"`
}

func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil || len(body) == 0 {
		h.count("malformed")
		common.JSONError(w, http.StatusBadRequest, "MALFORMED_BODY", "request body is missing or unreadable", nil)
		return
	}
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		h.count("malformed")
		common.JSONError(w, http.StatusBadRequest, "MALFORMED_BODY", "request body is not valid JSON", nil)
		return
	}

	log := h.log.With().Str("event_id", ev.ID).Str("event_type", ev.EventType).Logger()

	if rej := h.verifier.Verify(ctx, HeadersFrom(r.Header), body); rej != nil {
		h.count("rejected")
		log.Warn().Str("reason", rej.Reason).Msg("webhook signature rejected")
		switch {
		case rej.ProviderFault:
			common.JSONError(w, http.StatusInternalServerError, "PROVIDER_ERROR", "signature verification could not be completed", nil)
		case h.suppress:
			common.JSON(w, http.StatusOK, receipt{OK: false, Reason: rej.Reason})
		default:
			common.JSONError(w, http.StatusBadRequest, "SIGNATURE_REJECTED", rej.Reason, nil)
		}
		return
	}

	if !IsPaid(ev.EventType) {
		h.count("ignored")
		log.Debug().Msg("ignoring non-payment event")
		common.JSON(w, http.StatusOK, receipt{OK: true, Ignored: true})
		return
	}

	marked := false
	if h.deduper != nil && ev.ID != "" {
		seen, err := h.deduper.Seen(ctx, ev.ID)
		switch {
		case err != nil:
			// availability over strict dedupe: a dead store must not block
			// payment acknowledgments
			log.Warn().Err(err).Msg("dedupe store unavailable, processing anyway")
		case seen:
			h.count("duplicate")
			log.Info().Msg("duplicate delivery, already processed")
			common.JSON(w, http.StatusOK, receipt{OK: true, Duplicate: true})
			return
		default:
			marked = true
		}
	}

	order, err := h.resolver.Resolve(ctx, ev)
	if err != nil {
		// the 500 asks the provider to redeliver; the mark must be released
		// or the redelivery would be swallowed as a duplicate and the
		// confirmation lost for good
		if marked {
			if ferr := h.deduper.Forget(ctx, ev.ID); ferr != nil {
				log.Warn().Err(ferr).Msg("could not release dedupe mark")
			}
		}
		h.count("lookup_failed")
		log.Error().Err(err).Msg("order resolution failed")
		common.JSONError(w, http.StatusInternalServerError, "ORDER_LOOKUP_FAILED", "could not resolve the order behind this event", nil)
		return
	}
	if order == nil || order.Payer == nil || strings.TrimSpace(order.Payer.EmailAddress) == "" {
		h.count("no_recipient")
		common.JSON(w, http.StatusOK, receipt{OK: true})
		return
	}

	entry, matched := h.catalog.Resolve(candidatesFor(order)...)
	if obs.ProductResolutionTotal != nil {
		if matched {
			obs.ProductResolutionTotal.WithLabelValues("matched").Inc()
		} else {
			obs.ProductResolutionTotal.WithLabelValues("fallback").Inc()
		}
	}

	confirmation := notify.Confirmation{
		To:      order.Payer.EmailAddress,
		OrderID: order.ID,
		Product: entry,
	}
	if len(order.PurchaseUnits) > 0 && order.PurchaseUnits[0].Amount != nil {
		confirmation.Amount = order.PurchaseUnits[0].Amount.Value
		confirmation.Currency = order.PurchaseUnits[0].Amount.CurrencyCode
	}

	// one attempt, no retry: a failed send is reported but the event stays
	// acknowledged so the provider does not redeliver an already-captured
	// payment
	if err := h.sender.SendConfirmation(ctx, confirmation); err != nil {
		h.count("send_failed")
		log.Error().Err(err).Str("order_id", order.ID).Msg("confirmation dispatch failed")
		common.JSON(w, http.StatusOK, receipt{OK: true})
		return
	}
	h.count("sent")
	common.JSON(w, http.StatusOK, receipt{OK: true, EmailSent: true})
}

func (h *Handler) count(result string) {
	if obs.WebhookEventsTotal != nil {
		obs.WebhookEventsTotal.WithLabelValues(result).Inc()
	}
}

// candidatesFor lists the catalog lookup candidates of an order in priority
// order. Only the first purchase unit is considered; orders here carry one.
func candidatesFor(order *paypal.Order) []string {
	if len(order.PurchaseUnits) == 0 {
		return nil
	}
	pu := order.PurchaseUnits[0]
	candidates := []string{pu.CustomID, pu.ReferenceID, pu.InvoiceID}
	if len(pu.Items) > 0 {
		candidates = append(candidates, pu.Items[0].SKU, pu.Items[0].Name)
	} else {
		candidates = append(candidates, "", "")
	}
	return append(candidates, pu.Description)
}
