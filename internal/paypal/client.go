package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/scootshop/checkout-api/internal/obs"
	"github.com/scootshop/checkout-api/internal/resilience"
)

const (
	sandboxBaseURL = "https://api-m.sandbox.paypal.com"
	liveBaseURL    = "https://api-m.paypal.com"

	// refresh the cached token slightly before the provider expires it
	tokenExpirySkew = 60 * time.Second
)

// APIError is a non-2xx response from the PayPal REST API. The body is
// truncated; PayPal error payloads can be large and repetitive.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal: status %d: %s", e.StatusCode, e.Body)
}

// BaseURLFor maps the environment selector to the REST API host. "live" and
// "production" mean the real API; anything else is sandbox.
func BaseURLFor(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "live", "production":
		return liveBaseURL
	default:
		return sandboxBaseURL
	}
}

// Config groups Client dependencies.
type Config struct {
	BaseURL  string
	ClientID string
	Secret   string
	HTTP     *resilience.HTTPClient
}

// Client is a minimal PayPal Orders API client. Access tokens are cached per
// client and refreshed on expiry; all other calls are plain request/response.
type Client struct {
	baseURL  string
	clientID string
	secret   string
	http     *resilience.HTTPClient

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewClient constructs a Client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("paypal: client credentials are required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = sandboxBaseURL
	}
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = &resilience.HTTPClient{Client: &http.Client{Timeout: 15 * time.Second}}
	}
	return &Client{
		baseURL:  base,
		clientID: cfg.ClientID,
		secret:   cfg.Secret,
		http:     httpClient,
	}, nil
}

// AccessToken returns a valid OAuth2 token, exchanging client credentials
// when the cached one is absent or expired.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}

	form := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", form)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := c.send(ctx, "token", req, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("paypal: token response missing access_token")
	}
	c.token = out.AccessToken
	ttl := time.Duration(out.ExpiresIn) * time.Second
	if ttl > tokenExpirySkew {
		ttl -= tokenExpirySkew
	}
	c.tokenExp = time.Now().Add(ttl)
	return c.token, nil
}

// VerifyWebhookSignature asks PayPal to verify an inbound webhook event and
// returns the raw verification status. Callers must compare the result with
// VerificationSuccess; any other value means the event is unverified.
func (c *Client) VerifyWebhookSignature(ctx context.Context, req VerifySignatureRequest) (string, error) {
	var out struct {
		VerificationStatus string `json:"verification_status"`
	}
	err := c.doJSON(ctx, "verify_signature", http.MethodPost, "/v1/notifications/verify-webhook-signature", req, &out)
	if err != nil {
		return "", err
	}
	return out.VerificationStatus, nil
}

// GetOrder fetches the full order snapshot.
func (c *Client) GetOrder(ctx context.Context, orderID string) (Order, error) {
	var order Order
	if strings.TrimSpace(orderID) == "" {
		return order, errors.New("paypal: order id is required")
	}
	path := "/v2/checkout/orders/" + url.PathEscape(orderID)
	if err := c.doJSON(ctx, "get_order", http.MethodGet, path, nil, &order); err != nil {
		return Order{}, err
	}
	return order, nil
}

// CreateOrderRequest is the payload for creating a checkout order.
type CreateOrderRequest struct {
	Intent             string              `json:"intent"`
	PurchaseUnits      []PurchaseUnit      `json:"purchase_units"`
	ApplicationContext *ApplicationContext `json:"application_context,omitempty"`
}

// ApplicationContext tunes the provider's checkout UX.
type ApplicationContext struct {
	BrandName          string `json:"brand_name,omitempty"`
	UserAction         string `json:"user_action,omitempty"`
	ShippingPreference string `json:"shipping_preference,omitempty"`
}

// CreateOrder creates an order with CAPTURE intent and returns its identifier.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (string, error) {
	if req.Intent == "" {
		req.Intent = "CAPTURE"
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, "create_order", http.MethodPost, "/v2/checkout/orders", req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("paypal: create order response missing id")
	}
	return out.ID, nil
}

// CaptureOrder captures payment for an approved order.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (CaptureResult, error) {
	var result CaptureResult
	if strings.TrimSpace(orderID) == "" {
		return result, errors.New("paypal: order id is required")
	}
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	if err := c.doJSON(ctx, "capture_order", http.MethodPost, path, struct{}{}, &result); err != nil {
		return CaptureResult{}, err
	}
	return result, nil
}

// GetWebhook confirms the configured webhook id belongs to the app the client
// credentials authenticate. A failure here means the webhook id belongs to
// another app or environment — every signature verification would fail.
func (c *Client) GetWebhook(ctx context.Context, webhookID string) error {
	if strings.TrimSpace(webhookID) == "" {
		return errors.New("paypal: webhook id is required")
	}
	path := "/v1/notifications/webhooks/" + url.PathEscape(webhookID)
	var out struct {
		ID string `json:"id"`
	}
	return c.doJSON(ctx, "get_webhook", http.MethodGet, path, nil, &out)
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, body, out any) error {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("obtain access token: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return c.send(ctx, op, req, out)
}

func (c *Client) send(ctx context.Context, op string, req *http.Request, out any) error {
	ctx, span := otel.Tracer("paypal.Client").Start(ctx, "paypal."+op)
	defer span.End()

	resp, err := c.http.Do(ctx, req)
	result := "success"
	defer func() {
		span.SetAttributes(
			attribute.String("paypal.operation", op),
			attribute.String("paypal.result", result),
		)
		if obs.ProviderRequestTotal != nil {
			obs.ProviderRequestTotal.WithLabelValues(op, result).Inc()
		}
	}()
	if err != nil {
		result = "transport_error"
		span.RecordError(err)
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		result = "read_error"
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result = fmt.Sprintf("http_%d", resp.StatusCode)
		return &APIError{StatusCode: resp.StatusCode, Body: truncate(string(data), 300)}
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			result = "decode_error"
			return fmt.Errorf("decode %s response: %w", op, err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
