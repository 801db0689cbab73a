package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/scootshop/checkout-api/internal/catalog"
	"github.com/scootshop/checkout-api/internal/common"
	"github.com/scootshop/checkout-api/internal/obs"
	"github.com/scootshop/checkout-api/internal/paypal"
)

// OrderProvider is the provider surface the checkout service needs.
type OrderProvider interface {
	CreateOrder(ctx context.Context, req paypal.CreateOrderRequest) (string, error)
	CaptureOrder(ctx context.Context, orderID string) (paypal.CaptureResult, error)
}

// CreateInput is the client payload for creating an order. Only the product
// code is trusted from the client; price and currency come from the catalog.
type CreateInput struct {
	ProductCode string `json:"productCode" validate:"required,min=1,max=64"`
	Quantity    int    `json:"quantity" validate:"omitempty,min=1,max=10"`
}

// CreateOutput is the created-order response.
type CreateOutput struct {
	OrderID string `json:"orderId"`
}

// CaptureOutput is the capture response.
type CaptureOutput struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// Service creates and captures provider orders against the static catalog.
type Service struct {
	provider  OrderProvider
	catalog   *catalog.Catalog
	brandName string
	validate  *validator.Validate
	log       zerolog.Logger
}

func NewService(provider OrderProvider, cat *catalog.Catalog, brandName string, log zerolog.Logger) *Service {
	return &Service{
		provider:  provider,
		catalog:   cat,
		brandName: brandName,
		validate:  validator.New(),
		log:       log,
	}
}

// Create looks the product up server-side and creates a CAPTURE-intent order
// with the catalog price. Client-supplied prices are never accepted.
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateOutput, error) {
	if err := s.validate.Struct(in); err != nil {
		return CreateOutput{}, common.NewAppError("VALIDATION", "invalid order payload", http.StatusBadRequest, err)
	}
	entry, ok := s.catalog.Get(in.ProductCode)
	if !ok {
		return CreateOutput{}, common.NewAppError("UNKNOWN_PRODUCT", "product code not in catalog", http.StatusUnprocessableEntity, nil)
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}

	total, err := multiplyAmount(entry.Price, qty)
	if err != nil {
		return CreateOutput{}, fmt.Errorf("compute order total: %w", err)
	}

	req := paypal.CreateOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypal.PurchaseUnit{{
			ReferenceID: entry.Code,
			CustomID:    entry.Code,
			Description: fmt.Sprintf("%s · %s", s.brandName, entry.Name),
			Amount: &paypal.Amount{
				CurrencyCode: entry.Currency,
				Value:        total,
			},
			Items: []paypal.Item{{
				Name:       entry.Name,
				SKU:        entry.Code,
				Quantity:   fmt.Sprintf("%d", qty),
				UnitAmount: &paypal.Amount{CurrencyCode: entry.Currency, Value: entry.Price},
			}},
		}},
		ApplicationContext: &paypal.ApplicationContext{
			BrandName:          s.brandName,
			UserAction:         "PAY_NOW",
			ShippingPreference: "NO_SHIPPING",
		},
	}

	orderID, err := s.provider.CreateOrder(ctx, req)
	if err != nil {
		if obs.OrderCreateTotal != nil {
			obs.OrderCreateTotal.WithLabelValues("error").Inc()
		}
		return CreateOutput{}, fmt.Errorf("create provider order: %w", err)
	}
	if obs.OrderCreateTotal != nil {
		obs.OrderCreateTotal.WithLabelValues("created").Inc()
	}
	s.log.Info().Str("order_id", orderID).Str("product", entry.Code).Int("quantity", qty).Msg("order created")
	return CreateOutput{OrderID: orderID}, nil
}

// Capture captures payment for an approved order.
func (s *Service) Capture(ctx context.Context, orderID string) (CaptureOutput, error) {
	if orderID == "" {
		return CaptureOutput{}, common.NewAppError("VALIDATION", "order id is required", http.StatusBadRequest, nil)
	}
	result, err := s.provider.CaptureOrder(ctx, orderID)
	if err != nil {
		var apiErr *paypal.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity {
			return CaptureOutput{}, common.NewAppError("CAPTURE_REJECTED", "order cannot be captured in its current state", http.StatusUnprocessableEntity, err)
		}
		return CaptureOutput{}, fmt.Errorf("capture order %s: %w", orderID, err)
	}
	s.log.Info().Str("order_id", result.ID).Str("status", result.Status).Msg("order captured")
	return CaptureOutput{OrderID: result.ID, Status: result.Status}, nil
}
