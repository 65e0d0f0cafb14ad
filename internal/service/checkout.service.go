package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/infrastructure/payment"
	"storefront-checkout/internal/repo"
)

type CheckoutRequest struct {
	// CartID names a saved server-side cart to clear once the order is
	// placed. Optional; the items themselves travel in the request.
	CartID   string
	Items    []domain.LineItem
	Customer domain.CustomerInfo
	Method   domain.PaymentMethod
}

type CheckoutResult struct {
	// RedirectURL and SessionID are set on the gateway path.
	RedirectURL string
	SessionID   string
	Order       *domain.Order
}

type CheckoutService interface {
	InitiateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
}

type checkoutService struct {
	db            *sql.DB
	orderRepo     repo.OrderRepo
	inventoryRepo repo.InventoryRepo
	cartRepo      repo.CartRepo
	gateway       payment.Gateway
	successURL    string
	cancelURL     string
}

func NewCheckoutService(
	db *sql.DB,
	orderRepo repo.OrderRepo,
	inventoryRepo repo.InventoryRepo,
	cartRepo repo.CartRepo,
	gateway payment.Gateway,
	successURL, cancelURL string,
) CheckoutService {
	return &checkoutService{
		db:            db,
		orderRepo:     orderRepo,
		inventoryRepo: inventoryRepo,
		cartRepo:      cartRepo,
		gateway:       gateway,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

func (s *checkoutService) InitiateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	// NewOrder validates the cart and the customer and derives the total.
	// Nothing has touched the database or the gateway before this point.
	order, err := domain.NewOrder(req.Items, req.Customer, req.Method)
	if err != nil {
		return nil, err
	}

	switch req.Method {
	case domain.PaymentMethodGateway:
		return s.gatewayCheckout(ctx, req, order)
	case domain.PaymentMethodDeferred:
		return s.deferredCheckout(ctx, req, order)
	default:
		return nil, &domain.ValidationError{Field: "payment_method", Reason: "unknown payment method " + string(req.Method)}
	}
}

// gatewayCheckout creates a hosted payment session and records the order in
// pending state, keyed by the session id. Payment status is settled later by
// the session reconciler or the reconciliation worker.
func (s *checkoutService) gatewayCheckout(ctx context.Context, req CheckoutRequest, order *domain.Order) (*CheckoutResult, error) {
	sessionReq, err := buildSessionRequest(order, s.successURL, s.cancelURL)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateSession(ctx, sessionReq)
	if err != nil {
		// GatewayError and NetworkError pass through untouched so the
		// HTTP layer can tell "card declined" from "try again".
		return nil, err
	}

	order.CheckoutSessionID = session.ID
	if err := s.orderRepo.Create(ctx, nil, order); err != nil {
		return nil, fmt.Errorf("persist order for session %s: %w", session.ID, err)
	}

	slog.Info("payment session created", "order_id", order.ID, "session_id", session.ID)
	return &CheckoutResult{RedirectURL: session.RedirectURL, SessionID: session.ID, Order: order}, nil
}

// deferredCheckout finalizes a pay-on-delivery order. Order creation, stock
// decrement and cart clearing are one transaction: all or nothing.
func (s *checkoutService) deferredCheckout(ctx context.Context, req CheckoutRequest, order *domain.Order) (*CheckoutResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.orderRepo.Create(ctx, tx, order); err != nil {
		return nil, err
	}
	for _, li := range order.Items {
		if err := s.inventoryRepo.DecrementStock(ctx, tx, li.ID, li.Quantity); err != nil {
			return nil, err
		}
	}
	if req.CartID != "" {
		if err := s.cartRepo.Clear(ctx, tx, req.CartID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("deferred order placed", "order_id", order.ID, "total", order.Total)
	return &CheckoutResult{Order: order}, nil
}

func buildSessionRequest(order *domain.Order, successURL, cancelURL string) (payment.SessionRequest, error) {
	items := make([]payment.SessionLineItem, len(order.Items))
	manifest := make([]map[string]any, len(order.Items))
	for i, li := range order.Items {
		items[i] = payment.SessionLineItem{
			Name:        li.Name,
			Description: fmt.Sprintf("Quantity: %d", li.Quantity),
			UnitAmount:  li.MinorUnits(),
			Quantity:    li.Quantity,
		}
		manifest[i] = map[string]any{
			"id":       li.ID,
			"name":     li.Name,
			"quantity": li.Quantity,
			"price":    li.UnitPrice,
		}
	}

	rawManifest, err := json.Marshal(manifest)
	if err != nil {
		return payment.SessionRequest{}, err
	}

	return payment.SessionRequest{
		Items:         items,
		CustomerEmail: order.Customer.Email,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
		Metadata: map[string]string{
			"customer_name":    order.Customer.Name,
			"customer_phone":   order.Customer.Phone,
			"customer_address": order.Customer.Address,
			"order_items":      string(rawManifest),
		},
	}, nil
}
