package service

import (
	"context"
	"log/slog"

	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/infrastructure/payment"
	"storefront-checkout/internal/repo"
)

// SessionService reconciles a returned checkout session against the gateway
// and projects it into this system's order shape.
type SessionService interface {
	ResolveSession(ctx context.Context, sessionID string) (*domain.OrderView, error)
}

type sessionService struct {
	orderRepo repo.OrderRepo
	gateway   payment.Gateway
}

func NewSessionService(orderRepo repo.OrderRepo, gateway payment.Gateway) SessionService {
	return &sessionService{orderRepo: orderRepo, gateway: gateway}
}

func (s *sessionService) ResolveSession(ctx context.Context, sessionID string) (*domain.OrderView, error) {
	if sessionID == "" {
		return nil, &domain.ValidationError{Field: "session_id", Reason: "session id is required"}
	}
	if !payment.ValidSessionID(sessionID) {
		// Fail fast; no gateway call for ids that can't be ours.
		return nil, &domain.ValidationError{Field: "session_id", Reason: "invalid session id format"}
	}

	result, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	view := &domain.OrderView{
		ID:            result.ID,
		Amount:        result.AmountTotal,
		Currency:      result.Currency,
		Status:        result.Status,
		CustomerEmail: result.CustomerEmail,
		Items:         make([]domain.OrderViewItem, len(result.LineItems)),
	}
	for i, li := range result.LineItems {
		qty := li.Quantity
		if qty < 1 {
			qty = 1
		}
		view.Items[i] = domain.OrderViewItem{
			Name:     li.Description,
			Quantity: qty,
			Price:    float64(li.AmountTotal) / float64(qty),
		}
	}

	if result.Status == "complete" {
		s.markPaid(ctx, sessionID)
	}

	return view, nil
}

// markPaid settles the pending order recorded at session creation. Best
// effort: a failure here must not disturb the success view, and repeated
// calls for the same session converge on the same state.
func (s *sessionService) markPaid(ctx context.Context, sessionID string) {
	order, err := s.orderRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		slog.Warn("lookup order for session failed", "session_id", sessionID, "error", err)
		return
	}
	if order == nil || order.PaymentStatus == domain.PaymentPaid {
		return
	}
	if err := s.orderRepo.UpdatePaymentStatus(ctx, nil, order.ID, domain.PaymentPaid); err != nil {
		slog.Warn("mark order paid failed", "order_id", order.ID, "error", err)
	}
}
