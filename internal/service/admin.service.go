package service

import (
	"context"
	"database/sql"
	"errors"

	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/repo"
)

var ErrOrderNotFound = errors.New("order not found")

type Summary struct {
	TotalOrders          int `json:"total_orders"`
	PendingDeliveryCount int `json:"pending_delivery_count"`
	DeliveredCount       int `json:"delivered_count"`
	PaidCount            int `json:"paid_count"`
}

// AdminService manages the two independent status axes on an order. Any
// status may be set from any other: manual corrections are a feature here,
// so there are no transition guards.
type AdminService interface {
	SetDeliveryStatus(ctx context.Context, orderID string, status domain.DeliveryStatus) error
	SetPaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus) error
	ListOrders(ctx context.Context, deliveryFilter, paymentFilter string) ([]domain.Order, error)
	Summary(ctx context.Context) (Summary, error)
}

type adminService struct {
	orderRepo repo.OrderRepo
}

func NewAdminService(orderRepo repo.OrderRepo) AdminService {
	return &adminService{orderRepo: orderRepo}
}

func (s *adminService) SetDeliveryStatus(ctx context.Context, orderID string, status domain.DeliveryStatus) error {
	err := s.orderRepo.UpdateDeliveryStatus(ctx, nil, orderID, status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	return err
}

func (s *adminService) SetPaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus) error {
	err := s.orderRepo.UpdatePaymentStatus(ctx, nil, orderID, status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	return err
}

func (s *adminService) ListOrders(ctx context.Context, deliveryFilter, paymentFilter string) ([]domain.Order, error) {
	if deliveryFilter != "" && deliveryFilter != "all" {
		if _, err := domain.ParseDeliveryStatus(deliveryFilter); err != nil {
			return nil, err
		}
	}
	if paymentFilter != "" && paymentFilter != "all" {
		if _, err := domain.ParsePaymentStatus(paymentFilter); err != nil {
			return nil, err
		}
	}
	return s.orderRepo.List(ctx, deliveryFilter, paymentFilter)
}

// Summary recomputes the aggregate on every call; there is no cache to go
// stale at this scale.
func (s *adminService) Summary(ctx context.Context) (Summary, error) {
	orders, err := s.orderRepo.List(ctx, "", "")
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{TotalOrders: len(orders)}
	for _, order := range orders {
		if order.DeliveryStatus == domain.DeliveryPending {
			summary.PendingDeliveryCount++
		}
		if order.DeliveryStatus == domain.DeliveryDelivered {
			summary.DeliveredCount++
		}
		if order.PaymentStatus == domain.PaymentPaid {
			summary.PaidCount++
		}
	}
	return summary, nil
}
