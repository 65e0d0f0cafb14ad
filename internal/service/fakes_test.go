package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/infrastructure/payment"
)

// fakeOrderRepo mirrors the SQL repo's semantics in memory: insertion order,
// wildcard filters, sql.ErrNoRows on missing updates.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders []*domain.Order
}

func (f *fakeOrderRepo) Create(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *order
	copied.Seq = int64(len(f.orders) + 1)
	order.Seq = copied.Seq
	f.orders = append(f.orders, &copied)
	return nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) FindBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.CheckoutSessionID == sessionID && sessionID != "" {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) List(ctx context.Context, deliveryFilter, paymentFilter string) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		deliveryMatch := deliveryFilter == "" || deliveryFilter == "all" || string(o.DeliveryStatus) == deliveryFilter
		paymentMatch := paymentFilter == "" || paymentFilter == "all" || string(o.PaymentStatus) == paymentFilter
		if deliveryMatch && paymentMatch {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateDeliveryStatus(ctx context.Context, tx *sql.Tx, id string, status domain.DeliveryStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			o.DeliveryStatus = status
			o.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeOrderRepo) UpdatePaymentStatus(ctx context.Context, tx *sql.Tx, id string, status domain.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			o.PaymentStatus = status
			o.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeOrderRepo) FindUnreconciled(ctx context.Context, olderThan time.Duration) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var out []domain.Order
	for _, o := range f.orders {
		if o.PaymentMethod == domain.PaymentMethodGateway &&
			o.PaymentStatus == domain.PaymentPending &&
			o.CheckoutSessionID != "" &&
			o.UpdatedAt.Before(cutoff) {
			out = append(out, *o)
		}
	}
	return out, nil
}

// countingGateway wraps another gateway and counts calls, for asserting that
// fast-fail paths never reach the network.
type countingGateway struct {
	inner         payment.Gateway
	createCalls   int
	retrieveCalls int
}

func (g *countingGateway) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	g.createCalls++
	return g.inner.CreateSession(ctx, req)
}

func (g *countingGateway) RetrieveSession(ctx context.Context, sessionID string) (*payment.SessionResult, error) {
	g.retrieveCalls++
	return g.inner.RetrieveSession(ctx, sessionID)
}
