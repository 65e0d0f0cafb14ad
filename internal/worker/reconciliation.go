package worker

import (
	"context"
	"log/slog"
	"time"

	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/infrastructure/payment"
	"storefront-checkout/internal/repo"
)

// ReconciliationWorker settles gateway orders whose customer never came back
// through the success redirect. The gateway is the source of truth: a
// completed session marks the order paid, an expired one marks it failed.
type ReconciliationWorker struct {
	orderRepo repo.OrderRepo
	gateway   payment.Gateway
	interval  time.Duration
	olderThan time.Duration
}

func NewReconciliationWorker(
	orderRepo repo.OrderRepo,
	gateway payment.Gateway,
	interval time.Duration,
	olderThan time.Duration,
) *ReconciliationWorker {
	return &ReconciliationWorker{
		orderRepo: orderRepo,
		gateway:   gateway,
		interval:  interval,
		olderThan: olderThan,
	}
}

func (rw *ReconciliationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	slog.Info("reconciliation worker started", "interval", rw.interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := rw.Process(ctx); err != nil {
				slog.Error("reconciliation pass failed", "error", err)
			}
		}
	}
}

// Process runs one reconciliation pass. Exported so cmd/simulate and tests
// can drive it without the ticker.
func (rw *ReconciliationWorker) Process(ctx context.Context) error {
	stuck, err := rw.orderRepo.FindUnreconciled(ctx, rw.olderThan)
	if err != nil {
		return err
	}
	if len(stuck) == 0 {
		return nil
	}

	slog.Info("reconciling stuck orders", "count", len(stuck))

	for _, order := range stuck {
		result, err := rw.gateway.RetrieveSession(ctx, order.CheckoutSessionID)
		if err != nil {
			// Leave it for the next pass.
			slog.Warn("session lookup failed", "order_id", order.ID, "session_id", order.CheckoutSessionID, "error", err)
			continue
		}

		var status domain.PaymentStatus
		switch result.Status {
		case "complete":
			status = domain.PaymentPaid
		case "expired":
			status = domain.PaymentFailed
		default:
			// Still open; the customer may yet pay.
			continue
		}

		if err := rw.orderRepo.UpdatePaymentStatus(ctx, nil, order.ID, status); err != nil {
			slog.Warn("status update failed", "order_id", order.ID, "error", err)
			continue
		}
		slog.Info("order reconciled", "order_id", order.ID, "payment_status", status)
	}
	return nil
}
