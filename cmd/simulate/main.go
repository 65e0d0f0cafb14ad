package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"storefront-checkout/internal/config"
	"storefront-checkout/internal/database"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/infrastructure/payment"
	"storefront-checkout/internal/repo"
	"storefront-checkout/internal/service"
	"storefront-checkout/internal/worker"
)

// Drives 20 checkouts against the mock gateway: a mix of deferred orders and
// hosted-session orders, some of which the simulated customer abandons. The
// reconciliation worker then settles whatever is left pending.
func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	ctx := context.Background()
	cfg := config.Load()

	db, err := database.NewPostgres(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	orderRepo := repo.NewOrderRepo(db)
	inventoryRepo := repo.NewInventoryRepo(db)
	cartRepo := repo.NewCartRepo(db)
	gateway := payment.NewMockGateway()

	checkout := service.NewCheckoutService(db, orderRepo, inventoryRepo, cartRepo, gateway, cfg.SuccessURL, cfg.CancelURL)
	sessions := service.NewSessionService(orderRepo, gateway)

	products := []repo.Product{
		{ID: "gpu-4090", Name: "RTX 4090", UnitPrice: decimal.RequireFromString("1599.99"), Stock: 100},
		{ID: "gpu-4080", Name: "RTX 4080 Super", UnitPrice: decimal.RequireFromString("999.99"), Stock: 100},
		{ID: "gpu-7900", Name: "RX 7900 XTX", UnitPrice: decimal.RequireFromString("949.50"), Stock: 100},
	}
	for i := range products {
		if err := inventoryRepo.Upsert(ctx, nil, &products[i]); err != nil {
			slog.Error("seed failed", "error", err)
			os.Exit(1)
		}
	}

	fmt.Println("--- STARTING SIMULATION (20 ORDERS) ---")
	for i := 0; i < 20; i++ {
		p := products[rand.Intn(len(products))]
		req := service.CheckoutRequest{
			Items: []domain.LineItem{{
				ID:               p.ID,
				Name:             p.Name,
				UnitPrice:        p.UnitPrice,
				Quantity:         1 + rand.Intn(2),
				StockAtOrderTime: p.Stock,
			}},
			Customer: domain.CustomerInfo{
				Name:    fmt.Sprintf("Customer %d", i+1),
				Email:   fmt.Sprintf("customer%d@example.com", i+1),
				Phone:   "555-0100",
				Address: "1 Demo Street",
			},
		}

		if i%2 == 0 {
			req.Method = domain.PaymentMethodDeferred
			result, err := checkout.InitiateCheckout(ctx, req)
			if err != nil {
				fmt.Printf("[%d] deferred checkout FAILED: %v\n", i+1, err)
				continue
			}
			fmt.Printf("[%d] deferred order %s total=%s\n", i+1, result.Order.ID, result.Order.Total)
			continue
		}

		req.Method = domain.PaymentMethodGateway
		result, err := checkout.InitiateCheckout(ctx, req)
		if err != nil {
			fmt.Printf("[%d] gateway checkout FAILED: %v\n", i+1, err)
			continue
		}

		switch rand.Intn(3) {
		case 0:
			// Customer pays and comes back through the redirect.
			gateway.Complete(result.SessionID)
			if _, err := sessions.ResolveSession(ctx, result.SessionID); err != nil {
				fmt.Printf("[%d] resolve FAILED: %v\n", i+1, err)
			}
			fmt.Printf("[%d] gateway order %s paid via redirect\n", i+1, result.Order.ID)
		case 1:
			// Customer pays but never returns; the worker must settle it.
			gateway.Complete(result.SessionID)
			fmt.Printf("[%d] gateway order %s paid, redirect lost\n", i+1, result.Order.ID)
		default:
			gateway.Expire(result.SessionID)
			fmt.Printf("[%d] gateway order %s abandoned\n", i+1, result.Order.ID)
		}
	}

	reconciler := worker.NewReconciliationWorker(orderRepo, gateway, time.Second, 0)
	if err := reconciler.Process(ctx); err != nil {
		slog.Error("reconciliation failed", "error", err)
	}

	orders, err := orderRepo.List(ctx, "", "")
	if err != nil {
		slog.Error("list failed", "error", err)
		os.Exit(1)
	}
	fmt.Println("--- FINAL ORDER STATUSES ---")
	for _, o := range orders {
		fmt.Printf("%s method=%s delivery=%s payment=%s total=%s\n",
			o.ID, o.PaymentMethod, o.DeliveryStatus, o.PaymentStatus, o.Total)
	}
}
