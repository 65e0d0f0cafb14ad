package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"storefront-checkout/internal/config"
	"storefront-checkout/internal/database"
	"storefront-checkout/internal/infrastructure/payment"
	"storefront-checkout/internal/metrics"
	"storefront-checkout/internal/repo"
	"storefront-checkout/internal/server"
	"storefront-checkout/internal/service"
	"storefront-checkout/internal/worker"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
	gateway := payment.NewHTTPGateway(cfg.GatewayBaseURL, cfg.GatewaySecretKey, cfg.GatewayTimeout)

	checkoutService := service.NewCheckoutService(db, orderRepo, inventoryRepo, cartRepo, gateway, cfg.SuccessURL, cfg.CancelURL)
	sessionService := service.NewSessionService(orderRepo, gateway)
	adminService := service.NewAdminService(orderRepo)

	reconciler := worker.NewReconciliationWorker(orderRepo, gateway, cfg.ReconcileInterval, cfg.ReconcileAfter)
	go reconciler.Run(ctx)

	srv := server.New(
		checkoutService,
		sessionService,
		adminService,
		database.New(db, cfg.DBDatabase),
		metrics.NewServerMetrics("api"),
	)

	slog.Info("storefront checkout api listening", "port", cfg.HTTPPort)
	if err := srv.Router().Run(":" + cfg.HTTPPort); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
