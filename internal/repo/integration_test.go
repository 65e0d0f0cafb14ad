package repo_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"storefront-checkout/internal/database"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/infrastructure/payment"
	"storefront-checkout/internal/repo"
	"storefront-checkout/internal/service"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("container runtime unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(ctx, db))
	return db
}

func newOrder(t *testing.T, method domain.PaymentMethod) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(
		[]domain.LineItem{
			{ID: "gpu-1", Name: "RTX 4090", UnitPrice: decimal.RequireFromString("1599.99"), Quantity: 1, StockAtOrderTime: 5},
			{ID: "cable", Name: "DP Cable", UnitPrice: decimal.RequireFromString("19.99"), Quantity: 2, StockAtOrderTime: 40},
		},
		domain.CustomerInfo{Name: "Jamie Doe", Email: "jamie@example.com", Phone: "555-0100", Address: "1 Demo Street"},
		method,
	)
	require.NoError(t, err)
	return order
}

func TestOrderRepoRoundTrip(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	orders := repo.NewOrderRepo(db)

	order := newOrder(t, domain.PaymentMethodDeferred)
	require.NoError(t, orders.Create(ctx, nil, order))
	assert.NotZero(t, order.Seq)

	stored, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, order.ID, stored.ID)
	assert.True(t, stored.Total.Equal(decimal.RequireFromString("1639.97")))
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "RTX 4090", stored.Items[0].Name)
	assert.Equal(t, 2, stored.Items[1].Quantity)
	assert.Equal(t, order.Customer, stored.Customer)
	assert.Equal(t, domain.DeliveryPending, stored.DeliveryStatus)
	assert.Equal(t, domain.PaymentPending, stored.PaymentStatus)

	missing, err := orders.FindByID(ctx, "order_missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOrderRepoListFiltersAndOrder(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	orders := repo.NewOrderRepo(db)

	var ids []string
	for i := 0; i < 4; i++ {
		order := newOrder(t, domain.PaymentMethodDeferred)
		require.NoError(t, orders.Create(ctx, nil, order))
		ids = append(ids, order.ID)
	}

	require.NoError(t, orders.UpdateDeliveryStatus(ctx, nil, ids[0], domain.DeliveryDelivered))
	require.NoError(t, orders.UpdatePaymentStatus(ctx, nil, ids[0], domain.PaymentPaid))
	require.NoError(t, orders.UpdateDeliveryStatus(ctx, nil, ids[2], domain.DeliveryDelivered))

	all, err := orders.List(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, id := range ids {
		assert.Equal(t, id, all[i].ID, "insertion order preserved")
	}

	both, err := orders.List(ctx, "delivered", "paid")
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, ids[0], both[0].ID)

	delivered, err := orders.List(ctx, "delivered", "all")
	require.NoError(t, err)
	assert.Len(t, delivered, 2)
}

func TestOrderRepoStatusIndependence(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	orders := repo.NewOrderRepo(db)

	order := newOrder(t, domain.PaymentMethodDeferred)
	require.NoError(t, orders.Create(ctx, nil, order))

	require.NoError(t, orders.UpdateDeliveryStatus(ctx, nil, order.ID, domain.DeliveryShipped))
	stored, _ := orders.FindByID(ctx, order.ID)
	assert.Equal(t, domain.DeliveryShipped, stored.DeliveryStatus)
	assert.Equal(t, domain.PaymentPending, stored.PaymentStatus)

	require.NoError(t, orders.UpdatePaymentStatus(ctx, nil, order.ID, domain.PaymentPaid))
	stored, _ = orders.FindByID(ctx, order.ID)
	assert.Equal(t, domain.DeliveryShipped, stored.DeliveryStatus)
	assert.Equal(t, domain.PaymentPaid, stored.PaymentStatus)

	err := orders.UpdateDeliveryStatus(ctx, nil, "order_missing", domain.DeliveryShipped)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestOrderRepoFindUnreconciled(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	orders := repo.NewOrderRepo(db)

	stuck := newOrder(t, domain.PaymentMethodGateway)
	stuck.CheckoutSessionID = "cs_test_stuck"
	stuck.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, orders.Create(ctx, nil, stuck))

	fresh := newOrder(t, domain.PaymentMethodGateway)
	fresh.CheckoutSessionID = "cs_test_fresh"
	require.NoError(t, orders.Create(ctx, nil, fresh))

	deferred := newOrder(t, domain.PaymentMethodDeferred)
	require.NoError(t, orders.Create(ctx, nil, deferred))

	found, err := orders.FindUnreconciled(ctx, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, stuck.ID, found[0].ID)
}

func TestInventoryDecrement(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	inventory := repo.NewInventoryRepo(db)

	p := &repo.Product{ID: "gpu-1", Name: "RTX 4090", UnitPrice: decimal.RequireFromString("1599.99"), Stock: 3}
	require.NoError(t, inventory.Upsert(ctx, nil, p))

	require.NoError(t, inventory.DecrementStock(ctx, nil, "gpu-1", 2))
	stored, err := inventory.FindByID(ctx, "gpu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Stock)

	err = inventory.DecrementStock(ctx, nil, "gpu-1", 2)
	assert.ErrorIs(t, err, repo.ErrInsufficientStock)
}

func TestDeferredCheckoutIsAtomic(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	orders := repo.NewOrderRepo(db)
	inventory := repo.NewInventoryRepo(db)
	carts := repo.NewCartRepo(db)

	items := []domain.LineItem{
		{ID: "gpu-1", Name: "RTX 4090", UnitPrice: decimal.RequireFromString("1599.99"), Quantity: 1, StockAtOrderTime: 5},
		{ID: "gpu-2", Name: "RX 7900 XTX", UnitPrice: decimal.RequireFromString("949.50"), Quantity: 2, StockAtOrderTime: 1},
	}
	require.NoError(t, inventory.Upsert(ctx, nil, &repo.Product{ID: "gpu-1", Name: "RTX 4090", UnitPrice: decimal.RequireFromString("1599.99"), Stock: 5}))
	// only one unit in stock, the order wants two
	require.NoError(t, inventory.Upsert(ctx, nil, &repo.Product{ID: "gpu-2", Name: "RX 7900 XTX", UnitPrice: decimal.RequireFromString("949.50"), Stock: 1}))
	require.NoError(t, carts.Save(ctx, "cart-1", items))

	svc := service.NewCheckoutService(db, orders, inventory, carts, payment.NewMockGateway(),
		"https://shop.example/success", "https://shop.example/cancel")

	customer := domain.CustomerInfo{Name: "Jamie Doe", Email: "jamie@example.com", Phone: "555-0100", Address: "1 Demo Street"}

	_, err := svc.InitiateCheckout(ctx, service.CheckoutRequest{
		CartID:   "cart-1",
		Items:    items,
		Customer: customer,
		Method:   domain.PaymentMethodDeferred,
	})
	require.ErrorIs(t, err, repo.ErrInsufficientStock)

	// nothing moved: no order, stock untouched, cart still there
	all, err := orders.List(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, all)

	p1, _ := inventory.FindByID(ctx, "gpu-1")
	assert.Equal(t, 5, p1.Stock)

	saved, err := carts.Get(ctx, "cart-1")
	require.NoError(t, err)
	assert.Len(t, saved, 2)

	// fix the stock and retry; now everything commits together
	require.NoError(t, inventory.Upsert(ctx, nil, &repo.Product{ID: "gpu-2", Name: "RX 7900 XTX", UnitPrice: decimal.RequireFromString("949.50"), Stock: 2}))

	result, err := svc.InitiateCheckout(ctx, service.CheckoutRequest{
		CartID:   "cart-1",
		Items:    items,
		Customer: customer,
		Method:   domain.PaymentMethodDeferred,
	})
	require.NoError(t, err)
	assert.True(t, result.Order.Total.Equal(decimal.RequireFromString("3498.99")))

	p1, _ = inventory.FindByID(ctx, "gpu-1")
	assert.Equal(t, 4, p1.Stock)
	p2, _ := inventory.FindByID(ctx, "gpu-2")
	assert.Equal(t, 0, p2.Stock)

	saved, err = carts.Get(ctx, "cart-1")
	require.NoError(t, err)
	assert.Nil(t, saved)
}
