package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"storefront-checkout/internal/domain"
)

type OrderRepo interface {
	Create(ctx context.Context, tx *sql.Tx, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindBySessionID(ctx context.Context, sessionID string) (*domain.Order, error)
	// List returns orders matching both filters in insertion order.
	// An empty or "all" filter matches everything.
	List(ctx context.Context, deliveryFilter, paymentFilter string) ([]domain.Order, error)
	UpdateDeliveryStatus(ctx context.Context, tx *sql.Tx, id string, status domain.DeliveryStatus) error
	UpdatePaymentStatus(ctx context.Context, tx *sql.Tx, id string, status domain.PaymentStatus) error
	// FindUnreconciled returns gateway orders still pending payment whose
	// last update is older than the cutoff.
	FindUnreconciled(ctx context.Context, olderThan time.Duration) ([]domain.Order, error)
}

type orderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepo {
	return &orderRepo{db: db}
}

// dbtx is satisfied by both *sql.DB and *sql.Tx, so repo methods can run
// inside a caller-owned transaction or directly against the pool (tx == nil).
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *orderRepo) on(tx *sql.Tx) dbtx {
	if tx != nil {
		return tx
	}
	return r.db
}

const orderColumns = `seq, id, created_at, updated_at, items, total,
	customer_name, customer_email, customer_phone, customer_address,
	payment_method, delivery_status, payment_status, checkout_session_id`

func (r *orderRepo) Create(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	row := r.on(tx).QueryRowContext(ctx,
		`INSERT INTO orders (id, created_at, updated_at, items, total,
			customer_name, customer_email, customer_phone, customer_address,
			payment_method, delivery_status, payment_status, checkout_session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING seq`,
		order.ID, order.CreatedAt, order.UpdatedAt, items, order.Total,
		order.Customer.Name, order.Customer.Email, order.Customer.Phone, order.Customer.Address,
		order.PaymentMethod, order.DeliveryStatus, order.PaymentStatus, order.CheckoutSessionID,
	)
	return row.Scan(&order.Seq)
}

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var (
		order domain.Order
		items []byte
	)
	err := row.Scan(
		&order.Seq,
		&order.ID,
		&order.CreatedAt,
		&order.UpdatedAt,
		&items,
		&order.Total,
		&order.Customer.Name,
		&order.Customer.Email,
		&order.Customer.Phone,
		&order.Customer.Address,
		&order.PaymentMethod,
		&order.DeliveryStatus,
		&order.PaymentStatus,
		&order.CheckoutSessionID,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepo) FindBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE checkout_session_id = $1`, sessionID)
	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepo) List(ctx context.Context, deliveryFilter, paymentFilter string) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE ($1 = '' OR $1 = 'all' OR delivery_status = $1)
		AND ($2 = '' OR $2 = 'all' OR payment_status = $2)
		ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, query, deliveryFilter, paymentFilter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

func (r *orderRepo) UpdateDeliveryStatus(ctx context.Context, tx *sql.Tx, id string, status domain.DeliveryStatus) error {
	res, err := r.on(tx).ExecContext(ctx,
		`UPDATE orders SET delivery_status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *orderRepo) UpdatePaymentStatus(ctx context.Context, tx *sql.Tx, id string, status domain.PaymentStatus) error {
	res, err := r.on(tx).ExecContext(ctx,
		`UPDATE orders SET payment_status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *orderRepo) FindUnreconciled(ctx context.Context, olderThan time.Duration) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		WHERE payment_method = $1 AND payment_status = $2
		AND checkout_session_id <> '' AND updated_at < $3
		ORDER BY seq`,
		domain.PaymentMethodGateway, domain.PaymentPending, time.Now().Add(-olderThan),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
