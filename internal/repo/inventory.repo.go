package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type Product struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Stock     int
}

type InventoryRepo interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	Upsert(ctx context.Context, tx *sql.Tx, p *Product) error
	// DecrementStock fails with ErrInsufficientStock when stock < qty,
	// which must abort the surrounding transaction.
	DecrementStock(ctx context.Context, tx *sql.Tx, productID string, qty int) error
}

type inventoryRepo struct {
	db *sql.DB
}

func NewInventoryRepo(db *sql.DB) InventoryRepo {
	return &inventoryRepo{db: db}
}

func (r *inventoryRepo) on(tx *sql.Tx) dbtx {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *inventoryRepo) FindByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, unit_price, stock FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.UnitPrice, &p.Stock)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *inventoryRepo) Upsert(ctx context.Context, tx *sql.Tx, p *Product) error {
	_, err := r.on(tx).ExecContext(ctx,
		`INSERT INTO products (id, name, unit_price, stock) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = $2, unit_price = $3, stock = $4`,
		p.ID, p.Name, p.UnitPrice, p.Stock,
	)
	return err
}

func (r *inventoryRepo) DecrementStock(ctx context.Context, tx *sql.Tx, productID string, qty int) error {
	res, err := r.on(tx).ExecContext(ctx,
		`UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`,
		productID, qty,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %s: %w", productID, ErrInsufficientStock)
	}
	return nil
}
