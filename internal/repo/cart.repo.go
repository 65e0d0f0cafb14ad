package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"storefront-checkout/internal/domain"
)

// CartRepo holds server-side saved carts. The checkout orchestrator clears a
// cart inside the same transaction that materializes its order.
type CartRepo interface {
	Get(ctx context.Context, cartID string) ([]domain.LineItem, error)
	Save(ctx context.Context, cartID string, items []domain.LineItem) error
	Clear(ctx context.Context, tx *sql.Tx, cartID string) error
}

type cartRepo struct {
	db *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepo {
	return &cartRepo{db: db}
}

func (r *cartRepo) on(tx *sql.Tx) dbtx {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *cartRepo) Get(ctx context.Context, cartID string) ([]domain.LineItem, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT items FROM carts WHERE id = $1`, cartID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []domain.LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *cartRepo) Save(ctx context.Context, cartID string, items []domain.LineItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO carts (id, items, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET items = $2, updated_at = $3`,
		cartID, raw, time.Now().UTC(),
	)
	return err
}

func (r *cartRepo) Clear(ctx context.Context, tx *sql.Tx, cartID string) error {
	_, err := r.on(tx).ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	return err
}
