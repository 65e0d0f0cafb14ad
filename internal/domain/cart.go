package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartSnapshot is the finalized list of line items taken the moment checkout
// begins. It is immutable; the live cart may keep changing underneath it.
type CartSnapshot struct {
	CartID  string
	Items   []LineItem
	TakenAt time.Time
}

func SnapshotCart(cartID string, items []LineItem) CartSnapshot {
	frozen := make([]LineItem, len(items))
	copy(frozen, items)
	return CartSnapshot{CartID: cartID, Items: frozen, TakenAt: time.Now().UTC()}
}

func (cs CartSnapshot) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, li := range cs.Items {
		total = total.Add(li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	return total
}
