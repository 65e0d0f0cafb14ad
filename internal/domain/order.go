package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodGateway  PaymentMethod = "gateway"
	PaymentMethodDeferred PaymentMethod = "deferred"
)

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryShipped   DeliveryStatus = "shipped"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// LineItem is one cart entry frozen at order-creation time.
type LineItem struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Quantity         int             `json:"quantity"`
	StockAtOrderTime int             `json:"stock_at_order_time"`
}

// MinorUnits converts the unit price to integer cents using banker's
// rounding, which is what the hosted gateway expects (19.995 -> 2000).
func (li LineItem) MinorUnits() int64 {
	return li.UnitPrice.Mul(decimal.NewFromInt(100)).RoundBank(0).IntPart()
}

func (li LineItem) Validate() error {
	if li.Name == "" {
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("line item %q has no name", li.ID)}
	}
	if li.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Reason: fmt.Sprintf("line item %q has non-positive quantity %d", li.Name, li.Quantity)}
	}
	if !li.UnitPrice.IsPositive() {
		return &ValidationError{Field: "unit_price", Reason: fmt.Sprintf("line item %q has non-positive unit price %s", li.Name, li.UnitPrice)}
	}
	return nil
}

type CustomerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (ci CustomerInfo) Validate() error {
	fields := []struct{ name, value string }{
		{"name", ci.Name},
		{"email", ci.Email},
		{"phone", ci.Phone},
		{"address", ci.Address},
	}
	for _, f := range fields {
		if f.value == "" {
			return &ValidationError{Field: f.name, Reason: "customer " + f.name + " is required"}
		}
	}
	return nil
}

type Order struct {
	ID                string          `json:"id"`
	Seq               int64           `json:"-"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Items             []LineItem      `json:"items"`
	Total             decimal.Decimal `json:"total"`
	Customer          CustomerInfo    `json:"customer_info"`
	PaymentMethod     PaymentMethod   `json:"payment_method"`
	DeliveryStatus    DeliveryStatus  `json:"delivery_status"`
	PaymentStatus     PaymentStatus   `json:"payment_status"`
	CheckoutSessionID string          `json:"checkout_session_id,omitempty"`
}

// NewOrder builds an order from a cart snapshot. Total is always derived
// from the items here; nothing else ever writes it.
func NewOrder(items []LineItem, customer CustomerInfo, method PaymentMethod) (*Order, error) {
	if len(items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "cart is empty"}
	}
	for _, li := range items {
		if err := li.Validate(); err != nil {
			return nil, err
		}
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	total := decimal.Zero
	frozen := make([]LineItem, len(items))
	for i, li := range items {
		frozen[i] = li
		total = total.Add(li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}

	now := time.Now().UTC()
	return &Order{
		ID:             "order_" + uuid.NewString(),
		CreatedAt:      now,
		UpdatedAt:      now,
		Items:          frozen,
		Total:          total,
		Customer:       customer,
		PaymentMethod:  method,
		DeliveryStatus: DeliveryPending,
		PaymentStatus:  PaymentPending,
	}, nil
}

func ParseDeliveryStatus(s string) (DeliveryStatus, error) {
	switch DeliveryStatus(s) {
	case DeliveryPending, DeliveryShipped, DeliveryDelivered, DeliveryCancelled:
		return DeliveryStatus(s), nil
	}
	return "", &ValidationError{Field: "delivery_status", Reason: "unknown delivery status " + s}
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentPaid, PaymentFailed:
		return PaymentStatus(s), nil
	}
	return "", &ValidationError{Field: "payment_status", Reason: "unknown payment status " + s}
}
