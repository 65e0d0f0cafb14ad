package payment

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockGateway is an in-memory stand-in for the hosted checkout service,
// used by tests and by cmd/simulate. Sessions start open; the simulated
// customer completes or abandons them via Complete/Expire.
type MockGateway struct {
	mu       sync.RWMutex
	sessions map[string]*SessionResult

	// FailCreate, when set, is returned by CreateSession as-is.
	FailCreate error
}

func NewMockGateway() *MockGateway {
	return &MockGateway{sessions: make(map[string]*SessionResult)}
}

func (g *MockGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if g.FailCreate != nil {
		return nil, g.FailCreate
	}

	id := SessionIDPrefix + "test_" + uuid.NewString()
	var total int64
	items := make([]SessionResultItem, len(req.Items))
	for i, li := range req.Items {
		line := li.UnitAmount * int64(li.Quantity)
		items[i] = SessionResultItem{Description: li.Name, Quantity: li.Quantity, AmountTotal: line}
		total += line
	}

	g.mu.Lock()
	g.sessions[id] = &SessionResult{
		ID:            id,
		Status:        "open",
		AmountTotal:   total,
		Currency:      "usd",
		CustomerEmail: req.CustomerEmail,
		LineItems:     items,
	}
	g.mu.Unlock()

	return &Session{ID: id, RedirectURL: "https://checkout.fastpay.test/pay/" + id}, nil
}

func (g *MockGateway) RetrieveSession(ctx context.Context, sessionID string) (*SessionResult, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *session
	copied.LineItems = append([]SessionResultItem(nil), session.LineItems...)
	return &copied, nil
}

// Complete marks a session paid, as the gateway would after the customer
// finishes the hosted form.
func (g *MockGateway) Complete(sessionID string) {
	g.setStatus(sessionID, "complete")
}

// Expire marks a session abandoned.
func (g *MockGateway) Expire(sessionID string) {
	g.setStatus(sessionID, "expired")
}

func (g *MockGateway) setStatus(sessionID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if session, ok := g.sessions[sessionID]; ok {
		session.Status = status
	}
}
