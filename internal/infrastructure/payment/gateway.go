package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SessionIDPrefix is the hosted gateway's checkout-session identifier
// convention. Anything else is rejected before a network call is made.
const SessionIDPrefix = "cs_"

func ValidSessionID(id string) bool {
	return strings.HasPrefix(id, SessionIDPrefix)
}

// ErrSessionNotFound means the gateway does not know the session id.
var ErrSessionNotFound = errors.New("payment session not found")

// GatewayError is a domain error reported by the gateway itself (e.g. an
// invalid card). Its message is surfaced to the end user verbatim.
type GatewayError struct {
	Message string
}

func (e *GatewayError) Error() string {
	return "gateway: " + e.Message
}

// NetworkError is a transport failure (timeout, refused connection). The
// caller may retry; the client itself never does.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "gateway network failure: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

type SessionLineItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UnitAmount  int64  `json:"unit_amount"`
	Quantity    int    `json:"quantity"`
}

type SessionRequest struct {
	Items         []SessionLineItem `json:"items"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type Session struct {
	ID          string `json:"id"`
	RedirectURL string `json:"url"`
}

type SessionResultItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	AmountTotal int64  `json:"amount_total"`
}

// SessionResult is the gateway's view of a session after the customer comes
// back from the redirect. This system only reads it.
type SessionResult struct {
	ID            string              `json:"id"`
	Status        string              `json:"status"` // open, complete, expired
	AmountTotal   int64               `json:"amount_total"`
	Currency      string              `json:"currency"`
	CustomerEmail string              `json:"customer_email"`
	LineItems     []SessionResultItem `json:"line_items"`
}

type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*SessionResult, error)
}

type httpGateway struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewHTTPGateway returns a Gateway speaking JSON to the hosted checkout
// service. The timeout is the single fixed deadline for every call.
func NewHTTPGateway(baseURL, secretKey string, timeout time.Duration) Gateway {
	return &httpGateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

func (g *httpGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, gatewayFailure(resp)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, &GatewayError{Message: "malformed session response: " + err.Error()}
	}
	return &session, nil
}

func (g *httpGateway) RetrieveSession(ctx context.Context, sessionID string) (*SessionResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL+"/v1/checkout/sessions/"+sessionID+"?expand=line_items", nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", sessionID, ErrSessionNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, gatewayFailure(resp)
	}

	var result SessionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &GatewayError{Message: "malformed session response: " + err.Error()}
	}
	return &result, nil
}

func gatewayFailure(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error.Message != "" {
		return &GatewayError{Message: payload.Error.Message}
	}
	return &GatewayError{Message: fmt.Sprintf("gateway returned status %d", resp.StatusCode)}
}
