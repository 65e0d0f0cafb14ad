package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/infrastructure/payment"
	"storefront-checkout/internal/service"
)

type checkoutItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Stock    int             `json:"stock"`
}

type checkoutRequest struct {
	CartID       string              `json:"cartId"`
	Items        []checkoutItem      `json:"items"`
	CustomerInfo domain.CustomerInfo `json:"customerInfo"`
}

func (req checkoutRequest) toService(method domain.PaymentMethod) service.CheckoutRequest {
	items := make([]domain.LineItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = domain.LineItem{
			ID:               it.ID,
			Name:             it.Name,
			UnitPrice:        it.Price,
			Quantity:         it.Quantity,
			StockAtOrderTime: it.Stock,
		}
	}
	return service.CheckoutRequest{
		CartID:   req.CartID,
		Items:    items,
		Customer: req.CustomerInfo,
		Method:   method,
	}
}

// handleCreateSession starts the hosted-gateway flow and hands back the
// redirect URL. The order is recorded pending; payment settles on return.
func (s *Server) handleCreateSession(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := s.checkout.InitiateCheckout(c.Request.Context(), req.toService(domain.PaymentMethodGateway))
	if err != nil {
		s.renderCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": result.SessionID,
		"url":       result.RedirectURL,
		"orderId":   result.Order.ID,
	})
}

// handleDeferredCheckout finalizes a pay-on-delivery order synchronously.
func (s *Server) handleDeferredCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := s.checkout.InitiateCheckout(c.Request.Context(), req.toService(domain.PaymentMethodDeferred))
	if err != nil {
		s.renderCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": result.Order})
}

// handleResolveSession returns the gateway's view of a finished session.
// Reconciliation failures degrade to a placeholder view: the customer just
// paid, so this endpoint never turns that into an error page.
func (s *Server) handleResolveSession(c *gin.Context) {
	sessionID := c.Query("session_id")

	view, err := s.sessions.ResolveSession(c.Request.Context(), sessionID)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason})
			return
		}
		c.JSON(http.StatusOK, domain.PlaceholderView(sessionID))
		return
	}

	c.JSON(http.StatusOK, view)
}

func (s *Server) renderCheckoutError(c *gin.Context, err error) {
	var (
		vErr *domain.ValidationError
		gErr *payment.GatewayError
		nErr *payment.NetworkError
	)
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason})
	case errors.As(err, &gErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": gErr.Message})
	case errors.As(err, &nErr):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "payment service unreachable, please try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error: " + err.Error()})
	}
}
