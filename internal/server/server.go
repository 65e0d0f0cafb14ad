package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront-checkout/internal/database"
	"storefront-checkout/internal/metrics"
	"storefront-checkout/internal/service"
)

type Server struct {
	checkout service.CheckoutService
	sessions service.SessionService
	admin    service.AdminService
	health   database.Service
	metrics  *metrics.ServerMetrics
}

func New(
	checkout service.CheckoutService,
	sessions service.SessionService,
	admin service.AdminService,
	health database.Service,
	m *metrics.ServerMetrics,
) *Server {
	return &Server{
		checkout: checkout,
		sessions: sessions,
		admin:    admin,
		health:   health,
		metrics:  m,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if s.metrics != nil {
		r.Use(s.recordMetrics())
	}

	api := r.Group("/api")
	{
		api.POST("/checkout", s.handleDeferredCheckout)
		api.POST("/checkout/session", s.handleCreateSession)
		api.GET("/checkout/session", s.handleResolveSession)

		admin := api.Group("/admin")
		{
			admin.GET("/orders", s.handleListOrders)
			admin.PATCH("/orders/:id/delivery-status", s.handleSetDeliveryStatus)
			admin.PATCH("/orders/:id/payment-status", s.handleSetPaymentStatus)
			admin.GET("/summary", s.handleSummary)
		}
	}

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	return r
}

func (s *Server) recordMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		handler := c.FullPath()
		if handler == "" {
			handler = "unknown"
		}
		s.metrics.Requests.WithLabelValues(handler, statusLabel(c.Writer.Status())).Inc()
		s.metrics.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
	}
}

func statusLabel(code int) string {
	switch {
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(200, s.health.Health())
}
