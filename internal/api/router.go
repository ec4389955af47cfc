package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/13x54n/lypto-sub001/internal/events"
	"github.com/13x54n/lypto-sub001/internal/handlers"
	"github.com/13x54n/lypto-sub001/internal/interfaces"
	"github.com/13x54n/lypto-sub001/internal/middleware"
	"github.com/13x54n/lypto-sub001/internal/telemetry"
)

func NewRouter(paymentRepo interfaces.PaymentRepository, redisClient *redis.Client, publisher *events.Publisher) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "status": "ok", "service": "payment-service"})
	})

	// Merchant payment routes
	paymentHandler := handlers.NewPaymentHandler(paymentRepo, redisClient, publisher)
	merchant := r.Group("/api/merchant")
	{
		merchant.POST("/create-payment", middleware.IdempotencyMiddleware(redisClient, paymentRepo), paymentHandler.CreatePayment)
		merchant.GET("/pending-payments", paymentHandler.PendingPayments)
		merchant.POST("/confirm-payment", paymentHandler.ConfirmPayment)
		merchant.GET("/transactions", paymentHandler.Transactions)
		merchant.GET("/stats", paymentHandler.Stats)
	}

	return r
}
