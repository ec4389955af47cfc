package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/13x54n/lypto-sub001/internal/events"
	"github.com/13x54n/lypto-sub001/internal/interfaces"
	"github.com/13x54n/lypto-sub001/internal/payments"
	"github.com/13x54n/lypto-sub001/internal/telemetry"
)

type PaymentHandler struct {
	repo        interfaces.PaymentRepository
	redisClient *redis.Client
	publisher   *events.Publisher
}

func NewPaymentHandler(repo interfaces.PaymentRepository, redisClient *redis.Client, publisher *events.Publisher) *PaymentHandler {
	return &PaymentHandler{
		repo:        repo,
		redisClient: redisClient,
		publisher:   publisher,
	}
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"success": false, "error": message, "code": code})
}

func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	ctx := c.Request.Context()
	span := trace.SpanFromContext(ctx)

	var req payments.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		telemetry.Logger.Warn("Invalid payment request", zap.Error(err))
		errorJSON(c, http.StatusBadRequest, payments.CodeValidation, err.Error())
		return
	}

	if !req.Amount.IsPositive() {
		errorJSON(c, http.StatusBadRequest, payments.CodeValidation, "amount must be greater than zero")
		return
	}

	payment := payments.Payment{
		ID:             uuid.New().String(),
		MerchantEmail:  req.MerchantEmail,
		UserID:         req.UserID,
		UserEmail:      req.UserEmail,
		Amount:         req.Amount,
		Status:         payments.StatusPending,
		IdempotencyKey: c.GetString("idempotency_key"),
		CreatedAt:      time.Now().UTC(),
	}

	telemetry.Logger.Info("Creating payment request",
		zap.String("payment_id", payment.ID),
		zap.String("merchant_email", payment.MerchantEmail),
		zap.String("user_email", payment.UserEmail),
		zap.String("amount", payment.Amount.String()),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	if err := h.repo.Create(ctx, &payment); err != nil {
		telemetry.Logger.Error("Failed to save payment to store",
			zap.String("payment_id", payment.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create payment"})
		return
	}

	if h.redisClient != nil && payment.IdempotencyKey != "" {
		paymentJSON, _ := json.Marshal(payment)
		h.redisClient.Set(ctx, fmt.Sprintf("idempotency:%s", payment.IdempotencyKey), paymentJSON, 24*time.Hour)
	}

	h.publisher.PaymentRequested(ctx, &payment)
	telemetry.PaymentsCreated.Inc()

	c.JSON(http.StatusCreated, gin.H{"success": true, "paymentId": payment.ID})
}

func (h *PaymentHandler) PendingPayments(c *gin.Context) {
	userEmail := c.Query("userEmail")
	if userEmail == "" {
		errorJSON(c, http.StatusBadRequest, payments.CodeValidation, "userEmail is required")
		return
	}

	pending, err := h.repo.ListPendingByUser(c.Request.Context(), userEmail)
	if err != nil {
		telemetry.Logger.Error("Failed to list pending payments",
			zap.String("user_email", userEmail),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch pending payments"})
		return
	}

	if pending == nil {
		pending = []payments.Payment{}
	}
	c.JSON(http.StatusOK, gin.H{"payments": pending, "count": len(pending)})
}

func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	ctx := c.Request.Context()

	var req payments.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, payments.CodeValidation, err.Error())
		return
	}

	payment, err := h.repo.Resolve(ctx, req.PaymentID, req.Status)
	switch {
	case err == nil:
	case errors.Is(err, payments.ErrInvalidStatus):
		errorJSON(c, http.StatusBadRequest, payments.CodeInvalidStatus, err.Error())
		return
	case errors.Is(err, payments.ErrNotFound):
		errorJSON(c, http.StatusNotFound, payments.CodeNotFound, "Payment not found")
		return
	case errors.Is(err, payments.ErrAlreadyProcessed):
		telemetry.DuplicateResolutions.Inc()
		errorJSON(c, http.StatusConflict, payments.CodeAlreadyProcessed, "Payment already processed")
		return
	default:
		telemetry.Logger.Error("Failed to resolve payment",
			zap.String("payment_id", req.PaymentID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to confirm payment"})
		return
	}

	telemetry.Logger.Info("Payment resolved",
		zap.String("payment_id", payment.ID),
		zap.String("status", string(payment.Status)),
	)

	h.publisher.PaymentResolved(ctx, payment)
	telemetry.PaymentsResolved.WithLabelValues(string(payment.Status)).Inc()

	c.JSON(http.StatusOK, gin.H{"success": true, "payment": payment})
}

func (h *PaymentHandler) Transactions(c *gin.Context) {
	merchantEmail := c.Query("merchantEmail")
	if merchantEmail == "" {
		errorJSON(c, http.StatusBadRequest, payments.CodeValidation, "merchantEmail is required")
		return
	}

	transactions, err := h.repo.ListTransactionsByMerchant(c.Request.Context(), merchantEmail)
	if err != nil {
		telemetry.Logger.Error("Failed to list transactions",
			zap.String("merchant_email", merchantEmail),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch transactions"})
		return
	}

	if transactions == nil {
		transactions = []payments.Payment{}
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "count": len(transactions)})
}

func (h *PaymentHandler) Stats(c *gin.Context) {
	merchantEmail := c.Query("merchantEmail")
	if merchantEmail == "" {
		errorJSON(c, http.StatusBadRequest, payments.CodeValidation, "merchantEmail is required")
		return
	}

	stats, err := h.repo.StatsByMerchant(c.Request.Context(), merchantEmail, time.Now().UTC())
	if err != nil {
		telemetry.Logger.Error("Failed to compute merchant stats",
			zap.String("merchant_email", merchantEmail),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
