package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusDeclined  Status = "declined"
)

// ValidResolution reports whether s is a terminal status a pending
// payment may transition to.
func ValidResolution(s Status) bool {
	return s == StatusConfirmed || s == StatusDeclined
}

type Payment struct {
	ID             string          `json:"id"`
	MerchantEmail  string          `json:"merchantEmail"`
	UserID         string          `json:"userId"`
	UserEmail      string          `json:"userEmail"`
	Amount         decimal.Decimal `json:"amount"`
	Status         Status          `json:"status"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	ResolvedAt     *time.Time      `json:"resolvedAt,omitempty"`
}

type CreatePaymentRequest struct {
	UserID        string          `json:"userId" binding:"required"`
	UserEmail     string          `json:"userEmail" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	MerchantEmail string          `json:"merchantEmail" binding:"required"`
}

type ConfirmPaymentRequest struct {
	PaymentID string `json:"paymentId" binding:"required"`
	Status    Status `json:"status" binding:"required"`
}

// WindowStats is one aggregation bucket of the merchant stats endpoint.
type WindowStats struct {
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type MerchantStats struct {
	Today WindowStats `json:"today"`
	Week  WindowStats `json:"week"`
	Month WindowStats `json:"month"`
}
