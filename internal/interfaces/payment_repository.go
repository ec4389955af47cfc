package interfaces

import (
	"context"
	"time"

	"github.com/13x54n/lypto-sub001/internal/payments"
)

// PaymentRepository defines the contract for payment data access.
type PaymentRepository interface {
	Create(ctx context.Context, payment *payments.Payment) error
	GetByID(ctx context.Context, id string) (*payments.Payment, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*payments.Payment, error)
	ListPendingByUser(ctx context.Context, userEmail string) ([]payments.Payment, error)

	// Resolve performs the single permitted status transition
	// pending -> confirmed|declined. It returns the updated record,
	// payments.ErrAlreadyProcessed if the record already reached a
	// terminal status, or payments.ErrNotFound.
	Resolve(ctx context.Context, id string, status payments.Status) (*payments.Payment, error)

	ListTransactionsByMerchant(ctx context.Context, merchantEmail string) ([]payments.Payment, error)
	StatsByMerchant(ctx context.Context, merchantEmail string, now time.Time) (*payments.MerchantStats, error)
}
