package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/13x54n/lypto-sub001/internal/payments"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS payments (
			id VARCHAR(255) PRIMARY KEY,
			merchant_email VARCHAR(255) NOT NULL,
			user_id VARCHAR(255) NOT NULL,
			user_email VARCHAR(255) NOT NULL,
			amount DECIMAL(15,2) NOT NULL,
			status VARCHAR(50) NOT NULL,
			idempotency_key VARCHAR(255) UNIQUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			resolved_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_user_email ON payments(user_email)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_merchant_email ON payments(merchant_email)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_idempotency_key ON payments(idempotency_key)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

const paymentColumns = `id, merchant_email, user_id, user_email, amount, status, COALESCE(idempotency_key, ''), created_at, resolved_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (*payments.Payment, error) {
	var p payments.Payment
	var resolvedAt sql.NullTime
	err := row.Scan(&p.ID, &p.MerchantEmail, &p.UserID, &p.UserEmail,
		&p.Amount, &p.Status, &p.IdempotencyKey, &p.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		p.ResolvedAt = &resolvedAt.Time
	}
	return &p, nil
}

func (r *PaymentRepository) Create(ctx context.Context, payment *payments.Payment) error {
	key := sql.NullString{String: payment.IdempotencyKey, Valid: payment.IdempotencyKey != ""}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, merchant_email, user_id, user_email, amount, status, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, payment.ID, payment.MerchantEmail, payment.UserID, payment.UserEmail,
		payment.Amount, payment.Status, key, payment.CreatedAt)
	return err
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*payments.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payments.ErrNotFound
	}
	return p, err
}

func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*payments.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE idempotency_key = $1
	`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payments.ErrNotFound
	}
	return p, err
}

func (r *PaymentRepository) ListPendingByUser(ctx context.Context, userEmail string) ([]payments.Payment, error) {
	return r.list(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE user_email = $1 AND status = 'pending'
		ORDER BY created_at ASC
	`, userEmail)
}

// Resolve transitions a pending payment to a terminal status. The
// UPDATE only matches rows still pending, so concurrent resolutions
// race on the database and exactly one wins.
func (r *PaymentRepository) Resolve(ctx context.Context, id string, status payments.Status) (*payments.Payment, error) {
	if !payments.ValidResolution(status) {
		return nil, payments.ErrInvalidStatus
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = $1, resolved_at = NOW() AT TIME ZONE 'utc'
		WHERE id = $2 AND status = 'pending'
	`, status, id)
	if err != nil {
		return nil, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, payments.ErrAlreadyProcessed
	}

	return r.GetByID(ctx, id)
}

func (r *PaymentRepository) ListTransactionsByMerchant(ctx context.Context, merchantEmail string) ([]payments.Payment, error) {
	return r.list(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE merchant_email = $1 AND status IN ('confirmed', 'declined')
		ORDER BY resolved_at DESC
		LIMIT 100
	`, merchantEmail)
}

func (r *PaymentRepository) StatsByMerchant(ctx context.Context, merchantEmail string, now time.Time) (*payments.MerchantStats, error) {
	dayStart, weekStart, monthStart := WindowStarts(now)

	var stats payments.MerchantStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE resolved_at >= $2),
			COALESCE(SUM(amount) FILTER (WHERE resolved_at >= $2), 0),
			COUNT(*) FILTER (WHERE resolved_at >= $3),
			COALESCE(SUM(amount) FILTER (WHERE resolved_at >= $3), 0),
			COUNT(*) FILTER (WHERE resolved_at >= $4),
			COALESCE(SUM(amount) FILTER (WHERE resolved_at >= $4), 0)
		FROM payments
		WHERE merchant_email = $1 AND status = 'confirmed'
	`, merchantEmail, dayStart, weekStart, monthStart).Scan(
		&stats.Today.Count, &stats.Today.Total,
		&stats.Week.Count, &stats.Week.Total,
		&stats.Month.Count, &stats.Month.Total,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...interface{}) ([]payments.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []payments.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}
