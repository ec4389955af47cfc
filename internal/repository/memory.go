package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/13x54n/lypto-sub001/internal/payments"
)

// MemoryRepository keeps payments in process memory with the same
// transition semantics as the Postgres store. It backs local
// development runs without a DATABASE_URL and the concurrency tests.
type MemoryRepository struct {
	mu   sync.Mutex
	byID map[string]*payments.Payment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*payments.Payment)}
}

func (r *MemoryRepository) Create(ctx context.Context, payment *payments.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *payment
	r.byID[payment.ID] = &clone
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*payments.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, payments.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *MemoryRepository) GetByIdempotencyKey(ctx context.Context, key string) (*payments.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.byID {
		if p.IdempotencyKey == key && key != "" {
			clone := *p
			return &clone, nil
		}
	}
	return nil, payments.ErrNotFound
}

func (r *MemoryRepository) ListPendingByUser(ctx context.Context, userEmail string) ([]payments.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []payments.Payment
	for _, p := range r.byID {
		if p.UserEmail == userEmail && p.Status == payments.StatusPending {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryRepository) Resolve(ctx context.Context, id string, status payments.Status) (*payments.Payment, error) {
	if !payments.ValidResolution(status) {
		return nil, payments.ErrInvalidStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, payments.ErrNotFound
	}
	if p.Status != payments.StatusPending {
		return nil, payments.ErrAlreadyProcessed
	}

	now := time.Now().UTC()
	p.Status = status
	p.ResolvedAt = &now

	clone := *p
	return &clone, nil
}

func (r *MemoryRepository) ListTransactionsByMerchant(ctx context.Context, merchantEmail string) ([]payments.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []payments.Payment
	for _, p := range r.byID {
		if p.MerchantEmail == merchantEmail && p.Status != payments.StatusPending {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		ri, rj := result[i].ResolvedAt, result[j].ResolvedAt
		switch {
		case ri == nil:
			return false
		case rj == nil:
			return true
		default:
			return ri.After(*rj)
		}
	})
	if len(result) > 100 {
		result = result[:100]
	}
	return result, nil
}

func (r *MemoryRepository) StatsByMerchant(ctx context.Context, merchantEmail string, now time.Time) (*payments.MerchantStats, error) {
	dayStart, weekStart, monthStart := WindowStarts(now)

	r.mu.Lock()
	defer r.mu.Unlock()

	stats := payments.MerchantStats{
		Today: payments.WindowStats{Total: decimal.Zero},
		Week:  payments.WindowStats{Total: decimal.Zero},
		Month: payments.WindowStats{Total: decimal.Zero},
	}
	for _, p := range r.byID {
		if p.MerchantEmail != merchantEmail || p.Status != payments.StatusConfirmed || p.ResolvedAt == nil {
			continue
		}
		at := p.ResolvedAt.UTC()
		if !at.Before(dayStart) {
			stats.Today.Count++
			stats.Today.Total = stats.Today.Total.Add(p.Amount)
		}
		if !at.Before(weekStart) {
			stats.Week.Count++
			stats.Week.Total = stats.Week.Total.Add(p.Amount)
		}
		if !at.Before(monthStart) {
			stats.Month.Count++
			stats.Month.Total = stats.Month.Total.Add(p.Amount)
		}
	}
	return &stats, nil
}
