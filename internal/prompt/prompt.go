package prompt

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/13x54n/lypto-sub001/internal/payments"
	"github.com/13x54n/lypto-sub001/internal/telemetry"
)

type State string

const (
	StateIdle       State = "idle"
	StatePresented  State = "presented"
	StateSubmitting State = "submitting"
)

// Confirmer is the slice of the payment API the prompt needs.
type Confirmer interface {
	ConfirmPayment(ctx context.Context, paymentID string, status payments.Status) (*payments.Payment, error)
}

// Hooks surface prompt outcomes to the UI layer. OnSuccess carries
// the settled payment; OnRetryableError leaves the prompt presented
// so the user can try again.
type Hooks struct {
	OnSuccess        func(p payments.Payment)
	OnRetryableError func(id string, err error)
	OnClosed         func(id string)
}

// Prompt is the authorization prompt state machine. One payment is
// presented at a time; confirm and decline are single-flight, and
// decline requires an explicit second step before the call is issued.
type Prompt struct {
	confirmer Confirmer
	hooks     Hooks

	mu             sync.Mutex
	state          State
	payment        *payments.Payment
	declinePending bool
}

func New(confirmer Confirmer, hooks Hooks) *Prompt {
	return &Prompt{confirmer: confirmer, hooks: hooks, state: StateIdle}
}

func (pr *Prompt) State() State {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.state
}

// DeclinePending reports whether the destructive-action confirmation
// step is armed.
func (pr *Prompt) DeclinePending() bool {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.declinePending
}

// Present moves the prompt from Idle to Presented. It reports false
// when another payment is already on screen.
func (pr *Prompt) Present(p payments.Payment) bool {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.state != StateIdle {
		return false
	}
	pr.state = StatePresented
	pr.payment = &p
	pr.declinePending = false
	return true
}

// Dismiss closes the prompt without resolving, used when the poller
// noticed the payment was resolved elsewhere. An in-flight confirm
// call is not cancelled; its late result is discarded as stale.
func (pr *Prompt) Dismiss(id string) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.payment == nil || pr.payment.ID != id {
		return
	}
	pr.state = StateIdle
	pr.payment = nil
	pr.declinePending = false
}

// Confirm resolves the presented payment as confirmed. Ignored unless
// the prompt is in Presented, which also guards against a double-tap
// while a call is in flight.
func (pr *Prompt) Confirm(ctx context.Context) {
	pr.submit(ctx, payments.StatusConfirmed)
}

// Decline arms the destructive-action confirmation on first call.
// ConfirmDecline issues the actual resolution.
func (pr *Prompt) Decline() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.state != StatePresented {
		return
	}
	pr.declinePending = true
}

func (pr *Prompt) CancelDecline() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.declinePending = false
}

func (pr *Prompt) ConfirmDecline(ctx context.Context) {
	pr.mu.Lock()
	armed := pr.declinePending
	pr.mu.Unlock()
	if !armed {
		return
	}
	pr.submit(ctx, payments.StatusDeclined)
}

func (pr *Prompt) submit(ctx context.Context, status payments.Status) {
	pr.mu.Lock()
	if pr.state != StatePresented || pr.payment == nil {
		pr.mu.Unlock()
		return
	}
	pr.state = StateSubmitting
	pr.declinePending = false
	submitted := *pr.payment
	pr.mu.Unlock()

	resolved, err := pr.confirmer.ConfirmPayment(ctx, submitted.ID, status)

	pr.mu.Lock()
	// The prompt may have been dismissed while the call was in
	// flight; a stale result must not disturb the current state.
	stale := pr.payment == nil || pr.payment.ID != submitted.ID

	switch {
	case err == nil:
		if !stale {
			pr.state = StateIdle
			pr.payment = nil
		}
		pr.mu.Unlock()
		if !stale && pr.hooks.OnSuccess != nil && resolved != nil {
			pr.hooks.OnSuccess(*resolved)
		}
		if pr.hooks.OnClosed != nil {
			pr.hooks.OnClosed(submitted.ID)
		}

	case errors.Is(err, payments.ErrAlreadyProcessed):
		// Someone else resolved it first; success-equivalent, close
		// silently.
		if !stale {
			pr.state = StateIdle
			pr.payment = nil
		}
		pr.mu.Unlock()
		if pr.hooks.OnClosed != nil {
			pr.hooks.OnClosed(submitted.ID)
		}

	default:
		if !stale {
			pr.state = StatePresented
		}
		pr.mu.Unlock()
		telemetry.Logger.Warn("Payment resolution failed",
			zap.String("payment_id", submitted.ID),
			zap.Error(err),
		)
		if !stale && pr.hooks.OnRetryableError != nil {
			pr.hooks.OnRetryableError(submitted.ID, err)
		}
	}
}
