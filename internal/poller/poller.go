package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/13x54n/lypto-sub001/internal/payments"
	"github.com/13x54n/lypto-sub001/internal/telemetry"
)

// Lister is the slice of the payment API the poller needs.
type Lister interface {
	ListPendingPayments(ctx context.Context, userEmail string) ([]payments.Payment, error)
}

// Hooks receive poller decisions. OnPresent fires once per surfaced
// payment, together with Alert; OnDismiss fires when the active
// payment was resolved somewhere else (push quick action, another
// device) and the prompt should close.
type Hooks struct {
	OnPresent func(p payments.Payment)
	OnDismiss func(id string)
	Alert     func()
}

// Poller discovers pending payments for one authenticated customer
// session. At most one payment is surfaced at a time, and an id that
// was surfaced once is never surfaced again within the session.
type Poller struct {
	lister    Lister
	userEmail string
	interval  time.Duration
	hooks     Hooks

	mu     sync.Mutex
	active *payments.Payment
	shown  map[string]struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

func New(lister Lister, userEmail string, interval time.Duration, hooks Hooks) *Poller {
	return &Poller{
		lister:    lister,
		userEmail: userEmail,
		interval:  interval,
		hooks:     hooks,
		shown:     make(map[string]struct{}),
	}
}

// Start launches the polling loop. It is a no-op if already running.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	done := make(chan struct{})
	p.done = done

	// The goroutine owns its channel; Stop nils p.done under the
	// mutex, so run must not read the field back.
	go p.run(ctx, done)
}

// Stop tears the loop down and resets session state. Safe to call on
// logout regardless of whether the loop is running.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	p.mu.Lock()
	p.active = nil
	p.shown = make(map[string]struct{})
	p.mu.Unlock()
}

// Active returns the payment currently awaiting user action, or nil.
func (p *Poller) Active() *payments.Payment {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return nil
	}
	clone := *p.active
	return &clone
}

// ClearActive drops the active payment once the prompt resolved it.
// The id guard keeps a stale prompt callback from clearing a payment
// surfaced later.
func (p *Poller) ClearActive(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != nil && p.active.ID == id {
		p.active = nil
	}
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	pending, err := p.lister.ListPendingPayments(ctx, p.userEmail)
	if err != nil {
		// Transient failures are swallowed; the next tick retries.
		telemetry.Logger.Warn("Pending payments poll failed",
			zap.String("user_email", p.userEmail),
			zap.Error(err),
		)
		return
	}

	var (
		dismissed string
		surfaced  *payments.Payment
	)

	p.mu.Lock()
	if p.active != nil && !containsID(pending, p.active.ID) {
		// Resolved externally (push quick action, another device).
		dismissed = p.active.ID
		p.active = nil
	}
	// Single-flight: while a payment is surfaced, nothing new is,
	// even when more are pending.
	if p.active == nil {
		for i := range pending {
			if _, seen := p.shown[pending[i].ID]; seen {
				continue
			}
			clone := pending[i]
			p.shown[clone.ID] = struct{}{}
			p.active = &clone
			surfaced = &clone
			break
		}
	}
	p.mu.Unlock()

	if dismissed != "" && p.hooks.OnDismiss != nil {
		p.hooks.OnDismiss(dismissed)
	}
	if surfaced != nil {
		telemetry.PollerSurfaced.Inc()
		if p.hooks.Alert != nil {
			p.hooks.Alert()
		}
		if p.hooks.OnPresent != nil {
			p.hooks.OnPresent(*surfaced)
		}
	}
}

func containsID(list []payments.Payment, id string) bool {
	for i := range list {
		if list[i].ID == id {
			return true
		}
	}
	return false
}
