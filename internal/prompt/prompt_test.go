package prompt

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/13x54n/lypto-sub001/internal/payments"
	"github.com/13x54n/lypto-sub001/internal/telemetry"
)

func TestMain(m *testing.M) {
	telemetry.Logger = zap.NewNop()
	os.Exit(m.Run())
}

type mockConfirmer struct {
	mu          sync.Mutex
	calls       []payments.Status
	ConfirmFunc func(ctx context.Context, paymentID string, status payments.Status) (*payments.Payment, error)
}

func (m *mockConfirmer) ConfirmPayment(ctx context.Context, paymentID string, status payments.Status) (*payments.Payment, error) {
	m.mu.Lock()
	m.calls = append(m.calls, status)
	m.mu.Unlock()
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, paymentID, status)
	}
	resolved := payments.Payment{ID: paymentID, Status: status, Amount: decimal.RequireFromString("25.50")}
	return &resolved, nil
}

func (m *mockConfirmer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func testPayment(id string) payments.Payment {
	return payments.Payment{ID: id, Status: payments.StatusPending, Amount: decimal.RequireFromString("25.50")}
}

func TestPresentOnlyFromIdle(t *testing.T) {
	pr := New(&mockConfirmer{}, Hooks{})

	if !pr.Present(testPayment("a")) {
		t.Fatal("Present from Idle should succeed")
	}
	if pr.State() != StatePresented {
		t.Fatalf("state = %s, want presented", pr.State())
	}
	if pr.Present(testPayment("b")) {
		t.Fatal("Present while presented must be rejected")
	}
}

func TestConfirmSuccess(t *testing.T) {
	var succeeded *payments.Payment
	var closed []string
	c := &mockConfirmer{}
	pr := New(c, Hooks{
		OnSuccess: func(p payments.Payment) { succeeded = &p },
		OnClosed:  func(id string) { closed = append(closed, id) },
	})

	pr.Present(testPayment("a"))
	pr.Confirm(context.Background())

	if pr.State() != StateIdle {
		t.Fatalf("state = %s, want idle", pr.State())
	}
	if succeeded == nil || succeeded.Status != payments.StatusConfirmed {
		t.Fatalf("success hook = %+v, want confirmed payment", succeeded)
	}
	if !succeeded.Amount.Equal(decimal.RequireFromString("25.50")) {
		t.Errorf("settled amount = %s, want 25.50", succeeded.Amount)
	}
	if len(closed) != 1 || closed[0] != "a" {
		t.Errorf("closed = %v, want [a]", closed)
	}
}

func TestConfirmIgnoredWhileSubmitting(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	c := &mockConfirmer{}
	c.ConfirmFunc = func(ctx context.Context, paymentID string, status payments.Status) (*payments.Payment, error) {
		close(started)
		<-release
		return &payments.Payment{ID: paymentID, Status: status}, nil
	}
	pr := New(c, Hooks{})
	pr.Present(testPayment("a"))

	go pr.Confirm(context.Background())
	<-started

	// Double-tap while the first call is in flight.
	pr.Confirm(context.Background())
	pr.Decline()
	pr.ConfirmDecline(context.Background())

	close(release)

	deadline := time.Now().Add(2 * time.Second)
	for pr.State() != StateIdle && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if got := c.callCount(); got != 1 {
		t.Fatalf("confirm calls = %d, want 1 (re-entrancy guard)", got)
	}
}

func TestAlreadyProcessedClosesSilently(t *testing.T) {
	var succeeded, errored bool
	var closed []string
	c := &mockConfirmer{}
	c.ConfirmFunc = func(ctx context.Context, paymentID string, status payments.Status) (*payments.Payment, error) {
		return nil, payments.ErrAlreadyProcessed
	}
	pr := New(c, Hooks{
		OnSuccess:        func(p payments.Payment) { succeeded = true },
		OnRetryableError: func(id string, err error) { errored = true },
		OnClosed:         func(id string) { closed = append(closed, id) },
	})

	pr.Present(testPayment("a"))
	pr.Confirm(context.Background())

	if pr.State() != StateIdle {
		t.Fatalf("state = %s, want idle", pr.State())
	}
	if succeeded || errored {
		t.Errorf("succeeded = %v errored = %v, want both false (silent close)", succeeded, errored)
	}
	if len(closed) != 1 {
		t.Errorf("closed = %v, want [a]", closed)
	}
}

func TestNetworkErrorReturnsToPresented(t *testing.T) {
	var retryable int
	c := &mockConfirmer{}
	c.ConfirmFunc = func(ctx context.Context, paymentID string, status payments.Status) (*payments.Payment, error) {
		if len(c.calls) == 1 {
			return nil, errors.New("connection reset")
		}
		return &payments.Payment{ID: paymentID, Status: status}, nil
	}
	pr := New(c, Hooks{
		OnRetryableError: func(id string, err error) { retryable++ },
	})

	pr.Present(testPayment("a"))
	pr.Confirm(context.Background())

	if pr.State() != StatePresented {
		t.Fatalf("state after failure = %s, want presented (user may retry)", pr.State())
	}
	if retryable != 1 {
		t.Fatalf("retryable errors = %d, want 1", retryable)
	}

	// Explicit user retry succeeds.
	pr.Confirm(context.Background())
	if pr.State() != StateIdle {
		t.Fatalf("state after retry = %s, want idle", pr.State())
	}
}

func TestDeclineRequiresSecondStep(t *testing.T) {
	c := &mockConfirmer{}
	pr := New(c, Hooks{})
	pr.Present(testPayment("a"))

	// First tap only arms the destructive-action confirmation.
	pr.Decline()
	if c.callCount() != 0 {
		t.Fatal("Decline must not issue the call before confirmation")
	}
	if !pr.DeclinePending() {
		t.Fatal("decline confirmation not armed")
	}

	// Backing out disarms it.
	pr.CancelDecline()
	pr.ConfirmDecline(context.Background())
	if c.callCount() != 0 {
		t.Fatal("ConfirmDecline after cancel must be a no-op")
	}

	pr.Decline()
	pr.ConfirmDecline(context.Background())
	if c.callCount() != 1 {
		t.Fatalf("confirm calls = %d, want 1", c.callCount())
	}
	if c.calls[0] != payments.StatusDeclined {
		t.Errorf("status = %s, want declined", c.calls[0])
	}
	if pr.State() != StateIdle {
		t.Fatalf("state = %s, want idle", pr.State())
	}
}

func TestStaleResponseAfterDismissal(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var succeeded bool
	c := &mockConfirmer{}
	c.ConfirmFunc = func(ctx context.Context, paymentID string, status payments.Status) (*payments.Payment, error) {
		close(started)
		<-release
		return &payments.Payment{ID: paymentID, Status: status}, nil
	}
	pr := New(c, Hooks{
		OnSuccess: func(p payments.Payment) { succeeded = true },
	})

	pr.Present(testPayment("a"))

	done := make(chan struct{})
	go func() {
		pr.Confirm(context.Background())
		close(done)
	}()
	<-started

	// The poller noticed "a" resolved elsewhere and dismissed the
	// prompt while the confirm call was still in flight.
	pr.Dismiss("a")
	if pr.State() != StateIdle {
		t.Fatalf("state after dismiss = %s, want idle", pr.State())
	}

	// Present the next payment before the stale response lands.
	pr.Present(testPayment("b"))

	close(release)
	<-done

	// The stale result must not disturb the new prompt or fire the
	// success hook for the dismissed payment.
	if pr.State() != StatePresented {
		t.Fatalf("state = %s, want presented (payment b untouched)", pr.State())
	}
	if succeeded {
		t.Error("stale response fired the success hook")
	}
}

func TestDismissGuardsOnID(t *testing.T) {
	pr := New(&mockConfirmer{}, Hooks{})
	pr.Present(testPayment("a"))

	pr.Dismiss("other")
	if pr.State() != StatePresented {
		t.Fatal("Dismiss with a different id must not close the prompt")
	}

	pr.Dismiss("a")
	if pr.State() != StateIdle {
		t.Fatal("Dismiss did not close the prompt")
	}
}
