package poller

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/13x54n/lypto-sub001/internal/payments"
	"github.com/13x54n/lypto-sub001/internal/telemetry"
)

func TestMain(m *testing.M) {
	telemetry.Logger = zap.NewNop()
	os.Exit(m.Run())
}

type mockLister struct {
	ListFunc func(ctx context.Context, userEmail string) ([]payments.Payment, error)
}

func (m *mockLister) ListPendingPayments(ctx context.Context, userEmail string) ([]payments.Payment, error) {
	return m.ListFunc(ctx, userEmail)
}

func pay(id string) payments.Payment {
	return payments.Payment{ID: id, UserEmail: "test@test.com", Status: payments.StatusPending}
}

type recorder struct {
	presented []string
	dismissed []string
	alerts    int
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnPresent: func(p payments.Payment) { r.presented = append(r.presented, p.ID) },
		OnDismiss: func(id string) { r.dismissed = append(r.dismissed, id) },
		Alert:     func() { r.alerts++ },
	}
}

func TestSurfacesFirstUnseenPending(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	pending := []payments.Payment{pay("a"), pay("b")}
	lister := &mockLister{ListFunc: func(ctx context.Context, userEmail string) ([]payments.Payment, error) {
		return pending, nil
	}}

	p := New(lister, "test@test.com", time.Second, rec.hooks())
	p.tick(ctx)

	if len(rec.presented) != 1 || rec.presented[0] != "a" {
		t.Fatalf("presented = %v, want [a]", rec.presented)
	}
	if rec.alerts != 1 {
		t.Errorf("alerts = %d, want 1", rec.alerts)
	}
	active := p.Active()
	if active == nil || active.ID != "a" {
		t.Fatalf("active = %v, want a", active)
	}
}

func TestSingleFlightWhileActive(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	lister := &mockLister{ListFunc: func(ctx context.Context, userEmail string) ([]payments.Payment, error) {
		return []payments.Payment{pay("a"), pay("b")}, nil
	}}

	p := New(lister, "test@test.com", time.Second, rec.hooks())
	p.tick(ctx)
	p.tick(ctx)
	p.tick(ctx)

	// "a" stays active across ticks and "b" is never surfaced over it.
	if len(rec.presented) != 1 || rec.presented[0] != "a" {
		t.Fatalf("presented = %v, want [a]", rec.presented)
	}
	if active := p.Active(); active == nil || active.ID != "a" {
		t.Fatalf("active = %v, want a", active)
	}
}

func TestDismissWhenResolvedElsewhere(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	pending := []payments.Payment{pay("a"), pay("b")}
	lister := &mockLister{ListFunc: func(ctx context.Context, userEmail string) ([]payments.Payment, error) {
		return pending, nil
	}}

	p := New(lister, "test@test.com", time.Second, rec.hooks())
	p.tick(ctx)

	// "a" resolved externally (push quick action, another device);
	// the same tick dismisses it and surfaces the next unseen id.
	pending = []payments.Payment{pay("b")}
	p.tick(ctx)

	if len(rec.dismissed) != 1 || rec.dismissed[0] != "a" {
		t.Fatalf("dismissed = %v, want [a]", rec.dismissed)
	}
	if len(rec.presented) != 2 || rec.presented[1] != "b" {
		t.Fatalf("presented = %v, want [a b]", rec.presented)
	}
	if active := p.Active(); active == nil || active.ID != "b" {
		t.Fatalf("active = %v, want b", active)
	}
}

func TestShownIdsAreNeverResurfaced(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	pending := []payments.Payment{pay("a")}
	lister := &mockLister{ListFunc: func(ctx context.Context, userEmail string) ([]payments.Payment, error) {
		return pending, nil
	}}

	p := New(lister, "test@test.com", time.Second, rec.hooks())
	p.tick(ctx)

	// Resolved and cleared...
	pending = nil
	p.tick(ctx)

	// ...then "a" anomalously reappears in the pending list. It was
	// already shown this session and must not prompt again.
	pending = []payments.Payment{pay("a")}
	p.tick(ctx)
	p.tick(ctx)

	if len(rec.presented) != 1 {
		t.Fatalf("presented = %v, want exactly one surfacing of a", rec.presented)
	}
	if p.Active() != nil {
		t.Fatalf("active = %v, want nil", p.Active())
	}
}

func TestPollErrorsAreSwallowed(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	calls := 0
	lister := &mockLister{ListFunc: func(ctx context.Context, userEmail string) ([]payments.Payment, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("network down")
		}
		return []payments.Payment{pay("a")}, nil
	}}

	p := New(lister, "test@test.com", time.Second, rec.hooks())
	p.tick(ctx) // fails, swallowed
	p.tick(ctx) // recovers

	if len(rec.presented) != 1 || rec.presented[0] != "a" {
		t.Fatalf("presented = %v, want [a] after recovery", rec.presented)
	}
}

func TestClearActiveGuardsOnID(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	lister := &mockLister{ListFunc: func(ctx context.Context, userEmail string) ([]payments.Payment, error) {
		return []payments.Payment{pay("a")}, nil
	}}

	p := New(lister, "test@test.com", time.Second, rec.hooks())
	p.tick(ctx)

	p.ClearActive("other")
	if active := p.Active(); active == nil || active.ID != "a" {
		t.Fatal("ClearActive with a stale id must not clear the active payment")
	}

	p.ClearActive("a")
	if p.Active() != nil {
		t.Fatal("ClearActive did not clear the active payment")
	}
}

func TestRapidStartStopLifecycle(t *testing.T) {
	lister := &mockLister{ListFunc: func(ctx context.Context, userEmail string) ([]payments.Payment, error) {
		return nil, nil
	}}
	p := New(lister, "test@test.com", time.Millisecond, Hooks{})

	// Logout can land before the polling goroutine is ever
	// scheduled; the loop must neither panic nor deadlock.
	for i := 0; i < 2000; i++ {
		p.Start(context.Background())
		p.Stop()
	}
}

func TestStopResetsSessionState(t *testing.T) {
	pending := []payments.Payment{pay("a")}
	lister := &mockLister{ListFunc: func(ctx context.Context, userEmail string) ([]payments.Payment, error) {
		return pending, nil
	}}
	rec := &recorder{}

	p := New(lister, "test@test.com", 5*time.Millisecond, rec.hooks())
	p.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for p.Active() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if p.Active() == nil {
		t.Fatal("poller never surfaced the pending payment")
	}

	p.Stop()
	if p.Active() != nil {
		t.Fatal("active not cleared on Stop")
	}

	// A fresh session may surface the same id again: shownIds is
	// session-scoped, reset on logout.
	p.Start(context.Background())
	defer p.Stop()

	deadline = time.Now().Add(2 * time.Second)
	for p.Active() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if active := p.Active(); active == nil || active.ID != "a" {
		t.Fatal("restarted session should surface the id again")
	}
}
