package session

import (
	"context"
	"time"

	"github.com/13x54n/lypto-sub001/internal/payments"
	"github.com/13x54n/lypto-sub001/internal/poller"
	"github.com/13x54n/lypto-sub001/internal/prompt"
)

// API is the payment API surface a customer session consumes.
type API interface {
	poller.Lister
	prompt.Confirmer
}

// Hooks are the UI-facing callbacks of a session: Alert fires once
// per newly surfaced payment (the vibration stand-in), OnSuccess
// carries the settled payment, OnRetryableError keeps the prompt open.
type Hooks struct {
	Alert            func()
	OnSuccess        func(p payments.Payment)
	OnRetryableError func(id string, err error)
}

// Session owns the per-login client state: one poller and one
// authorization prompt, wired together. Start on authentication,
// Stop on logout; Stop resets all session state deterministically.
type Session struct {
	Poller *poller.Poller
	Prompt *prompt.Prompt
}

func New(api API, userEmail string, interval time.Duration, hooks Hooks) *Session {
	s := &Session{}

	s.Prompt = prompt.New(api, prompt.Hooks{
		OnSuccess:        hooks.OnSuccess,
		OnRetryableError: hooks.OnRetryableError,
		OnClosed: func(id string) {
			s.Poller.ClearActive(id)
		},
	})

	s.Poller = poller.New(api, userEmail, interval, poller.Hooks{
		Alert: hooks.Alert,
		OnPresent: func(p payments.Payment) {
			s.Prompt.Present(p)
		},
		OnDismiss: func(id string) {
			s.Prompt.Dismiss(id)
		},
	})

	return s
}

func (s *Session) Start(ctx context.Context) {
	s.Poller.Start(ctx)
}

func (s *Session) Stop() {
	active := s.Poller.Active()
	s.Poller.Stop()
	if active != nil {
		s.Prompt.Dismiss(active.ID)
	}
}
