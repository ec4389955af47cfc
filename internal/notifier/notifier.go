package notifier

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/13x54n/lypto-sub001/internal/events"
	"github.com/13x54n/lypto-sub001/internal/payments"
	"github.com/13x54n/lypto-sub001/internal/telemetry"
)

// ActionSubject carries quick-action messages from notification
// surfaces (APNs/FCM action handlers) back into the payment API.
const ActionSubject = "payments.action"

// QuickAction is the payload of a notification quick action. Action
// identifiers follow the mobile notification categories.
type QuickAction struct {
	PaymentID string `json:"payment_id"`
	Action    string `json:"action"` // authorize or decline
}

type requestedEvent struct {
	PaymentID string `json:"payment_id"`
	UserEmail string `json:"user_email"`
	Amount    string `json:"amount"`
}

// Confirmer is the slice of the payment API the action consumer needs.
type Confirmer interface {
	ConfirmPayment(ctx context.Context, paymentID string, status payments.Status) (*payments.Payment, error)
}

// Notifier bridges the notification pipeline: it consumes
// payment.requested events to dispatch pushes, and maps quick-action
// replies onto the same confirm endpoint the in-app prompt uses.
type Notifier struct {
	confirmer Confirmer
}

func New(confirmer Confirmer) *Notifier {
	return &Notifier{confirmer: confirmer}
}

// ConsumeRequested reads payment.requested events and dispatches a
// push notification per event. The actual push transport is an
// external collaborator; dispatch here is the logged hand-off point.
func (n *Notifier) ConsumeRequested(ctx context.Context, brokers string) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{brokers},
		Topic:    events.TopicPaymentRequested,
		GroupID:  "payment-notifier",
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	telemetry.Logger.Info("Started consuming payment.requested events")

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			telemetry.Logger.Error("Error reading message from Kafka", zap.Error(err))
			continue
		}

		var event requestedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			telemetry.Logger.Error("Error unmarshaling event", zap.Error(err))
			continue
		}

		telemetry.Logger.Info("Dispatching payment notification",
			zap.String("payment_id", event.PaymentID),
			zap.String("user_email", event.UserEmail),
			zap.String("amount", event.Amount),
		)
		telemetry.NotificationsDispatched.Inc()
	}
}

// SubscribeActions wires the NATS quick-action subject to the confirm
// endpoint. Returns the subscription so the caller can drain it on
// shutdown.
func (n *Notifier) SubscribeActions(ctx context.Context, nc *nats.Conn) (*nats.Subscription, error) {
	return nc.Subscribe(ActionSubject, func(msg *nats.Msg) {
		var action QuickAction
		if err := json.Unmarshal(msg.Data, &action); err != nil {
			telemetry.Logger.Error("Error unmarshaling quick action", zap.Error(err))
			return
		}
		n.HandleAction(ctx, action)
	})
}

// HandleAction maps a quick action onto the confirm endpoint. An
// already-processed result is expected when the in-app prompt or
// another device won the race, and is swallowed.
func (n *Notifier) HandleAction(ctx context.Context, action QuickAction) {
	var status payments.Status
	switch action.Action {
	case "authorize":
		status = payments.StatusConfirmed
	case "decline":
		status = payments.StatusDeclined
	default:
		telemetry.Logger.Warn("Unknown quick action",
			zap.String("payment_id", action.PaymentID),
			zap.String("action", action.Action),
		)
		return
	}

	_, err := n.confirmer.ConfirmPayment(ctx, action.PaymentID, status)
	switch {
	case err == nil:
		telemetry.Logger.Info("Quick action resolved payment",
			zap.String("payment_id", action.PaymentID),
			zap.String("status", string(status)),
		)
	case errors.Is(err, payments.ErrAlreadyProcessed):
		telemetry.Logger.Info("Quick action raced a prior resolution",
			zap.String("payment_id", action.PaymentID),
		)
	default:
		telemetry.Logger.Error("Quick action failed",
			zap.String("payment_id", action.PaymentID),
			zap.Error(err),
		)
	}
}
