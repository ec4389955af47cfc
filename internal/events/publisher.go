package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/13x54n/lypto-sub001/internal/payments"
	"github.com/13x54n/lypto-sub001/internal/telemetry"
)

const (
	TopicPaymentRequested = "payment.requested"
	TopicPaymentResolved  = "payment.resolved"
)

// Publisher emits payment lifecycle events. Publish failures are
// logged and never propagated; the HTTP request already succeeded
// against the store by the time an event is written.
type Publisher struct {
	requested *kafka.Writer
	resolved  *kafka.Writer
}

func NewPublisher(brokers string) *Publisher {
	return &Publisher{
		requested: &kafka.Writer{
			Addr:     kafka.TCP(brokers),
			Topic:    TopicPaymentRequested,
			Balancer: &kafka.LeastBytes{},
		},
		resolved: &kafka.Writer{
			Addr:     kafka.TCP(brokers),
			Topic:    TopicPaymentResolved,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.requested.Close()
	p.resolved.Close()
}

func (p *Publisher) PaymentRequested(ctx context.Context, payment *payments.Payment) {
	if p == nil {
		return
	}
	p.publish(ctx, p.requested, payment.ID, map[string]interface{}{
		"payment_id":     payment.ID,
		"merchant_email": payment.MerchantEmail,
		"user_id":        payment.UserID,
		"user_email":     payment.UserEmail,
		"amount":         payment.Amount,
		"status":         payment.Status,
		"created_at":     payment.CreatedAt,
	})
}

func (p *Publisher) PaymentResolved(ctx context.Context, payment *payments.Payment) {
	if p == nil {
		return
	}
	p.publish(ctx, p.resolved, payment.ID, map[string]interface{}{
		"payment_id":     payment.ID,
		"merchant_email": payment.MerchantEmail,
		"user_email":     payment.UserEmail,
		"amount":         payment.Amount,
		"status":         payment.Status,
		"resolved_at":    payment.ResolvedAt,
		"timestamp":      time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, w *kafka.Writer, key string, event map[string]interface{}) {
	eventJSON, _ := json.Marshal(event)

	if err := w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: eventJSON,
	}); err != nil {
		telemetry.Logger.Error("Failed to publish payment event to Kafka",
			zap.String("topic", w.Topic),
			zap.String("payment_id", key),
			zap.Error(err),
		)
	}
}
