// Package notify consumes order lifecycle events and fires the
// best-effort side effects outside the transactional boundary:
// confirmation emails and analytics. Losing one is acceptable;
// processing one twice is not, hence the dedup check.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/nexuslabs/commerce-core/internal/kafka"
	"github.com/nexuslabs/commerce-core/internal/orders"
	"github.com/nexuslabs/commerce-core/internal/redisx"
)

// Mailer sends one message. The SMTP adapter lives in cmd; tests use
// a capture fake.
type Mailer interface {
	Send(ctx context.Context, userID, subject, body string) error
}

// Deduper remembers which event ids were already handled. Seen both
// checks and marks, so a redelivered event is reported seen exactly
// once per consumer group.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

// RedisDedup backs Deduper with the shared dedup keyspace.
type RedisDedup struct {
	Client  *redis.Client
	Service string
}

func (d *RedisDedup) Seen(ctx context.Context, eventID string) (bool, error) {
	key := fmt.Sprintf(redisx.KeyDedup, d.Service, eventID)
	seen, err := redisx.Exists(ctx, d.Client, key)
	if err != nil || seen {
		return seen, err
	}
	_ = d.Client.Set(ctx, key, "1", redisx.TTLDedup).Err()
	return false, nil
}

type Service struct {
	Dedup  Deduper
	Mailer Mailer
	Log    *zap.Logger
}

// Handle is installed as the consumer handler for all order topics.
func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	if s.Dedup != nil {
		seen, _ := s.Dedup.Seen(ctx, env.EventID)
		if seen {
			return nil
		}
	}

	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.sendConfirmation(ctx, p)
	case orders.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.sendStatusUpdate(ctx, p)
	case orders.EventPaymentRecorded:
		// analytics only, no mail
		if s.Log != nil {
			s.Log.Info("payment event", zap.String("order_id", env.CorrelationID))
		}
		return nil
	default:
		return nil
	}
}

func (s *Service) sendConfirmation(ctx context.Context, p orders.OrderCreatedPayload) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order!\n\nOrder ID: %s\nTotal: $%d.%02d\n\nItems:\n",
		p.OrderID, p.TotalCents/100, p.TotalCents%100)
	for _, it := range p.Items {
		fmt.Fprintf(&b, "- %s (x%d) - $%d.%02d\n",
			it.ProductID, it.Qty, it.UnitPriceCents/100, it.UnitPriceCents%100)
	}
	subject := fmt.Sprintf("Your Order #%s Confirmation", p.OrderID)
	if err := s.Mailer.Send(ctx, p.UserID, subject, b.String()); err != nil {
		if s.Log != nil {
			s.Log.Warn("confirmation mail failed", zap.String("order_id", p.OrderID), zap.Error(err))
		}
		return err
	}
	return nil
}

func (s *Service) sendStatusUpdate(ctx context.Context, p orders.OrderStatusChangedPayload) error {
	subject := fmt.Sprintf("Order #%s is now %s", p.OrderID, p.Status)
	body := fmt.Sprintf("Order ID: %s\nStatus: %s\nPayment: %s\n", p.OrderID, p.Status, p.PaymentStatus)
	return s.Mailer.Send(ctx, p.UserID, subject, body)
}
