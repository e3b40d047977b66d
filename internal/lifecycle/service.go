// Package lifecycle applies order state transitions atomically: the
// order row is read under lock, the event is validated against the
// state machine and the new state written in the same unit of work. A
// cancellation additionally puts the reserved stock back.
package lifecycle

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/nexuslabs/commerce-core/internal/kafka"
	"github.com/nexuslabs/commerce-core/internal/metrics"
	"github.com/nexuslabs/commerce-core/internal/orders"
	"github.com/nexuslabs/commerce-core/internal/store"
)

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Store       store.Store
	Producer    Publisher
	Metrics     *metrics.Metrics
	Log         *zap.Logger
	ServiceName string
}

// Apply drives the order through ev. On an event not valid for the
// current state it returns ErrInvalidTransition and the order is left
// untouched.
func (s *Service) Apply(ctx context.Context, orderID string, ev orders.Event) (*orders.Order, error) {
	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	o, err := tx.OrderForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	st, ps, err := orders.Apply(o.Status, o.PaymentStatus, ev)
	if err != nil {
		s.Metrics.Transition(string(ev), "invalid")
		return nil, err
	}

	if orders.ReleasesStock(ev) {
		items, err := tx.OrderItems(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if err := tx.RestockItems(ctx, items); err != nil {
			return nil, err
		}
	}

	if err := tx.SetOrderStatus(ctx, orderID, st, ps); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	o.Status = st
	o.PaymentStatus = ps
	s.Metrics.Transition(string(ev), "applied")
	s.emitChanged(o)
	return o, nil
}

func (s *Service) emitChanged(o *orders.Order) {
	if s.Producer == nil {
		return
	}
	ev := orders.NewEnvelope(orders.EventOrderStatusChanged, s.ServiceName, "", o.ID,
		kafkax.MustMarshal(orders.OrderStatusChangedPayload{
			OrderID: o.ID, UserID: o.UserID, Status: o.Status, PaymentStatus: o.PaymentStatus,
		}))
	s.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	if s.Log != nil {
		s.Log.Info("order status changed",
			zap.String("order_id", o.ID),
			zap.String("status", string(o.Status)),
			zap.String("payment_status", string(o.PaymentStatus)))
	}
}
