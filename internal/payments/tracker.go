// Package payments records the outcomes an external payment gateway
// reports against an order. The log is append-only: a correction is a
// new entry, never an update of an old one.
package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
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

type Tracker struct {
	Store       store.Store
	Producer    Publisher
	Metrics     *metrics.Metrics
	Log         *zap.Logger
	ServiceName string
}

// Attempt is one gateway outcome. The tracker never talks to the
// gateway itself; it only books what the gateway already decided.
type Attempt struct {
	OrderID       string
	AmountCents   int64
	Method        string
	TransactionID string
	Accepted      bool
}

// RecordAttempt appends the attempt and drives the order's payment
// status: accepted moves UNPAID→PAID (order PENDING→PAID), rejected
// moves UNPAID→FAILED with the order staying PENDING so the payment
// can be retried. Partial payments are out of scope, so an amount that
// differs from the order total fails with ErrAmountMismatch and
// changes nothing.
func (t *Tracker) RecordAttempt(ctx context.Context, a Attempt) (*orders.Payment, error) {
	tx, err := t.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	o, err := tx.OrderForUpdate(ctx, a.OrderID)
	if err != nil {
		return nil, err
	}
	if a.AmountCents != o.TotalCents {
		t.Metrics.Payment("amount_mismatch")
		return nil, orders.ErrAmountMismatch
	}

	ev := orders.EventPaymentRejected
	if a.Accepted {
		ev = orders.EventPaymentAccepted
	}
	st, ps, err := orders.Apply(o.Status, o.PaymentStatus, ev)
	if err != nil {
		t.Metrics.Payment("invalid")
		return nil, err
	}

	p := &orders.Payment{
		ID:            uuid.NewString(),
		OrderID:       a.OrderID,
		AmountCents:   a.AmountCents,
		Method:        a.Method,
		TransactionID: a.TransactionID,
		Accepted:      a.Accepted,
		CreatedAt:     time.Now().UTC(),
	}
	if err := tx.AppendPayment(ctx, p); err != nil {
		return nil, err
	}
	if err := tx.SetOrderStatus(ctx, a.OrderID, st, ps); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if a.Accepted {
		t.Metrics.Payment("accepted")
	} else {
		t.Metrics.Payment("rejected")
	}
	t.emitRecorded(p)
	return p, nil
}

func (t *Tracker) emitRecorded(p *orders.Payment) {
	if t.Producer == nil {
		return
	}
	ev := orders.NewEnvelope(orders.EventPaymentRecorded, t.ServiceName, "", p.OrderID,
		kafkax.MustMarshal(orders.PaymentRecordedPayload{
			OrderID:       p.OrderID,
			PaymentID:     p.ID,
			AmountCents:   p.AmountCents,
			Method:        p.Method,
			TransactionID: p.TransactionID,
			Accepted:      p.Accepted,
		}))
	t.Producer.Publish(orders.PartitionKey(p.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventPaymentRecorded)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	if t.Log != nil {
		t.Log.Info("payment recorded",
			zap.String("order_id", p.OrderID),
			zap.String("payment_id", p.ID),
			zap.Bool("accepted", p.Accepted))
	}
}
