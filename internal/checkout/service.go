// Package checkout converts a mutable cart into an immutable order:
// locked snapshot read, validation, price snapshot, then one
// all-or-nothing commit that creates the order, decrements stock and
// clears the cart.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/nexuslabs/commerce-core/internal/kafka"
	"github.com/nexuslabs/commerce-core/internal/metrics"
	"github.com/nexuslabs/commerce-core/internal/orders"
	"github.com/nexuslabs/commerce-core/internal/pricing"
	"github.com/nexuslabs/commerce-core/internal/store"
)

// Publisher is the fire-and-forget event sink; satisfied by
// kafka.Producer. Delivery is best-effort and never awaited.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Store       store.Store
	Adjust      pricing.Adjuster
	Producer    Publisher
	Metrics     *metrics.Metrics
	Log         *zap.Logger
	ServiceName string
}

// Convert turns the cart's items into an order for userID. On success
// the order is PENDING/UNPAID, its items carry the unit prices read
// inside the same transaction, each product's stock is down by the
// ordered quantity and the cart is empty. On any failure nothing is
// left behind.
func (s *Service) Convert(ctx context.Context, userID, cartID string) (*orders.Order, []orders.OrderItem, error) {
	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	lines, err := tx.CartLines(ctx, cartID)
	if err != nil {
		return nil, nil, err
	}
	if len(lines) == 0 {
		s.count("empty_cart")
		return nil, nil, orders.ErrEmptyCart
	}

	var shortages []orders.StockShortage
	for _, l := range lines {
		if !l.Available {
			s.count("product_unavailable")
			return nil, nil, fmt.Errorf("product %s: %w", l.ProductID, orders.ErrProductUnavailable)
		}
		if l.Qty > l.Stock {
			shortages = append(shortages, orders.StockShortage{
				ProductID: l.ProductID, Requested: l.Qty, Available: l.Stock,
			})
		}
	}
	if len(shortages) > 0 {
		s.count("insufficient_stock")
		return nil, nil, &orders.ShortageError{Shortages: shortages}
	}

	orderID := uuid.NewString()
	items := make([]orders.OrderItem, 0, len(lines))
	var subtotal int64
	for _, l := range lines {
		items = append(items, orders.OrderItem{
			ID:             uuid.NewString(),
			OrderID:        orderID,
			ProductID:      l.ProductID,
			Qty:            l.Qty,
			UnitPriceCents: l.PriceCents,
		})
		subtotal += l.PriceCents * int64(l.Qty)
	}
	total := subtotal
	if s.Adjust != nil {
		total += s.Adjust.Adjust(items)
	}

	now := time.Now().UTC()
	order := &orders.Order{
		ID:            orderID,
		UserID:        userID,
		Status:        orders.StatusPending,
		PaymentStatus: orders.PaymentUnpaid,
		TotalCents:    total,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.InsertOrder(ctx, order, items); err != nil {
		return nil, nil, err
	}

	for _, it := range items {
		ok, err := tx.DecrementStock(ctx, it.ProductID, it.Qty)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			// Passed validation but lost the race at commit time.
			s.count("conflict")
			return nil, nil, fmt.Errorf("stock for %s: %w", it.ProductID, orders.ErrConflictRetry)
		}
	}

	if err := tx.ClearCart(ctx, cartID); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		if errors.Is(err, orders.ErrConflictRetry) {
			s.count("conflict")
		}
		return nil, nil, err
	}

	s.count("success")
	s.emitCreated(order, items)
	return order, items, nil
}

func (s *Service) count(outcome string) { s.Metrics.Checkout(outcome) }

func (s *Service) emitCreated(o *orders.Order, items []orders.OrderItem) {
	if s.Producer == nil {
		return
	}
	lines := make([]orders.ItemLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, orders.ItemLine{
			ProductID: it.ProductID, Qty: it.Qty, UnitPriceCents: it.UnitPriceCents,
		})
	}
	ev := orders.NewEnvelope(orders.EventOrderCreated, s.ServiceName, "", o.ID,
		kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID: o.ID, UserID: o.UserID, Items: lines, TotalCents: o.TotalCents,
		}))
	s.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	if s.Log != nil {
		s.Log.Info("order created",
			zap.String("order_id", o.ID),
			zap.String("user_id", o.UserID),
			zap.Int64("total_cents", o.TotalCents),
			zap.Int("items", len(items)))
	}
}
