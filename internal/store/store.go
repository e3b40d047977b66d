// Package store is the persistence boundary of the checkout core. The
// conversion service, lifecycle service and payment tracker only see
// these interfaces; Postgres and the in-memory implementation below
// provide them.
package store

import (
	"context"

	"github.com/nexuslabs/commerce-core/internal/orders"
)

// Line is one cart item joined with the live product row, read under
// lock so the snapshot stays consistent until Commit.
type Line struct {
	ProductID  string
	Qty        int
	PriceCents int64
	Stock      int
	Available  bool
}

type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one all-or-nothing unit of work. Rollback after Commit is a
// no-op, so callers can always `defer tx.Rollback(ctx)`.
type Tx interface {
	// conversion
	CartLines(ctx context.Context, cartID string) ([]Line, error)
	InsertOrder(ctx context.Context, o *orders.Order, items []orders.OrderItem) error
	// DecrementStock only succeeds when current stock covers qty,
	// evaluated atomically against the store. false means the guard
	// failed, not an error.
	DecrementStock(ctx context.Context, productID string, qty int) (bool, error)
	ClearCart(ctx context.Context, cartID string) error

	// state transitions
	OrderForUpdate(ctx context.Context, orderID string) (*orders.Order, error)
	SetOrderStatus(ctx context.Context, orderID string, st orders.Status, ps orders.PaymentStatus) error
	OrderItems(ctx context.Context, orderID string) ([]orders.OrderItem, error)
	RestockItems(ctx context.Context, items []orders.OrderItem) error

	// payments
	AppendPayment(ctx context.Context, p *orders.Payment) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
