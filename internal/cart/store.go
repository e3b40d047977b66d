package cart

import "context"

// Store is the cart port the HTTP layer depends on. Repo is the
// Postgres implementation; Memory backs tests.
type Store interface {
	GetOrCreateActive(ctx context.Context, userID string) (*Cart, error)
	UpsertItem(ctx context.Context, cartID, productID string, qty int) error
	SetItemQty(ctx context.Context, cartID, productID string, qty int) error
	RemoveItem(ctx context.Context, cartID, productID string) error
	Items(ctx context.Context, cartID string) ([]ItemView, error)
}

var (
	_ Store = (*Repo)(nil)
	_ Store = (*Memory)(nil)
)
