package catalog

import "context"

// Store is the catalog port. Repo serves it from Postgres; Memory
// serves tests.
type Store interface {
	Get(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	Restock(ctx context.Context, id string, qty int) error
	SetAvailability(ctx context.Context, id string, available bool) error
}

var (
	_ Store = (*Repo)(nil)
	_ Store = (*Memory)(nil)
)
