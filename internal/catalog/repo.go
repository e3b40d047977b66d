package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexuslabs/commerce-core/internal/orders"
)

// Repo is the read/administrative side of the catalog. Stock
// decrements during checkout go through the store package instead, so
// they stay inside the conversion transaction.
type Repo struct{ DB *pgxpool.Pool }

const productCols = `id, seller_id, name, price_cents, stock_qty, is_available, created_at, updated_at`

func (r *Repo) Get(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.SellerID, &p.Name, &p.PriceCents, &p.StockQty, &p.Available, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productCols+` FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SellerID, &p.Name, &p.PriceCents, &p.StockQty, &p.Available, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Restock is the administrative stock edit; qty may be negative as
// long as stock stays non-negative (the guard mirrors checkout's).
func (r *Repo) Restock(ctx context.Context, id string, qty int) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET stock_qty = stock_qty + $2, updated_at = now()
		WHERE id = $1 AND stock_qty + $2 >= 0`, id, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return orders.ErrConflictRetry
	}
	return nil
}

// SetAvailability flips the product in or out of the storefront.
func (r *Repo) SetAvailability(ctx context.Context, id string, available bool) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET is_available = $2, updated_at = now() WHERE id = $1`, id, available)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return orders.ErrNotFound
	}
	return nil
}
