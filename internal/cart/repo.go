package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexuslabs/commerce-core/internal/orders"
)

type Repo struct{ DB *pgxpool.Pool }

// GetOrCreateActive returns the user's active cart, creating one if
// none exists. The partial unique index on (user_id) WHERE is_active
// makes the insert race-safe; a loser re-reads the winner's row.
func (r *Repo) GetOrCreateActive(ctx context.Context, userID string) (*Cart, error) {
	for i := 0; i < 2; i++ {
		var c Cart
		err := r.DB.QueryRow(ctx, `
			SELECT id, user_id, is_active, created_at, updated_at
			FROM carts WHERE user_id = $1 AND is_active`, userID).
			Scan(&c.ID, &c.UserID, &c.Active, &c.CreatedAt, &c.UpdatedAt)
		if err == nil {
			return &c, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		id := uuid.NewString()
		_, err = r.DB.Exec(ctx, `
			INSERT INTO carts(id, user_id, is_active) VALUES ($1, $2, TRUE)
			ON CONFLICT DO NOTHING`, id, userID)
		if err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("get or create cart for user %s: %w", userID, orders.ErrConflictRetry)
}

// UpsertItem adds the product to the cart or accumulates its quantity;
// a product appears at most once per cart.
func (r *Repo) UpsertItem(ctx context.Context, cartID, productID string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("qty must be >= 1")
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO cart_items(id, cart_id, product_id, qty)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty`,
		uuid.NewString(), cartID, productID, qty)
	return err
}

func (r *Repo) SetItemQty(ctx context.Context, cartID, productID string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("qty must be >= 1")
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE cart_items SET qty = $3 WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return orders.ErrNotFound
	}
	return nil
}

func (r *Repo) RemoveItem(ctx context.Context, cartID, productID string) error {
	ct, err := r.DB.Exec(ctx, `
		DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return orders.ErrNotFound
	}
	return nil
}

// Items returns the cart joined with live product data. A deleted
// product still shows up, flagged unavailable, so the user can remove
// it before checkout.
func (r *Repo) Items(ctx context.Context, cartID string) ([]ItemView, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT ci.product_id, COALESCE(p.name, ''), ci.qty,
		       COALESCE(p.price_cents, 0), COALESCE(p.is_available, FALSE)
		FROM cart_items ci
		LEFT JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.product_id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemView
	for rows.Next() {
		var v ItemView
		if err := rows.Scan(&v.ProductID, &v.Name, &v.Qty, &v.PriceCents, &v.Available); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
