package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexuslabs/commerce-core/internal/orders"
)

type Postgres struct{ DB *pgxpool.Pool }

func NewPostgres(db *pgxpool.Pool) *Postgres { return &Postgres{DB: db} }

func (s *Postgres) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx   pgx.Tx
	done bool
}

// retryable maps serialization failures and deadlocks to the one
// failure kind the caller is allowed to retry.
func retryable(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return orders.ErrConflictRetry
		}
	}
	return err
}

func (t *pgTx) CartLines(ctx context.Context, cartID string) ([]Line, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT product_id, qty FROM cart_items WHERE cart_id = $1 ORDER BY product_id`, cartID)
	if err != nil {
		return nil, retryable(err)
	}
	type entry struct {
		productID string
		qty       int
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.productID, &e.qty); err != nil {
			rows.Close()
			return nil, err
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, retryable(err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.productID)
	}
	// Lock the product rows so price/stock cannot shift between this
	// read and the decrements in the same tx.
	prows, err := t.tx.Query(ctx,
		`SELECT id, price_cents, stock_qty, is_available
		   FROM products WHERE id = ANY($1) FOR UPDATE`, ids)
	if err != nil {
		return nil, retryable(err)
	}
	type prod struct {
		price     int64
		stock     int
		available bool
	}
	byID := map[string]prod{}
	for prows.Next() {
		var id string
		var p prod
		if err := prows.Scan(&id, &p.price, &p.stock, &p.available); err != nil {
			prows.Close()
			return nil, err
		}
		byID[id] = p
	}
	prows.Close()
	if err := prows.Err(); err != nil {
		return nil, retryable(err)
	}

	lines := make([]Line, 0, len(entries))
	for _, e := range entries {
		p, ok := byID[e.productID]
		if !ok {
			// product row deleted since the item was added
			lines = append(lines, Line{ProductID: e.productID, Qty: e.qty, Available: false})
			continue
		}
		lines = append(lines, Line{
			ProductID:  e.productID,
			Qty:        e.qty,
			PriceCents: p.price,
			Stock:      p.stock,
			Available:  p.available,
		})
	}
	return lines, nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o *orders.Order, items []orders.OrderItem) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, status, payment_status, total_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		o.ID, o.UserID, o.Status, o.PaymentStatus, o.TotalCents, o.CreatedAt)
	if err != nil {
		return retryable(err)
	}
	for _, it := range items {
		_, err = t.tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, qty, unit_price_cents)
			VALUES ($1, $2, $3, $4, $5)`,
			it.ID, it.OrderID, it.ProductID, it.Qty, it.UnitPriceCents)
		if err != nil {
			return retryable(err)
		}
	}
	return nil
}

func (t *pgTx) DecrementStock(ctx context.Context, productID string, qty int) (bool, error) {
	ct, err := t.tx.Exec(ctx, `
		UPDATE products SET stock_qty = stock_qty - $2, updated_at = now()
		WHERE id = $1 AND stock_qty >= $2`, productID, qty)
	if err != nil {
		return false, retryable(err)
	}
	return ct.RowsAffected() == 1, nil
}

func (t *pgTx) ClearCart(ctx context.Context, cartID string) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return retryable(err)
	}
	_, err := t.tx.Exec(ctx, `UPDATE carts SET is_active = FALSE, updated_at = now() WHERE id = $1`, cartID)
	return retryable(err)
}

func (t *pgTx) OrderForUpdate(ctx context.Context, orderID string) (*orders.Order, error) {
	var o orders.Order
	err := t.tx.QueryRow(ctx, `
		SELECT id, user_id, status, payment_status, total_cents, created_at, updated_at
		FROM orders WHERE id = $1 FOR UPDATE`, orderID).
		Scan(&o.ID, &o.UserID, &o.Status, &o.PaymentStatus, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, retryable(err)
	}
	return &o, nil
}

func (t *pgTx) SetOrderStatus(ctx context.Context, orderID string, st orders.Status, ps orders.PaymentStatus) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE orders SET status = $2, payment_status = $3, updated_at = now()
		WHERE id = $1`, orderID, st, ps)
	return retryable(err)
}

func (t *pgTx) OrderItems(ctx context.Context, orderID string) ([]orders.OrderItem, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, order_id, product_id, qty, unit_price_cents
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, retryable(err)
	}
	defer rows.Close()

	var out []orders.OrderItem
	for rows.Next() {
		var it orders.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Qty, &it.UnitPriceCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (t *pgTx) RestockItems(ctx context.Context, items []orders.OrderItem) error {
	for _, it := range items {
		_, err := t.tx.Exec(ctx, `
			UPDATE products SET stock_qty = stock_qty + $2, updated_at = now()
			WHERE id = $1`, it.ProductID, it.Qty)
		if err != nil {
			return retryable(err)
		}
	}
	return nil
}

func (t *pgTx) AppendPayment(ctx context.Context, p *orders.Payment) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO payments(id, order_id, amount_cents, method, transaction_id, accepted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.OrderID, p.AmountCents, p.Method, p.TransactionID, p.Accepted, p.CreatedAt)
	return retryable(err)
}

func (t *pgTx) Commit(ctx context.Context) error {
	t.done = true
	return retryable(t.tx.Commit(ctx))
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback(ctx)
}
