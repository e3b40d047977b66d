// Package pricing is the pluggable adjustment step between price
// snapshot and total computation: given the validated lines it returns
// an extra charge in cents (shipping, tax) added to the order total.
package pricing

import "github.com/nexuslabs/commerce-core/internal/orders"

type Adjuster interface {
	Adjust(items []orders.OrderItem) int64
}

// None charges nothing. The default when no adjustment is configured.
type None struct{}

func (None) Adjust([]orders.OrderItem) int64 { return 0 }

// FlatShipping charges a fixed fee per order regardless of contents.
type FlatShipping struct{ FeeCents int64 }

func (f FlatShipping) Adjust(items []orders.OrderItem) int64 {
	if len(items) == 0 {
		return 0
	}
	return f.FeeCents
}

// PercentTax charges Basis points of the item subtotal, rounded down.
type PercentTax struct{ BasisPoints int64 }

func (p PercentTax) Adjust(items []orders.OrderItem) int64 {
	var subtotal int64
	for _, it := range items {
		subtotal += it.UnitPriceCents * int64(it.Qty)
	}
	return subtotal * p.BasisPoints / 10000
}
