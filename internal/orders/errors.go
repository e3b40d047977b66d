package orders

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced to the request layer. Only ErrConflictRetry
// is transient; callers may re-read and retry it. Everything else is
// terminal for the given input.
var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrConflictRetry      = errors.New("concurrent conflict, retry")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrAmountMismatch     = errors.New("payment amount does not match order total")
	ErrNotFound           = errors.New("not found")
)

// StockShortage details one product that could not cover the requested
// quantity, for the "insufficient stock for item X" message.
type StockShortage struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// ShortageError wraps ErrInsufficientStock with per-product detail.
type ShortageError struct {
	Shortages []StockShortage
}

func (e *ShortageError) Error() string {
	return fmt.Sprintf("%v for %d product(s)", ErrInsufficientStock, len(e.Shortages))
}

func (e *ShortageError) Unwrap() error { return ErrInsufficientStock }
