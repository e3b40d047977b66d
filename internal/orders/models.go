package orders

import "time"

type Order struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TotalCents    int64         `json:"total_cents"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// OrderItem keeps the unit price as read at conversion time. Later
// price edits on the product never touch it.
type OrderItem struct {
	ID             string `json:"id"`
	OrderID        string `json:"order_id"`
	ProductID      string `json:"product_id"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

const (
	MethodCreditCard   = "credit_card"
	MethodPaypal       = "paypal"
	MethodMpesa        = "mpesa"
	MethodBankTransfer = "bank_transfer"
)

// Payment is one attempt in the append-only payment log of an order.
// Rows are never updated; a correction is a new row.
type Payment struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"order_id"`
	AmountCents   int64     `json:"amount_cents"`
	Method        string    `json:"method"`
	TransactionID string    `json:"transaction_id"`
	Accepted      bool      `json:"accepted"`
	CreatedAt     time.Time `json:"created_at"`
}
