package cart

import "time"

// Cart is a user's mutable pre-purchase selection. One active cart per
// user; checkout deactivates it.
type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item holds no price. Price is resolved live from the product at read
// and checkout time, so a cart always shows current pricing.
type Item struct {
	ID        string `json:"id"`
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// ItemView is an Item joined with the live product for display.
type ItemView struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"price_cents"`
	Available  bool   `json:"available"`
}
