package redisx

import "time"

const (
	// Checkout idempotency: idem:checkout:{cart_id} -> order_id. A
	// retried checkout for the same cart returns the same order.
	KeyIdemCheckout = "idem:checkout:%s"

	// Order status cache: order_status:{order_id} -> JSON status body.
	KeyOrderStatus = "order_status:%s"

	// Consumer dedup: dedup:{service}:{event_id}.
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
