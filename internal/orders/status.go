package orders

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Event is what happened to an order, not where it should end up.
// Callers request events; the table below decides the landing state.
type Event string

const (
	EventPaymentAccepted Event = "PaymentAccepted"
	EventPaymentRejected Event = "PaymentRejected"
	EventCancel          Event = "Cancel"
	EventShip            Event = "Ship"
	EventDeliver         Event = "Deliver"
	EventRefund          Event = "Refund"
)

type transition struct {
	status  Status
	payment PaymentStatus
}

// validNext is keyed by current order status, then event. A rejected
// payment keeps the order PENDING so the payment can be retried.
var validNext = map[Status]map[Event]transition{
	StatusPending: {
		EventPaymentAccepted: {StatusPaid, PaymentPaid},
		EventPaymentRejected: {StatusPending, PaymentFailed},
		EventCancel:          {StatusCancelled, PaymentUnpaid},
	},
	StatusPaid: {
		EventShip:   {StatusShipped, PaymentPaid},
		EventRefund: {StatusRefunded, PaymentRefunded},
	},
	StatusShipped: {
		EventDeliver: {StatusDelivered, PaymentPaid},
		EventRefund:  {StatusRefunded, PaymentRefunded},
	},
	StatusDelivered: {},
	StatusCancelled: {},
	StatusRefunded:  {},
}

// Apply validates ev against the current status and returns the next
// order and payment status. On an event not listed for the current
// state it returns ErrInvalidTransition and the inputs unchanged.
func Apply(st Status, ps PaymentStatus, ev Event) (Status, PaymentStatus, error) {
	next, ok := validNext[st][ev]
	if !ok {
		return st, ps, ErrInvalidTransition
	}
	// A cancelled PENDING order keeps whatever payment status it had
	// (UNPAID or FAILED); only payment events override it.
	if ev == EventCancel {
		next.payment = ps
	}
	return next.status, next.payment, nil
}

// ReleasesStock reports whether applying ev puts reserved stock back.
// Only a cancellation of a not-yet-shipped order does.
func ReleasesStock(ev Event) bool { return ev == EventCancel }
