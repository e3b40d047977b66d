package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the counters the checkout core reports. A nil
// *Metrics is safe to use so tests can pass nothing.
type Metrics struct {
	CheckoutTotal   *prometheus.CounterVec // label: outcome
	TransitionTotal *prometheus.CounterVec // labels: event, outcome
	PaymentTotal    *prometheus.CounterVec // label: outcome
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CheckoutTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commerce",
			Name:      "checkout_total",
			Help:      "Cart to order conversions by outcome.",
		}, []string{"outcome"}),
		TransitionTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commerce",
			Name:      "order_transitions_total",
			Help:      "Order state transitions by event and outcome.",
		}, []string{"event", "outcome"}),
		PaymentTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commerce",
			Name:      "payment_attempts_total",
			Help:      "Recorded payment attempts by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) Checkout(outcome string) {
	if m == nil {
		return
	}
	m.CheckoutTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Transition(event, outcome string) {
	if m == nil {
		return
	}
	m.TransitionTotal.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) Payment(outcome string) {
	if m == nil {
		return
	}
	m.PaymentTotal.WithLabelValues(outcome).Inc()
}
