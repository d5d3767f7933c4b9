package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	CheckoutPlaced   = "placed"
	CheckoutRejected = "rejected"
	CheckoutAborted  = "aborted"
	CheckoutConflict = "conflict"
)

// CheckoutMetrics records simulated order placement.
type CheckoutMetrics struct {
	orders  *prometheus.CounterVec
	revenue prometheus.Counter
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_order_value_total",
		Help: "Sum of placed order totals.",
	})
	reg.MustRegister(orders, revenue)
	return &CheckoutMetrics{orders: orders, revenue: revenue}
}

func (c *CheckoutMetrics) IncOutcome(outcome string) {
	if c == nil || c.orders == nil {
		return
	}
	c.orders.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// AddOrderValue adds a placed order total. Negative totals are ignored.
func (c *CheckoutMetrics) AddOrderValue(total float64) {
	if c == nil || c.revenue == nil || total < 0 {
		return
	}
	c.revenue.Add(total)
}
