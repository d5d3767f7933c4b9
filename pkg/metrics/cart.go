package metrics

import "github.com/prometheus/client_golang/prometheus"

// CartMetrics counts cart engine activity.
type CartMetrics struct {
	mutations       *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart engine operations applied, by operation.",
	}, []string{"op"})
	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_persist_failures_total",
		Help: "Snapshot writes that failed, by store.",
	}, []string{"store"})
	reg.MustRegister(mutations, persistFailures)
	return &CartMetrics{mutations: mutations, persistFailures: persistFailures}
}

// IncMutation counts one applied cart operation.
func (c *CartMetrics) IncMutation(op string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncPersistFailure counts one failed snapshot write for the named store.
func (c *CartMetrics) IncPersistFailure(store string) {
	if c == nil || c.persistFailures == nil {
		return
	}
	c.persistFailures.WithLabelValues(normalizeLabel(store)).Inc()
}
