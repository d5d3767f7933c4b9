package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics records calls made to the remote catalog API.
type UpstreamMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	cache    *prometheus.CounterVec
}

func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Duration of catalog API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Catalog API calls by endpoint and status code (0 for transport failures).",
	}, []string{"endpoint", "status"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_lookups_total",
		Help: "Catalog read-through cache lookups by scope and result.",
	}, []string{"scope", "result"})
	reg.MustRegister(duration, requests, cache)
	return &UpstreamMetrics{duration: duration, requests: requests, cache: cache}
}

// ObserveRequest records one catalog call.
func (u *UpstreamMetrics) ObserveRequest(endpoint string, status int, d time.Duration) {
	if u == nil || u.duration == nil {
		return
	}
	endpoint = normalizeLabel(endpoint)
	u.duration.WithLabelValues(endpoint).Observe(d.Seconds())
	u.requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

// IncCache records a cache hit or miss for scope.
func (u *UpstreamMetrics) IncCache(scope string, hit bool) {
	if u == nil || u.cache == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	u.cache.WithLabelValues(normalizeLabel(scope), result).Inc()
}
