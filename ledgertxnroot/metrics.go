package ledgertxnroot

import "github.com/prometheus/client_golang/prometheus"

type cacheMetrics struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
}

func newCacheMetrics(namespace string) *cacheMetrics {
	m := &cacheMetrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledgertxnroot",
			Name:      "cache_hit_total",
			Help:      "Number of cache hits, by cache.",
		}, []string{"cache"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledgertxnroot",
			Name:      "cache_miss_total",
			Help:      "Number of cache misses, by cache.",
		}, []string{"cache"}),
	}
	return m
}

// Collectors returns the metrics' prometheus collectors, for
// registration with a prometheus.Registerer.
func (m *cacheMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.hits, m.misses}
}

func (m *cacheMetrics) hit(cache string)  { m.hits.WithLabelValues(cache).Inc() }
func (m *cacheMetrics) miss(cache string) { m.misses.WithLabelValues(cache).Inc() }
