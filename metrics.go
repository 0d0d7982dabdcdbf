package superq

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pushCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "superq",
		Name:      "pushes_total",
		Help:      "Number of elements pushed into a collection.",
	}, []string{"collection"})

	popCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "superq",
		Name:      "pops_total",
		Help:      "Number of elements popped from a collection.",
	}, []string{"collection"})

	evictCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "superq",
		Name:      "evictions_total",
		Help:      "Number of elements evicted to satisfy a maxlen bound.",
	}, []string{"collection"})

	queryDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "superq",
		Name:      "query_duration_seconds",
		Help:      "Latency of queries run against a collection's mirror table.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"collection"})
)
