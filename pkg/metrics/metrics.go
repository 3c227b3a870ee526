package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cache metrics (pkg/cache: AtomCache bytes/object, PageCache)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protobase_cache_hits_total",
			Help: "Total cache hits by cache name and queue (probation/protected, or lru for the page cache)",
		},
		[]string{"cache", "queue"},
	)

	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protobase_cache_misses_total",
			Help: "Total cache misses by cache name",
		},
		[]string{"cache"},
	)

	CachePutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protobase_cache_puts_total",
			Help: "Total cache insertions by cache name",
		},
		[]string{"cache"},
	)

	CacheEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protobase_cache_evictions_total",
			Help: "Total cache evictions by cache name and queue",
		},
		[]string{"cache", "queue"},
	)

	CacheSizeEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "protobase_cache_size_entries",
			Help: "Current number of entries held by a cache",
		},
		[]string{"cache"},
	)

	CacheSizeBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "protobase_cache_size_bytes",
			Help: "Current number of bytes held by a cache",
		},
		[]string{"cache"},
	)

	CacheSingleFlightDedupTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protobase_cache_singleflight_dedup_total",
			Help: "Total loads served by an in-flight leader instead of issuing a new load",
		},
		[]string{"cache"},
	)

	// CacheLoadLatency buckets p50/p95/p99 latency for the object,
	// bytes, and deserialize load paths named in spec.md §4.3.
	CacheLoadLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "protobase_cache_load_latency_seconds",
			Help:    "Latency of a cache load path in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"cache", "path"},
	)

	// Storage metrics (pkg/storage: BlockProvider root publication)
	StorageRootPublishDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "protobase_storage_root_publish_duration_seconds",
			Help:    "Latency of publishing a new root pointer",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Transaction metrics (pkg/txn: commit protocol)
	TxnCommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protobase_txn_commits_total",
			Help: "Total transaction commit attempts by outcome (committed/aborted/conflict)",
		},
		[]string{"outcome"},
	)

	TxnCommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "protobase_txn_commit_duration_seconds",
			Help:    "Latency of the eight-step commit protocol",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Query metrics (pkg/query: plan execution)
	QueryPlanExecDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "protobase_query_plan_exec_duration_seconds",
			Help:    "Latency of executing one top-level query plan by plan kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"plan"},
	)
)

func init() {
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(CachePutsTotal)
	prometheus.MustRegister(CacheEvictionsTotal)
	prometheus.MustRegister(CacheSizeEntries)
	prometheus.MustRegister(CacheSizeBytes)
	prometheus.MustRegister(CacheSingleFlightDedupTotal)
	prometheus.MustRegister(CacheLoadLatency)
	prometheus.MustRegister(StorageRootPublishDuration)
	prometheus.MustRegister(TxnCommitsTotal)
	prometheus.MustRegister(TxnCommitDuration)
	prometheus.MustRegister(QueryPlanExecDuration)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
