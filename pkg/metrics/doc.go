/*
Package metrics defines ProtoBase's Prometheus metrics and exposes them over
HTTP for scraping, grounded on the teacher's pkg/metrics (MustRegister at
init, a Timer helper around ObserveDuration/ObserveDurationVec, Handler()
wrapping promhttp.Handler()) with an entirely new catalog: cache hit/miss/
eviction counters (pkg/cache's 2Q policy), storage root-publish latency
(pkg/storage), the eight-step commit protocol's outcome counter and
latency histogram (pkg/txn), and per-plan-kind query execution latency
(pkg/query).

# Usage

	cache := metrics.CacheHitsTotal.WithLabelValues("object", "protected")
	cache.Inc()

	timer := metrics.NewTimer()
	// ... commit a transaction ...
	timer.ObserveDuration(metrics.TxnCommitDuration)

	http.Handle("/metrics", metrics.Handler())

Labels are kept low-cardinality throughout: cache name and queue, commit
outcome, query plan kind — never an atom pointer or transaction ID.
*/
package metrics
