// Package cache implements the caches sitting in front of the storage
// substrate: PageCache, an LRU over raw WAL pages, and AtomCache, 2Q
// striped caches over deserialized atoms (split into a bytes cache and an
// object cache).
// Concurrent loads for the same key are deduplicated with
// golang.org/x/sync/singleflight; hit/miss/eviction counters and load
// latencies are published through pkg/metrics.
package cache
