package cache

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/cuemby/protobase/pkg/metrics"
)

type entry[V any] struct {
	value V
	size  int64
}

// shard owns one slice of the keyspace: its own map (so concurrent access
// to unrelated keys never races on a shared Go map) and its own 2Q policy
// sized proportionally to the overall cache's capacity.
type shard[K comparable, V any] struct {
	mu      sync.Mutex
	data    map[K]entry[V]
	policy  *twoQueue[K]
	entries int
	bytes   int64
}

// ShardedCache is a 2Q cache split across a fixed number of shards, each
// guarded by its own mutex (spec.md §4.3's "striped locks"), with
// concurrent loads for the same key deduplicated via SingleFlight. K must
// be comparable and expose a stable string form for single-flight keying.
type ShardedCache[K comparable, V any] struct {
	name     string
	shards   []*shard[K, V]
	shardLen uint64
	sizeOf   func(V) int64
	hashKey  func(K) uint64
	keyStr   func(K) string
	sf       singleflight.Group
}

// NewShardedCache builds a cache named for metrics purposes, with the given
// total entry/byte budget spread evenly across numShards (rounded up to a
// power of two).
func NewShardedCache[K comparable, V any](name string, maxEntries int, maxBytes int64, numShards int, hashKey func(K) uint64, keyStr func(K) string, sizeOf func(V) int64) *ShardedCache[K, V] {
	n := 1
	for n < numShards {
		n <<= 1
	}
	perShardEntries := maxEntries / n
	perShardBytes := maxBytes / int64(n)
	shards := make([]*shard[K, V], n)
	for i := range shards {
		shards[i] = &shard[K, V]{
			data:   make(map[K]entry[V]),
			policy: newTwoQueue[K](perShardEntries, perShardBytes, 0.5),
		}
	}
	return &ShardedCache[K, V]{
		name:     name,
		shards:   shards,
		shardLen: uint64(n),
		sizeOf:   sizeOf,
		hashKey:  hashKey,
		keyStr:   keyStr,
	}
}

func (c *ShardedCache[K, V]) shardFor(key K) *shard[K, V] {
	return c.shards[c.hashKey(key)%c.shardLen]
}

// Get returns the cached value for key, recording a hit or miss metric and
// promoting the key toward protected on a second touch.
func (c *ShardedCache[K, V]) Get(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok {
		var zero V
		metrics.CacheMissesTotal.WithLabelValues(c.name).Inc()
		return zero, false
	}
	if s.policy.onGet(key) {
		metrics.CacheHitsTotal.WithLabelValues(c.name, "protected").Inc()
	} else {
		metrics.CacheHitsTotal.WithLabelValues(c.name, "probation").Inc()
	}
	return e.value, true
}

// Put inserts or replaces key, evicting from probation then protected
// until the shard is back within its entry/byte budget.
func (c *ShardedCache[K, V]) Put(key K, value V) {
	size := c.sizeOf(value)
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, exists := s.data[key]; exists {
		s.bytes -= old.size
		s.entries--
		s.policy.remove(key)
	}

	for s.policy.overLimits(s.entries+1, s.bytes+size) {
		victim, queue, ok := s.policy.evictionVictim()
		if !ok {
			break
		}
		if old, exists := s.data[victim]; exists {
			s.bytes -= old.size
			s.entries--
			delete(s.data, victim)
			metrics.CacheEvictionsTotal.WithLabelValues(c.name, queue).Inc()
		}
	}

	s.data[key] = entry[V]{value: value, size: size}
	s.policy.onPut(key)
	s.entries++
	s.bytes += size
	metrics.CachePutsTotal.WithLabelValues(c.name).Inc()
}

// GetOrLoad serves key from the cache, or runs load (at most once across
// concurrent callers sharing the same key) and populates the cache with
// its result. path labels which load latency bucket to record into.
func (c *ShardedCache[K, V]) GetOrLoad(key K, path string, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	timer := metrics.NewTimer()
	v, err, shared := c.sf.Do(c.keyStr(key), func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		loaded, loadErr := load()
		if loadErr != nil {
			return nil, loadErr
		}
		c.Put(key, loaded)
		return loaded, nil
	})
	if shared {
		metrics.CacheSingleFlightDedupTotal.WithLabelValues(c.name).Inc()
	}
	timer.ObserveDurationVec(metrics.CacheLoadLatency, c.name, path)
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Contains reports whether key is present without affecting LRU order.
func (c *ShardedCache[K, V]) Contains(key K) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

// Entries implements metrics.StatsSource.
func (c *ShardedCache[K, V]) Entries() int {
	total := 0
	for _, s := range c.shards {
		s.mu.Lock()
		total += s.entries
		s.mu.Unlock()
	}
	return total
}

// Bytes implements metrics.StatsSource.
func (c *ShardedCache[K, V]) Bytes() int64 {
	var total int64
	for _, s := range c.shards {
		s.mu.Lock()
		total += s.bytes
		s.mu.Unlock()
	}
	return total
}
