package cache

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/cuemby/protobase/pkg/metrics"
	"github.com/cuemby/protobase/pkg/storage"
)

// PageKey identifies one fixed-size page of one WAL file.
type PageKey struct {
	WALID      uuid.UUID
	PageNumber uint64
}

func (k PageKey) hash() uint64 {
	hi := uint64(0)
	for i := 0; i < 8; i++ {
		hi = hi<<8 | uint64(k.WALID[i])
	}
	lo := uint64(0)
	for i := 8; i < 16; i++ {
		lo = lo<<8 | uint64(k.WALID[i])
	}
	return hi ^ lo ^ k.PageNumber
}

func (k PageKey) String() string {
	return fmt.Sprintf("%s:%d", k.WALID, k.PageNumber)
}

// PageReader is the subset of storage.BlockProvider a PageCache needs to
// fill a miss: a random-access reader over a WAL starting at a byte offset.
type PageReader interface {
	Reader(walID uuid.UUID, offset uint64) (storage.ReadStreamer, error)
}

// PageCache caches raw WAL pages keyed by (wal_id, page_number), per
// spec.md §4.2. Capacity is floor(cacheBytes / pageSize) pages, split
// evenly across shards and evicted by plain LRU.
type PageCache struct {
	pageSize int64
	shards   []*lruShard[PageKey, []byte]
	shardLen uint64
	sf       singleflight.Group
}

// NewPageCache builds a page cache with room for floor(cacheBytes/pageSize)
// pages total.
func NewPageCache(cacheBytes int64, pageSize int64, numShards int) *PageCache {
	n := 1
	for n < numShards {
		n <<= 1
	}
	maxPages := int(cacheBytes / pageSize)
	perShard := maxPages / n
	shards := make([]*lruShard[PageKey, []byte], n)
	sizeOf := func(b []byte) int64 { return int64(len(b)) }
	for i := range shards {
		shards[i] = newLRUShard[PageKey, []byte](perShard, sizeOf)
	}
	return &PageCache{pageSize: pageSize, shards: shards, shardLen: uint64(n)}
}

func (c *PageCache) shardFor(key PageKey) *lruShard[PageKey, []byte] {
	return c.shards[key.hash()%c.shardLen]
}

// Get returns the cached page, if present.
func (c *PageCache) Get(key PageKey) ([]byte, bool) {
	v, ok := c.shardFor(key).get(key)
	if ok {
		metrics.CacheHitsTotal.WithLabelValues("page", "lru").Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues("page").Inc()
	}
	return v, ok
}

// Put inserts or replaces a page.
func (c *PageCache) Put(key PageKey, data []byte) {
	c.shardFor(key).put(key, data)
	metrics.CachePutsTotal.WithLabelValues("page").Inc()
}

// GetOrLoad serves a page from cache, or reads exactly one page's worth of
// bytes (PageNumber * pageSize .. +pageSize, truncated at EOF) from
// reader's pooled random-access reader on miss, deduplicating concurrent
// loads of the same page via single-flight.
func (c *PageCache) GetOrLoad(key PageKey, reader PageReader) ([]byte, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	timer := metrics.NewTimer()
	v, err, shared := c.sf.Do(key.String(), func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		rs, openErr := reader.Reader(key.WALID, key.PageNumber*uint64(c.pageSize))
		if openErr != nil {
			return nil, openErr
		}
		defer rs.Close()

		buf := make([]byte, c.pageSize)
		n, readErr := io.ReadFull(rs, buf)
		if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
			return nil, readErr
		}
		page := buf[:n]
		c.Put(key, page)
		return page, nil
	})
	if shared {
		metrics.CacheSingleFlightDedupTotal.WithLabelValues("page").Inc()
	}
	timer.ObserveDurationVec(metrics.CacheLoadLatency, "page", "read")
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Entries implements metrics.StatsSource.
func (c *PageCache) Entries() int {
	total := 0
	for _, s := range c.shards {
		total += s.entries()
	}
	return total
}

// Bytes implements metrics.StatsSource.
func (c *PageCache) Bytes() int64 {
	var total int64
	for _, s := range c.shards {
		total += s.totalBytes()
	}
	return total
}
