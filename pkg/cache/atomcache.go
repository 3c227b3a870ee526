package cache

// AtomCache bundles the bytes and object caches spec.md §4.3 describes as
// a pair ("two caches... both use a 2Q policy"), so storage callers can
// share one config and one pair of single-flight groups.
type AtomCache struct {
	ByteCache *BytesCache
	Object    *ObjectCache
}

// Config bounds the AtomCache's two constituent caches independently,
// mirroring the reference implementation's AtomCacheBundle defaults.
type Config struct {
	ObjectMaxEntries int
	ObjectMaxBytes   int64
	BytesMaxEntries  int
	BytesMaxBytes    int64
	Shards           int
}

// DefaultConfig matches the reference implementation's AtomCacheBundle
// defaults (50k objects / 256MiB, 10k byte-blobs / 64MiB, 64 shards).
func DefaultConfig() Config {
	return Config{
		ObjectMaxEntries: 50_000,
		ObjectMaxBytes:   256 * 1024 * 1024,
		BytesMaxEntries:  10_000,
		BytesMaxBytes:    64 * 1024 * 1024,
		Shards:           64,
	}
}

// NewAtomCache builds an AtomCache from cfg.
func NewAtomCache(cfg Config) *AtomCache {
	return &AtomCache{
		ByteCache: NewBytesCache(cfg.BytesMaxEntries, cfg.BytesMaxBytes, cfg.Shards),
		Object:    NewObjectCache(cfg.ObjectMaxEntries, cfg.ObjectMaxBytes, cfg.Shards),
	}
}

// Entries implements metrics.StatsSource by summing both constituents.
func (c *AtomCache) Entries() int {
	return c.ByteCache.Entries() + c.Object.Entries()
}

// Bytes implements metrics.StatsSource by summing both constituents.
func (c *AtomCache) Bytes() int64 {
	return c.ByteCache.Bytes() + c.Object.Bytes()
}
