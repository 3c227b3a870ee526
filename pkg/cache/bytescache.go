package cache

import "github.com/cuemby/protobase/pkg/atom"

// BytesCache caches raw atom payloads keyed by atom.Pointer, the "bytes
// cache" of spec.md §4.3.
type BytesCache struct {
	*ShardedCache[atom.Pointer, []byte]
}

// NewBytesCache builds a bytes cache with the given entry/byte budget.
func NewBytesCache(maxEntries int, maxBytes int64, shards int) *BytesCache {
	return &BytesCache{ShardedCache: NewShardedCache(
		"atom_bytes",
		maxEntries,
		maxBytes,
		shards,
		atom.Pointer.Hash,
		atom.Pointer.String,
		func(b []byte) int64 { return int64(len(b)) },
	)}
}
