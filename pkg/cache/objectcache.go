package cache

import (
	"fmt"

	"github.com/cuemby/protobase/pkg/atom"
)

// ObjectKey identifies a deserialized atom by pointer plus the schema
// epoch it was decoded under, so a schema migration never serves a stale
// decode of the same bytes.
type ObjectKey struct {
	Pointer     atom.Pointer
	SchemaEpoch int32
}

// Hash combines the pointer hash with the schema epoch.
func (k ObjectKey) Hash() uint64 {
	return k.Pointer.Hash() ^ uint64(uint32(k.SchemaEpoch))
}

func (k ObjectKey) String() string {
	return fmt.Sprintf("%s@%d", k.Pointer, k.SchemaEpoch)
}

// sizeOfNode estimates an atom.Node's cache footprint. Nodes don't carry a
// byte-size hint themselves, so a fixed per-object estimate stands in for
// the reference implementation's sys.getsizeof default.
const defaultNodeSizeEstimate = 256

// ObjectCache caches deserialized atoms keyed by (pointer, schema epoch),
// the "object cache" of spec.md §4.3.
type ObjectCache struct {
	*ShardedCache[ObjectKey, atom.Node]
}

// NewObjectCache builds an object cache with the given entry/byte budget.
func NewObjectCache(maxEntries int, maxBytes int64, shards int) *ObjectCache {
	return &ObjectCache{ShardedCache: NewShardedCache(
		"atom_object",
		maxEntries,
		maxBytes,
		shards,
		ObjectKey.Hash,
		ObjectKey.String,
		func(atom.Node) int64 { return defaultNodeSizeEstimate },
	)}
}
