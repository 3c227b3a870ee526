package query

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
)

// FieldExtractorFor returns a collections.FieldExtractor that pulls
// attribute off a Record and hashes it with fieldHash. Pair this with
// IndexedSearchPlan: both must derive a field's index key the same way,
// since a List's RepeatedKeysDictionary is keyed purely on the
// extractor's uint64 output with no way to recover the original value.
func FieldExtractorFor(attribute string) func(value any) (uint64, bool) {
	return func(value any) (uint64, bool) {
		rec := asRecord(value)
		v, ok := rec.Get(attribute)
		if !ok {
			return 0, false
		}
		return fieldHash(v), true
	}
}

// fieldHash canonicalizes an attribute value to the uint64 key space
// every secondary index in this module shares: numbers hash by their
// float64 bit pattern so 1 and 1.0 collide, everything else by its
// string form.
func fieldHash(v any) uint64 {
	h := fnv.New64a()
	if f, ok := toFloat(v); ok {
		var buf [9]byte
		buf[0] = 1
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(f))
		h.Write(buf[:])
		return h.Sum64()
	}
	if s, ok := v.(string); ok {
		h.Write([]byte{0})
		h.Write([]byte(s))
		return h.Sum64()
	}
	h.Write([]byte{2})
	h.Write([]byte(fmt.Sprintf("%v", v)))
	return h.Sum64()
}
