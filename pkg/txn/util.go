package txn

import "github.com/google/uuid"

// newSlotID mints a fresh mutable-object slot id, folding a random UUID
// down to 64 bits the same way atom.Pointer.Hash does for atom pointers.
// Mirrors common.py's MutableObject defaulting hash_key to uuid.uuid4().int
// when the caller does not supply one, sized to fit a Go map/HashDictionary
// key instead of Python's arbitrary-precision int.
func newSlotID() uint64 {
	id := uuid.New()
	var hi, lo uint64
	for i := 0; i < 8; i++ {
		hi = hi<<8 | uint64(id[i])
	}
	for i := 8; i < 16; i++ {
		lo = lo<<8 | uint64(id[i])
	}
	return hi ^ lo
}

func uuidParse(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}

// toUint64Any coerces a decoded JSON/msgpack numeric value (float64 from
// encoding/json, or already a uint64/int64 from msgpack) into uint64.
func toUint64Any(v any) uint64 {
	switch n := v.(type) {
	case float64:
		return uint64(n)
	case uint64:
		return n
	case int64:
		return uint64(n)
	case int:
		return uint64(n)
	default:
		return 0
	}
}
