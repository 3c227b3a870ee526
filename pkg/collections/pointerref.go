package collections

import (
	"github.com/google/uuid"

	"github.com/cuemby/protobase/pkg/atom"
)

// pointerRef/decodePointerRef mirror pkg/atom's own private helpers of the
// same shape (RootObject.Save/FromPayload): pkg/atom deliberately keeps no
// dependency on pkg/collections, so every collection that embeds a pointer
// to a sibling node inside its own payload encodes/decodes it locally.
func pointerRef(p atom.Pointer) map[string]any {
	return map[string]any{
		"transaction_id": p.TransactionID.String(),
		"offset":         p.Offset,
	}
}

func decodePointerRef(v any) (atom.Pointer, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return atom.Pointer{}, false
	}
	idStr, _ := m["transaction_id"].(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return atom.Pointer{}, false
	}
	return atom.Pointer{TransactionID: id, Offset: toUint64(m["offset"])}, true
}

// toInt/toUint64 coerce the numeric types atom.DecodePayload may hand back
// (float64 from JSON, int64/uint64 from msgpack) into the type this package
// works in natively.
func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	case uint64:
		return int(n)
	default:
		return 0
	}
}

func toUint64(v any) uint64 {
	switch n := v.(type) {
	case float64:
		return uint64(n)
	case int64:
		return uint64(n)
	case uint64:
		return n
	case int:
		return uint64(n)
	default:
		return 0
	}
}
