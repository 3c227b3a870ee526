package atom

import (
	"encoding/json"
	"time"

	"github.com/cuemby/protobase/pkg/pberr"
	"github.com/vmihailenco/msgpack/v5"
)

// Format is the WAL record's format indicator byte (spec.md §6.2). A
// record with no format byte (legacy) decodes as JSON.
type Format byte

const (
	FormatJSON    Format = 0x01
	FormatMsgpack Format = 0x02
)

// EncodePayload serializes an atom payload map under the given format.
func EncodePayload(payload map[string]any, format Format) ([]byte, error) {
	switch format {
	case FormatMsgpack:
		b, err := msgpack.Marshal(payload)
		if err != nil {
			return nil, pberr.Unexpectedf("atom: msgpack encode: %v", err)
		}
		return b, nil
	case FormatJSON, 0:
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, pberr.Unexpectedf("atom: json encode: %v", err)
		}
		return b, nil
	default:
		return nil, pberr.Validationf("atom: unknown format indicator 0x%02x", byte(format))
	}
}

// DecodePayload reverses EncodePayload. A zero format value is treated as
// legacy JSON, matching "absence indicates legacy JSON".
func DecodePayload(data []byte, format Format) (map[string]any, error) {
	switch format {
	case FormatMsgpack:
		var payload map[string]any
		if err := msgpack.Unmarshal(data, &payload); err != nil {
			return nil, pberr.Corruptionf("atom: msgpack decode: %v", err)
		}
		return payload, nil
	case FormatJSON, 0:
		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, pberr.Corruptionf("atom: json decode: %v", err)
		}
		return payload, nil
	default:
		return nil, pberr.Corruptionf("atom: unknown format indicator 0x%02x", byte(format))
	}
}

// FromPayload reconstructs a Node from a decoded payload map using the
// className dispatch described in spec.md §4.5: known classes go through
// the registry; an unmatched className becomes a Generic attribute bag
// rather than a corruption error, since ProtoBase's registry is explicit
// and per-process, not every reader registers every user type.
func FromPayload(reg *Registry, store Store, payload map[string]any) (Node, error) {
	className, _ := payload["className"].(string)
	if className == "" {
		return nil, pberr.Corruptionf("atom: payload missing className")
	}

	node, ok := reg.New(className)
	if !ok {
		attrs := make(map[string]any, len(payload))
		for k, v := range payload {
			if k == "className" {
				continue
			}
			attrs[k] = v
		}
		g := NewGeneric(store, className, attrs)
		return g, nil
	}

	switch n := node.(type) {
	case *Literal:
		n.Bind(store)
		if err := n.fromPayload(payload); err != nil {
			return nil, err
		}
	case *BytesAtom:
		n.Bind(store)
		txIDStr, _ := payload["transaction_id"].(string)
		offset, _ := payload["offset"].(float64)
		txID, err := parseUUID(txIDStr)
		if err != nil {
			return nil, err
		}
		n.AssignPointer(Pointer{TransactionID: txID, Offset: uint64(offset)})
	case *RootObject:
		n.Bind(store)
		if created, ok := payload["created_at"].(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
				n.CreatedAt = t
			}
		}
		if ref, ok := payload["object_root"].(map[string]any); ok {
			ptr, err := decodeRef(ref)
			if err != nil {
				return nil, err
			}
			n.ObjectRoot = ptr
		}
		if ref, ok := payload["literal_root"].(map[string]any); ok {
			ptr, err := decodeRef(ref)
			if err != nil {
				return nil, err
			}
			n.LiteralRoot = ptr
		}
	}
	return node, nil
}

func decodeRef(ref map[string]any) (Pointer, error) {
	txIDStr, _ := ref["transaction_id"].(string)
	offset, _ := ref["offset"].(float64)
	txID, err := parseUUID(txIDStr)
	if err != nil {
		return Pointer{}, err
	}
	return Pointer{TransactionID: txID, Offset: uint64(offset)}, nil
}
