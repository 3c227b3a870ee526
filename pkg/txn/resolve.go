package txn

import (
	"context"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/collections"
	"github.com/cuemby/protobase/pkg/pberr"
)

// refMap encodes a reference to a saved Node the way DBObject attributes,
// root-catalog entries, and mutable slots all store pointers to other
// atoms: a className tag plus the pointer's two fields. Mirrors
// common.py's Atom._dict_to_json reference encoding.
func refMap(className string, ptr atom.Pointer) map[string]any {
	return map[string]any{
		"className":      className,
		"transaction_id": ptr.TransactionID.String(),
		"offset":         ptr.Offset,
	}
}

func decodeRefMap(v any) (className string, ptr atom.Pointer, ok bool) {
	m, isMap := v.(map[string]any)
	if !isMap {
		return "", atom.Pointer{}, false
	}
	className, _ = m["className"].(string)
	if className == "" {
		return "", atom.Pointer{}, false
	}
	txIDStr, _ := m["transaction_id"].(string)
	txID, err := uuidParse(txIDStr)
	if err != nil {
		return "", atom.Pointer{}, false
	}
	offset := toUint64Any(m["offset"])
	return className, atom.Pointer{TransactionID: txID, Offset: offset}, true
}

// resolveRef reconstructs whatever className/ptr refers to: a collection
// (List/HashDictionary/Dictionary/Set/CountedSet/RepeatedKeysDictionary),
// a Literal (unwrapped to its plain string value, since Go has no
// operator-overloading equivalent of Literal's __eq__/__str__ duck-typing
// over strings), a DBObject-shaped user class, or anything else the
// top-level atom registry knows via atom.FromPayload (BytesAtom,
// RootObject, Generic).
func resolveRef(ctx context.Context, t *Transaction, className string, ptr atom.Pointer) (any, error) {
	store := t.database.objectSpace.store.AsStore()

	switch className {
	case "List":
		return collections.LoadList(ctx, store, ptr)
	case "HashDictionary":
		return collections.LoadHashDictionary(ctx, store, ptr)
	case "Dictionary":
		return collections.LoadDictionary(ctx, store, ptr)
	case "Set":
		return collections.LoadSet(ctx, store, ptr)
	case "CountedSet":
		return collections.LoadCountedSet(ctx, store, ptr)
	case "RepeatedKeysDictionary":
		return collections.LoadRepeatedKeysDictionary(ctx, store, ptr)
	case "Literal":
		payload, err := store.GetAtom(ctx, ptr)
		if err != nil {
			return nil, err
		}
		node, err := atom.FromPayload(t.database.objectSpace.registry, store, payload)
		if err != nil {
			return nil, err
		}
		lit, ok := node.(*atom.Literal)
		if !ok {
			return nil, pberr.Corruptionf("txn: expected Literal payload, got %T", node)
		}
		return lit.Value, nil
	default:
		if t.database.objectSpace.isDBObjectClass(className) {
			return LoadDBObject(ctx, t, className, ptr)
		}
		payload, err := store.GetAtom(ctx, ptr)
		if err != nil {
			return nil, err
		}
		return atom.FromPayload(t.database.objectSpace.registry, store, payload)
	}
}
