package txn

import (
	"context"
	"time"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/pberr"
)

// DBObject is an immutable, dynamically-attributed record: reading a name
// that was never set returns (nil, false) rather than an error, and
// "changing" an attribute returns a new DBObject rather than mutating this
// one in place. Grounded on common.py's DBObject.
//
// String-valued attributes are interned as Literals and resolved back to
// plain Go strings on read: the original keeps them as Literal instances
// that duck-type as strings via __eq__/__str__/__add__, which Go has no
// equivalent of, so this port unwraps eagerly at the attribute boundary
// instead of asking every caller to special-case a Literal wrapper type.
type DBObject struct {
	txn   *Transaction
	class string
	attrs map[string]any

	pointer atom.Pointer
	state   atom.State
}

// NewDBObject returns a fresh, unsaved DBObject of the given class (use
// "DBObject" for the base, anonymous-bag case) with attrs as its initial
// fields. attrs may be nil for an empty object.
func NewDBObject(t *Transaction, class string, attrs map[string]any) *DBObject {
	if class == "" {
		class = "DBObject"
	}
	copied := make(map[string]any, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	return &DBObject{txn: t, class: class, attrs: copied}
}

func (o *DBObject) ClassName() string { return o.class }

func (o *DBObject) Pointer() atom.Pointer { return o.pointer }

func (o *DBObject) State() atom.State { return o.state }

func (o *DBObject) Load(ctx context.Context) error {
	if o.state == atom.StateUnloaded {
		o.state = atom.StateLoaded
	}
	return nil
}

// Get returns the value of attribute name, or (nil, false) if unset.
func (o *DBObject) Get(name string) (any, bool) {
	v, ok := o.attrs[name]
	return v, ok
}

// With returns a new DBObject equal to o except attribute name is set to
// value; o itself is left untouched, matching the original's enforced
// immutability.
func (o *DBObject) With(name string, value any) *DBObject {
	next := NewDBObject(o.txn, o.class, o.attrs)
	next.attrs[name] = value
	return next
}

// Without returns a new DBObject with attribute name removed.
func (o *DBObject) Without(name string) *DBObject {
	next := NewDBObject(o.txn, o.class, o.attrs)
	delete(next.attrs, name)
	return next
}

// Save persists o, interning string attributes as Literals and
// recursively saving any attribute that is itself an atom.Node.
func (o *DBObject) Save(ctx context.Context) (atom.Pointer, error) {
	if o.state == atom.StateSaved {
		return o.pointer, nil
	}

	payload := map[string]any{"className": o.class}
	for name, value := range o.attrs {
		encoded, err := o.encodeAttr(ctx, value)
		if err != nil {
			return atom.Pointer{}, err
		}
		if encoded == nil && value != nil {
			continue
		}
		payload[name] = encoded
	}

	ptr, err := o.txn.store().PushAtom(ctx, payload)
	if err != nil {
		return atom.Pointer{}, err
	}
	o.pointer = ptr
	o.state = atom.StateSaved
	return ptr, nil
}

func (o *DBObject) encodeAttr(ctx context.Context, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		// SetRootObject and Commit call Save while holding o.txn.mu, so the
		// literal is interned here directly instead of through GetLiteral.
		lit, ok := o.txn.newLiterals[v]
		if !ok {
			interned, found, err := o.txn.database.GetLiteral(ctx, v)
			if err != nil {
				return nil, err
			}
			if found {
				lit = interned
			} else {
				lit = atom.NewLiteral(o.txn.store(), v)
				o.txn.newLiterals[v] = lit
			}
		}
		ptr, err := lit.Save(ctx)
		if err != nil {
			return nil, err
		}
		return refMap("Literal", ptr), nil
	case atom.Node:
		ptr, err := v.Save(ctx)
		if err != nil {
			return nil, err
		}
		return refMap(v.ClassName(), ptr), nil
	case time.Time:
		return map[string]any{"className": "datetime.datetime", "iso": v.Format(time.RFC3339Nano)}, nil
	default:
		return value, nil
	}
}

// LoadDBObject reconstructs the DBObject of class className persisted at
// ptr.
func LoadDBObject(ctx context.Context, t *Transaction, className string, ptr atom.Pointer) (*DBObject, error) {
	payload, err := t.store().GetAtom(ctx, ptr)
	if err != nil {
		return nil, err
	}
	stored, _ := payload["className"].(string)
	if stored == "" {
		return nil, pberr.Corruptionf("txn: DBObject payload missing className")
	}
	attrs := make(map[string]any, len(payload))
	for name, raw := range payload {
		if name == "className" {
			continue
		}
		decoded, err := decodeAttr(ctx, t, raw)
		if err != nil {
			return nil, err
		}
		attrs[name] = decoded
	}
	obj := &DBObject{txn: t, class: stored, attrs: attrs, pointer: ptr, state: atom.StateSaved}
	return obj, nil
}

func decodeAttr(ctx context.Context, t *Transaction, raw any) (any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return raw, nil
	}
	className, _ := m["className"].(string)
	switch className {
	case "datetime.datetime":
		iso, _ := m["iso"].(string)
		parsed, err := time.Parse(time.RFC3339Nano, iso)
		if err != nil {
			return nil, pberr.Corruptionf("txn: malformed datetime attribute: %v", err)
		}
		return parsed, nil
	case "":
		return raw, nil
	default:
		_, ptr, ok := decodeRefMap(raw)
		if !ok {
			return raw, nil
		}
		return t.readObjectCached(ctx, className, ptr)
	}
}
