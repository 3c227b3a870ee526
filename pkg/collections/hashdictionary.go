package collections

import (
	"context"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/pberr"
)

// HashDictionary is an immutable, AVL-balanced tree keyed by a uint64 hash,
// yielding (key, value) pairs in ascending key order. Grounded on
// original_source/proto_db/hash_dictionaries.py.
type HashDictionary struct {
	atom.Base

	hasKey bool
	key    uint64
	value  any
	count  int
	height int

	previous *HashDictionary
	next     *HashDictionary
}

// NewHashDictionary returns the empty dictionary, bound to store.
func NewHashDictionary(store atom.Store) *HashDictionary {
	d := &HashDictionary{}
	d.Bind(store)
	return d
}

func newHashDictNode(store atom.Store, key uint64, value any, previous, next *HashDictionary) *HashDictionary {
	d := &HashDictionary{hasKey: true, key: key, value: value, previous: previous, next: next}
	d.Bind(store)
	d.recalc()
	return d
}

func (d *HashDictionary) recalc() {
	if !d.hasKey {
		d.count = 0
		d.height = 0
		return
	}
	count := 1
	prevHeight, nextHeight := 0, 0
	if d.previous != nil {
		count += d.previous.count
		prevHeight = d.previous.height
	}
	if d.next != nil {
		count += d.next.count
		nextHeight = d.next.height
	}
	d.count = count
	d.height = 1 + maxInt(prevHeight, nextHeight)
}

func (d *HashDictionary) ClassName() string { return "HashDictionary" }

// Count returns the number of entries.
func (d *HashDictionary) Count() int { return d.count }

// Empty reports whether the dictionary has no entries.
func (d *HashDictionary) Empty() bool { return !d.hasKey }

func (d *HashDictionary) Load(ctx context.Context) error {
	d.MarkLoaded()
	return nil
}

func (d *HashDictionary) Save(ctx context.Context) (atom.Pointer, error) {
	if d.AlreadySaved() {
		return d.Pointer(), nil
	}
	payload := map[string]any{
		"className": d.ClassName(),
		"hasKey":    d.hasKey,
		"count":     d.count,
		"height":    d.height,
	}
	if d.hasKey {
		payload["key"] = d.key
		payload["value"] = d.value
	}
	if d.previous != nil {
		ptr, err := d.previous.Save(ctx)
		if err != nil {
			return atom.Pointer{}, err
		}
		payload["previous"] = pointerRef(ptr)
	}
	if d.next != nil {
		ptr, err := d.next.Save(ctx)
		if err != nil {
			return atom.Pointer{}, err
		}
		payload["next"] = pointerRef(ptr)
	}
	ptr, err := d.Store().PushAtom(ctx, payload)
	if err != nil {
		return atom.Pointer{}, err
	}
	d.AssignPointer(ptr)
	return ptr, nil
}

// LoadHashDictionary reconstructs a HashDictionary rooted at ptr.
func LoadHashDictionary(ctx context.Context, store atom.Store, ptr atom.Pointer) (*HashDictionary, error) {
	payload, err := store.GetAtom(ctx, ptr)
	if err != nil {
		return nil, err
	}
	return hashDictFromPayload(ctx, store, ptr, payload)
}

func hashDictFromPayload(ctx context.Context, store atom.Store, ptr atom.Pointer, payload map[string]any) (*HashDictionary, error) {
	className, _ := payload["className"].(string)
	if className != "HashDictionary" {
		return nil, pberr.Corruptionf("collections: expected HashDictionary payload, got %q", className)
	}
	d := &HashDictionary{}
	d.Bind(store)
	d.hasKey, _ = payload["hasKey"].(bool)
	d.key = toUint64(payload["key"])
	d.value = payload["value"]
	d.count = toInt(payload["count"])
	d.height = toInt(payload["height"])

	if ref, ok := payload["previous"]; ok {
		if childPtr, ok := decodePointerRef(ref); ok {
			prev, err := LoadHashDictionary(ctx, store, childPtr)
			if err != nil {
				return nil, err
			}
			d.previous = prev
		}
	}
	if ref, ok := payload["next"]; ok {
		if childPtr, ok := decodePointerRef(ref); ok {
			next, err := LoadHashDictionary(ctx, store, childPtr)
			if err != nil {
				return nil, err
			}
			d.next = next
		}
	}
	d.AssignPointer(ptr)
	return d, nil
}

// AsIterable returns every (key, value) pair in ascending key order.
func (d *HashDictionary) AsIterable() []KeyValue {
	var out []KeyValue
	var scan func(node *HashDictionary)
	scan = func(node *HashDictionary) {
		if node == nil {
			return
		}
		scan(node.previous)
		if node.hasKey {
			out = append(out, KeyValue{Key: node.key, Value: node.value})
		}
		scan(node.next)
	}
	scan(d)
	return out
}

// KeyValue is one (key, value) pair yielded by AsIterable.
type KeyValue struct {
	Key   uint64
	Value any
}

// GetAt returns the value for key, or (nil, false) if absent.
func (d *HashDictionary) GetAt(key uint64) (any, bool) {
	if !d.hasKey {
		return nil, false
	}
	node := d
	for node != nil {
		if node.key == key {
			return node.value, true
		}
		if key > node.key {
			node = node.next
		} else {
			node = node.previous
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (d *HashDictionary) Has(key uint64) bool {
	_, ok := d.GetAt(key)
	return ok
}

func (d *HashDictionary) balance() int {
	prevHeight, nextHeight := 0, 0
	if d.previous != nil {
		prevHeight = d.previous.height
	}
	if d.next != nil {
		nextHeight = d.next.height
	}
	return balanceFactor(prevHeight, nextHeight)
}

func (d *HashDictionary) rightRotation() *HashDictionary {
	if d.previous == nil {
		return d
	}
	newRight := newHashDictNode(d.Store(), d.key, d.value, d.previous.next, d.next)
	return newHashDictNode(d.Store(), d.previous.key, d.previous.value, d.previous.previous, newRight)
}

func (d *HashDictionary) leftRotation() *HashDictionary {
	if d.next == nil {
		return d
	}
	newLeft := newHashDictNode(d.Store(), d.key, d.value, d.previous, d.next.previous)
	return newHashDictNode(d.Store(), d.next.key, d.next.value, newLeft, d.next.next)
}

func (d *HashDictionary) rebalance() *HashDictionary {
	node := d
	for node.previous != nil && needsRotation(node.previous.balance()) {
		node = newHashDictNode(node.Store(), node.key, node.value, node.previous.rebalance(), node.next)
	}
	for node.next != nil && needsRotation(node.next.balance()) {
		node = newHashDictNode(node.Store(), node.key, node.value, node.previous, node.next.rebalance())
	}

	bf := node.balance()
	if bf < -1 {
		if node.previous != nil && node.previous.balance() > 0 {
			node = newHashDictNode(node.Store(), node.key, node.value, node.previous.leftRotation(), node.next)
		}
		return node.rightRotation()
	}
	if bf > 1 {
		if node.next != nil && node.next.balance() < 0 {
			node = newHashDictNode(node.Store(), node.key, node.value, node.previous, node.next.rightRotation())
		}
		return node.leftRotation()
	}
	return node
}

// SetAt inserts or replaces the value for key.
func (d *HashDictionary) SetAt(key uint64, value any) *HashDictionary {
	if !d.hasKey {
		return newHashDictNode(d.Store(), key, value, nil, nil)
	}

	var newNode *HashDictionary
	switch {
	case key > d.key:
		if d.next != nil {
			newNode = newHashDictNode(d.Store(), d.key, d.value, d.previous, d.next.SetAt(key, value))
		} else {
			newNode = newHashDictNode(d.Store(), d.key, d.value, d.previous, newHashDictNode(d.Store(), key, value, nil, nil))
		}
	case key < d.key:
		if d.previous != nil {
			newNode = newHashDictNode(d.Store(), d.key, d.value, d.previous.SetAt(key, value), d.next)
		} else {
			newNode = newHashDictNode(d.Store(), d.key, d.value, newHashDictNode(d.Store(), key, value, nil, nil), d.next)
		}
	default:
		newNode = newHashDictNode(d.Store(), d.key, value, d.previous, d.next)
	}
	return newNode.rebalance()
}

func (d *HashDictionary) getFirst() (KeyValue, bool) {
	if !d.hasKey {
		return KeyValue{}, false
	}
	node := d
	for node.previous != nil {
		node = node.previous
	}
	return KeyValue{Key: node.key, Value: node.value}, true
}

func (d *HashDictionary) getLast() (KeyValue, bool) {
	if !d.hasKey {
		return KeyValue{}, false
	}
	node := d
	for node.next != nil {
		node = node.next
	}
	return KeyValue{Key: node.key, Value: node.value}, true
}

// RemoveAt drops key, if present; otherwise returns d unchanged.
func (d *HashDictionary) RemoveAt(key uint64) *HashDictionary {
	if !d.hasKey {
		return d
	}

	var newNode *HashDictionary
	switch {
	case key > d.key:
		if d.next != nil {
			newNext := d.next.RemoveAt(key)
			var next *HashDictionary
			if newNext.hasKey {
				next = newNext
			}
			newNode = newHashDictNode(d.Store(), d.key, d.value, d.previous, next)
		} else if d.previous != nil {
			return d.previous
		} else {
			return NewHashDictionary(d.Store())
		}
	case key < d.key:
		if d.previous != nil {
			newPrev := d.previous.RemoveAt(key)
			var prev *HashDictionary
			if newPrev.hasKey {
				prev = newPrev
			}
			newNode = newHashDictNode(d.Store(), d.key, d.value, prev, d.next)
		} else if d.next != nil {
			return d.next
		} else {
			return NewHashDictionary(d.Store())
		}
	default:
		switch {
		case d.next != nil:
			successor, _ := d.next.getFirst()
			newNext := d.next.RemoveAt(successor.Key)
			var next *HashDictionary
			if newNext.hasKey {
				next = newNext
			}
			newNode = newHashDictNode(d.Store(), successor.Key, successor.Value, d.previous, next)
		case d.previous != nil:
			predecessor, _ := d.previous.getLast()
			newPrev := d.previous.RemoveAt(predecessor.Key)
			var prev *HashDictionary
			if newPrev.hasKey {
				prev = newPrev
			}
			newNode = newHashDictNode(d.Store(), predecessor.Key, predecessor.Value, prev, d.next)
		default:
			return NewHashDictionary(d.Store())
		}
	}

	return newNode.rebalance()
}

// Merge returns the union of d and other, with other's values winning on
// key collisions.
func (d *HashDictionary) Merge(other *HashDictionary) *HashDictionary {
	result := d
	for _, kv := range other.AsIterable() {
		result = result.SetAt(kv.Key, kv.Value)
	}
	return result
}
