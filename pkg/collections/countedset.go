package collections

import (
	"context"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/pberr"
)

// CountedSet is a multiset variant of Set: iteration yields unique items,
// Count reflects the number of unique items, and TotalCount reflects the
// sum of per-item occurrence counts. Grounded on
// original_source/proto_db/sets.py's CountedSet class.
type CountedSet struct {
	atom.Base

	items   *HashDictionary
	counts  *HashDictionary
	indexes *IndexRegistry
}

// NewCountedSet returns the empty counted set, bound to store.
func NewCountedSet(store atom.Store) *CountedSet {
	return &CountedSet{items: NewHashDictionary(store), counts: NewHashDictionary(store)}
}

func newCountedSetFrom(items, counts *HashDictionary, indexes *IndexRegistry) *CountedSet {
	cs := &CountedSet{items: items, counts: counts, indexes: indexes}
	cs.Bind(items.Store())
	return cs
}

func (cs *CountedSet) ClassName() string { return "CountedSet" }

// Count returns the number of unique elements.
func (cs *CountedSet) Count() int { return cs.items.Count() }

// Indexes returns the secondary indexes attached to this counted set.
func (cs *CountedSet) Indexes() *IndexRegistry { return cs.indexes }

func (cs *CountedSet) Load(ctx context.Context) error {
	cs.MarkLoaded()
	return nil
}

func (cs *CountedSet) Save(ctx context.Context) (atom.Pointer, error) {
	if cs.AlreadySaved() {
		return cs.Pointer(), nil
	}
	itemsPtr, err := cs.items.Save(ctx)
	if err != nil {
		return atom.Pointer{}, err
	}
	countsPtr, err := cs.counts.Save(ctx)
	if err != nil {
		return atom.Pointer{}, err
	}
	payload := map[string]any{
		"className": cs.ClassName(),
		"items":     pointerRef(itemsPtr),
		"counts":    pointerRef(countsPtr),
	}
	if cs.indexes != nil {
		for _, field := range cs.indexes.Fields() {
			dict, _ := cs.indexes.Get(field)
			ptr, err := dict.Save(ctx)
			if err != nil {
				return atom.Pointer{}, err
			}
			payload["index:"+field] = pointerRef(ptr)
		}
	}
	ptr, err := cs.Store().PushAtom(ctx, payload)
	if err != nil {
		return atom.Pointer{}, err
	}
	cs.AssignPointer(ptr)
	return ptr, nil
}

// LoadCountedSet reconstructs a CountedSet rooted at ptr.
func LoadCountedSet(ctx context.Context, store atom.Store, ptr atom.Pointer) (*CountedSet, error) {
	payload, err := store.GetAtom(ctx, ptr)
	if err != nil {
		return nil, err
	}
	className, _ := payload["className"].(string)
	if className != "CountedSet" {
		return nil, pberr.Corruptionf("collections: expected CountedSet payload, got %q", className)
	}

	itemsRef, ok := decodePointerRef(payload["items"])
	if !ok {
		return nil, pberr.Corruptionf("collections: CountedSet payload missing items pointer")
	}
	items, err := LoadHashDictionary(ctx, store, itemsRef)
	if err != nil {
		return nil, err
	}
	countsRef, ok := decodePointerRef(payload["counts"])
	if !ok {
		return nil, pberr.Corruptionf("collections: CountedSet payload missing counts pointer")
	}
	counts, err := LoadHashDictionary(ctx, store, countsRef)
	if err != nil {
		return nil, err
	}

	var indexes *IndexRegistry
	for k, v := range payload {
		const prefix = "index:"
		if len(k) <= len(prefix) || k[:len(prefix)] != prefix {
			continue
		}
		field := k[len(prefix):]
		childPtr, ok := decodePointerRef(v)
		if !ok {
			continue
		}
		dict, err := LoadRepeatedKeysDictionary(ctx, store, childPtr)
		if err != nil {
			return nil, err
		}
		if indexes == nil {
			indexes = NewIndexRegistry()
		}
		indexes = indexes.WithIndex(field, dict, nil)
	}

	cs := newCountedSetFrom(items, counts, indexes)
	cs.AssignPointer(ptr)
	return cs, nil
}

// AsIterable returns every unique element, in HashDictionary key order.
func (cs *CountedSet) AsIterable() []any {
	kvs := cs.items.AsIterable()
	out := make([]any, 0, len(kvs))
	for _, kv := range kvs {
		out = append(out, kv.Value)
	}
	return out
}

// Has reports whether value has ever been added (count > 0).
func (cs *CountedSet) Has(value any) bool {
	return cs.counts.Has(canonicalHash(value))
}

// GetCount returns the number of times value is present.
func (cs *CountedSet) GetCount(value any) int {
	h := canonicalHash(value)
	if v, ok := cs.counts.GetAt(h); ok {
		return toInt(v)
	}
	return 0
}

// TotalCount returns the sum of occurrence counts across all unique items.
func (cs *CountedSet) TotalCount() int {
	total := 0
	for _, kv := range cs.counts.AsIterable() {
		total += toInt(kv.Value)
	}
	return total
}

// Add increments value's occurrence count, adding it to the unique view on
// first insertion (0 -> 1 transition updates indexes; later increments do
// not).
func (cs *CountedSet) Add(value any) *CountedSet {
	if _, ok := value.(*Set); ok {
		return cs
	}
	if _, ok := value.(*CountedSet); ok {
		return cs
	}
	h := canonicalHash(value)
	if cs.counts.Has(h) {
		current := toInt(mustGet(cs.counts, h))
		newCounts := cs.counts.SetAt(h, current+1)
		return newCountedSetFrom(cs.items, newCounts, cs.indexes)
	}

	newItems := cs.items.SetAt(h, value)
	newCounts := cs.counts.SetAt(h, 1)
	newIndexes := cs.indexes
	if newIndexes != nil {
		newIndexes = newIndexes.add2indexes(value)
	}
	return newCountedSetFrom(newItems, newCounts, newIndexes)
}

// RemoveAt decrements value's occurrence count, removing it from the
// unique view on the last-removal (1 -> 0) transition.
func (cs *CountedSet) RemoveAt(value any) *CountedSet {
	h := canonicalHash(value)
	if !cs.counts.Has(h) {
		return cs
	}
	repetition := toInt(mustGet(cs.counts, h)) - 1
	if repetition > 0 {
		return newCountedSetFrom(cs.items, cs.counts.SetAt(h, repetition), cs.indexes)
	}

	newItems := cs.items.RemoveAt(h)
	newCounts := cs.counts.RemoveAt(h)
	newIndexes := cs.indexes
	if newIndexes != nil {
		newIndexes = newIndexes.removeFromIndexes(value)
	}
	return newCountedSetFrom(newItems, newCounts, newIndexes)
}

func mustGet(d *HashDictionary, key uint64) any {
	v, _ := d.GetAt(key)
	return v
}
