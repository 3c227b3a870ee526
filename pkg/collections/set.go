package collections

import (
	"context"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/pberr"
)

// Set is a mathematical set of unique elements, backed by a HashDictionary
// keyed on each element's canonicalHash. Grounded on
// original_source/proto_db/sets.py's Set class.
//
// Unlike the original, there is no staging HashDictionary for
// not-yet-persisted elements: this package's eager Save already writes the
// whole tree on every Save call, so there is nothing left to defer.
type Set struct {
	atom.Base

	content *HashDictionary
	indexes *IndexRegistry
}

// NewSet returns the empty set, bound to store.
func NewSet(store atom.Store) *Set {
	return &Set{content: NewHashDictionary(store)}
}

func newSetFrom(content *HashDictionary, indexes *IndexRegistry) *Set {
	s := &Set{content: content, indexes: indexes}
	s.Bind(content.Store())
	return s
}

func (s *Set) ClassName() string { return "Set" }

// Count returns the number of unique elements.
func (s *Set) Count() int { return s.content.Count() }

// Empty reports whether the set has no elements.
func (s *Set) Empty() bool { return s.content.Empty() }

// Indexes returns the secondary indexes attached to this set.
func (s *Set) Indexes() *IndexRegistry { return s.indexes }

func (s *Set) Load(ctx context.Context) error {
	s.MarkLoaded()
	return nil
}

func (s *Set) Save(ctx context.Context) (atom.Pointer, error) {
	if s.AlreadySaved() {
		return s.Pointer(), nil
	}
	contentPtr, err := s.content.Save(ctx)
	if err != nil {
		return atom.Pointer{}, err
	}
	payload := map[string]any{
		"className": s.ClassName(),
		"content":   pointerRef(contentPtr),
	}
	if s.indexes != nil {
		for _, field := range s.indexes.Fields() {
			dict, _ := s.indexes.Get(field)
			ptr, err := dict.Save(ctx)
			if err != nil {
				return atom.Pointer{}, err
			}
			payload["index:"+field] = pointerRef(ptr)
		}
	}
	ptr, err := s.Store().PushAtom(ctx, payload)
	if err != nil {
		return atom.Pointer{}, err
	}
	s.AssignPointer(ptr)
	return ptr, nil
}

// LoadSet reconstructs a Set rooted at ptr.
func LoadSet(ctx context.Context, store atom.Store, ptr atom.Pointer) (*Set, error) {
	payload, err := store.GetAtom(ctx, ptr)
	if err != nil {
		return nil, err
	}
	className, _ := payload["className"].(string)
	if className != "Set" {
		return nil, pberr.Corruptionf("collections: expected Set payload, got %q", className)
	}

	contentRef, ok := decodePointerRef(payload["content"])
	if !ok {
		return nil, pberr.Corruptionf("collections: Set payload missing content pointer")
	}
	content, err := LoadHashDictionary(ctx, store, contentRef)
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

	s := newSetFrom(content, indexes)
	s.AssignPointer(ptr)
	return s, nil
}

// AsIterable returns every element of the set, in the underlying
// HashDictionary's key order.
func (s *Set) AsIterable() []any {
	kvs := s.content.AsIterable()
	out := make([]any, 0, len(kvs))
	for _, kv := range kvs {
		out = append(out, kv.Value)
	}
	return out
}

// Has reports whether value is a member of the set.
func (s *Set) Has(value any) bool {
	return s.content.Has(canonicalHash(value))
}

// Add returns a new Set containing value, or s unchanged if already present.
func (s *Set) Add(value any) *Set {
	if _, ok := value.(*Set); ok {
		return s
	}
	if _, ok := value.(*CountedSet); ok {
		return s
	}
	if s.Has(value) {
		return s
	}
	newContent := s.content.SetAt(canonicalHash(value), value)
	newIndexes := s.indexes
	if newIndexes != nil {
		newIndexes = newIndexes.add2indexes(value)
	}
	return newSetFrom(newContent, newIndexes)
}

// RemoveAt returns a new Set without value, or s unchanged if absent.
func (s *Set) RemoveAt(value any) *Set {
	if !s.Has(value) {
		return s
	}
	newContent := s.content.RemoveAt(canonicalHash(value))
	newIndexes := s.indexes
	if newIndexes != nil {
		newIndexes = newIndexes.removeFromIndexes(value)
	}
	return newSetFrom(newContent, newIndexes)
}

// AddIndex attaches a secondary index over field to the set, built from
// the current membership.
func (s *Set) AddIndex(fieldName string, extract FieldExtractor) *Set {
	idx := NewRepeatedKeysDictionary(s.Store())
	for _, v := range s.AsIterable() {
		if key, ok := extract(v); ok {
			idx = idx.SetAt(key, v)
		}
	}
	indexes := s.indexes
	if indexes == nil {
		indexes = NewIndexRegistry()
	}
	return newSetFrom(s.content, indexes.WithIndex(fieldName, idx, extract))
}

// RemoveIndex detaches fieldName's secondary index.
func (s *Set) RemoveIndex(fieldName string) *Set {
	if !s.indexes.Has(fieldName) {
		return s
	}
	return newSetFrom(s.content, s.indexes.WithoutIndex(fieldName))
}

// Union returns the set of elements present in s or other.
func (s *Set) Union(other *Set) *Set {
	result := s
	for _, v := range other.AsIterable() {
		result = result.Add(v)
	}
	return result
}

// Intersection returns the set of elements present in both s and other.
func (s *Set) Intersection(other *Set) *Set {
	result := NewSet(s.Store())
	for _, v := range s.AsIterable() {
		if other.Has(v) {
			result = result.Add(v)
		}
	}
	return result
}

// Difference returns the set of elements present in s but not in other.
func (s *Set) Difference(other *Set) *Set {
	result := NewSet(s.Store())
	for _, v := range s.AsIterable() {
		if !other.Has(v) {
			result = result.Add(v)
		}
	}
	return result
}
