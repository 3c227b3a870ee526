package collections

import (
	"context"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/pberr"
)

// RepeatedKeysDictionary maps a uint64 index key to the Set of elements
// that hash to it, backing every secondary index in IndexRegistry.
//
// The original implementation (original_source/proto_db/dictionaries.py)
// layers RepeatedKeysDictionary over the string-keyed Dictionary/List.
// Here it is layered over HashDictionary instead, keyed directly on the
// uint64 FieldExtractor already used throughout this package's
// IndexRegistry contract, so one bucket representation serves every index
// regardless of whether the indexed field is a string, a number, or a
// pointer hash.
type RepeatedKeysDictionary struct {
	atom.Base

	buckets *HashDictionary
}

// NewRepeatedKeysDictionary returns an empty index, bound to store.
func NewRepeatedKeysDictionary(store atom.Store) *RepeatedKeysDictionary {
	return &RepeatedKeysDictionary{buckets: NewHashDictionary(store)}
}

func newRepeatedKeysDictFrom(buckets *HashDictionary) *RepeatedKeysDictionary {
	r := &RepeatedKeysDictionary{buckets: buckets}
	r.Bind(buckets.Store())
	return r
}

func (r *RepeatedKeysDictionary) ClassName() string { return "RepeatedKeysDictionary" }

// Count returns the number of distinct keys.
func (r *RepeatedKeysDictionary) Count() int { return r.buckets.Count() }

func (r *RepeatedKeysDictionary) Load(ctx context.Context) error {
	r.MarkLoaded()
	return nil
}

func (r *RepeatedKeysDictionary) Save(ctx context.Context) (atom.Pointer, error) {
	if r.AlreadySaved() {
		return r.Pointer(), nil
	}
	bucketsPtr, err := r.buckets.Save(ctx)
	if err != nil {
		return atom.Pointer{}, err
	}
	payload := map[string]any{
		"className": r.ClassName(),
		"buckets":   pointerRef(bucketsPtr),
	}
	ptr, err := r.Store().PushAtom(ctx, payload)
	if err != nil {
		return atom.Pointer{}, err
	}
	r.AssignPointer(ptr)
	return ptr, nil
}

// LoadRepeatedKeysDictionary reconstructs a RepeatedKeysDictionary rooted
// at ptr.
func LoadRepeatedKeysDictionary(ctx context.Context, store atom.Store, ptr atom.Pointer) (*RepeatedKeysDictionary, error) {
	payload, err := store.GetAtom(ctx, ptr)
	if err != nil {
		return nil, err
	}
	className, _ := payload["className"].(string)
	if className != "RepeatedKeysDictionary" {
		return nil, pberr.Corruptionf("collections: expected RepeatedKeysDictionary payload, got %q", className)
	}
	bucketsRef, ok := decodePointerRef(payload["buckets"])
	if !ok {
		return nil, pberr.Corruptionf("collections: RepeatedKeysDictionary payload missing buckets pointer")
	}
	buckets, err := LoadHashDictionary(ctx, store, bucketsRef)
	if err != nil {
		return nil, err
	}
	r := newRepeatedKeysDictFrom(buckets)
	r.AssignPointer(ptr)
	return r, nil
}

// GetAt returns the bucket of elements stored under key.
func (r *RepeatedKeysDictionary) GetAt(key uint64) (*Set, bool) {
	v, ok := r.buckets.GetAt(key)
	if !ok {
		return nil, false
	}
	set, ok := v.(*Set)
	return set, ok
}

// Has reports whether key has any associated records.
func (r *RepeatedKeysDictionary) Has(key uint64) bool {
	return r.buckets.Has(key)
}

// SetAt adds value to key's bucket, creating the bucket if necessary.
func (r *RepeatedKeysDictionary) SetAt(key uint64, value any) *RepeatedKeysDictionary {
	bucket, ok := r.GetAt(key)
	if !ok {
		bucket = NewSet(r.buckets.Store())
	}
	bucket = bucket.Add(value)
	return newRepeatedKeysDictFrom(r.buckets.SetAt(key, bucket))
}

// RemoveRecordAt removes value from key's bucket, dropping the bucket
// entirely once it becomes empty.
func (r *RepeatedKeysDictionary) RemoveRecordAt(key uint64, value any) *RepeatedKeysDictionary {
	bucket, ok := r.GetAt(key)
	if !ok {
		return r
	}
	bucket = bucket.RemoveAt(value)
	if bucket.Empty() {
		return newRepeatedKeysDictFrom(r.buckets.RemoveAt(key))
	}
	return newRepeatedKeysDictFrom(r.buckets.SetAt(key, bucket))
}

// RemoveAt drops key's whole bucket.
func (r *RepeatedKeysDictionary) RemoveAt(key uint64) *RepeatedKeysDictionary {
	if !r.Has(key) {
		return r
	}
	return newRepeatedKeysDictFrom(r.buckets.RemoveAt(key))
}

// AsIterable returns every (key, bucket) pair in ascending key order.
func (r *RepeatedKeysDictionary) AsIterable() []KeyValue {
	return r.buckets.AsIterable()
}
