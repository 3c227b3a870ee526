package collections

import "github.com/cuemby/protobase/pkg/pberr"

// balanceFactor is height(right) - height(left), the shared AVL invariant
// check used by every collection in this package (spec'd as "shared AVL
// mechanics"). A factor outside [-1, 1] means a rotation is due.
func balanceFactor(leftHeight, rightHeight int) int {
	return rightHeight - leftHeight
}

func needsRotation(bf int) bool {
	return bf < -1 || bf > 1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ErrOutOfRange is returned by offset/key accessors asked to operate past
// a collection's bounds (e.g. List.SetAt at an offset > count).
var ErrOutOfRange = pberr.Validationf("collections: offset out of range")

// FieldExtractor pulls the indexed key out of a collection element.
type FieldExtractor func(value any) (key uint64, ok bool)

// indexEntry pairs an index's backing dictionary with the extractor that
// built it, so a later mutation can recompute which bucket an affected
// element belongs to.
type indexEntry struct {
	dict    *RepeatedKeysDictionary
	extract FieldExtractor
}

// IndexRegistry tracks field-name -> RepeatedKeysDictionary secondary
// indexes attached to a List, Dictionary, or Set. It is itself immutable:
// AddIndex/RemoveIndex return a new registry.
type IndexRegistry struct {
	byField map[string]indexEntry
}

// NewIndexRegistry returns an empty registry.
func NewIndexRegistry() *IndexRegistry {
	return &IndexRegistry{byField: map[string]indexEntry{}}
}

// Has reports whether fieldName already has an index.
func (r *IndexRegistry) Has(fieldName string) bool {
	if r == nil {
		return false
	}
	_, ok := r.byField[fieldName]
	return ok
}

// Get returns the RepeatedKeysDictionary backing fieldName's index.
func (r *IndexRegistry) Get(fieldName string) (*RepeatedKeysDictionary, bool) {
	if r == nil {
		return nil, false
	}
	e, ok := r.byField[fieldName]
	return e.dict, ok
}

// WithIndex returns a new registry with fieldName's index (and its
// extractor) replaced.
func (r *IndexRegistry) WithIndex(fieldName string, dict *RepeatedKeysDictionary, extract FieldExtractor) *IndexRegistry {
	next := &IndexRegistry{byField: make(map[string]indexEntry, len(r.byField)+1)}
	for k, v := range r.byField {
		next.byField[k] = v
	}
	next.byField[fieldName] = indexEntry{dict: dict, extract: extract}
	return next
}

// WithoutIndex returns a new registry with fieldName's index dropped.
func (r *IndexRegistry) WithoutIndex(fieldName string) *IndexRegistry {
	next := &IndexRegistry{byField: make(map[string]indexEntry, len(r.byField))}
	for k, v := range r.byField {
		if k != fieldName {
			next.byField[k] = v
		}
	}
	return next
}

// Fields lists every indexed field name.
func (r *IndexRegistry) Fields() []string {
	if r == nil {
		return nil
	}
	fields := make([]string, 0, len(r.byField))
	for k := range r.byField {
		fields = append(fields, k)
	}
	return fields
}

// add2indexes adds value to every index in r, using each index's own
// extractor to compute its key; an extractor that can't classify value
// leaves that index unchanged.
func (r *IndexRegistry) add2indexes(value any) *IndexRegistry {
	if r == nil || len(r.byField) == 0 {
		return r
	}
	next := &IndexRegistry{byField: make(map[string]indexEntry, len(r.byField))}
	for field, e := range r.byField {
		key, ok := e.extract(value)
		if !ok {
			next.byField[field] = e
			continue
		}
		next.byField[field] = indexEntry{dict: e.dict.SetAt(key, value), extract: e.extract}
	}
	return next
}

// removeFromIndexes removes value from every index in r.
func (r *IndexRegistry) removeFromIndexes(value any) *IndexRegistry {
	if r == nil || len(r.byField) == 0 {
		return r
	}
	next := &IndexRegistry{byField: make(map[string]indexEntry, len(r.byField))}
	for field, e := range r.byField {
		key, ok := e.extract(value)
		if !ok {
			next.byField[field] = e
			continue
		}
		next.byField[field] = indexEntry{dict: e.dict.RemoveRecordAt(key, value), extract: e.extract}
	}
	return next
}
