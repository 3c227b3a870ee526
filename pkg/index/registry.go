package index

import "fmt"

// Extractor pulls one or more index keys out of an item. Grounded on
// original_source/proto_db/indexes.py's IndexDefinition.extractor contract:
// a single key, or several, all filed under the same index name.
type Extractor func(item any) []any

// Definition names a secondary index and the extractor that populates it.
type Definition struct {
	Name      string
	Extractor Extractor
}

// Registry is an immutable multi-field secondary index: every With* call
// returns a new Registry sharing the unaffected buckets with the original.
// Grounded on original_source/proto_db/indexes.py's IndexRegistry.
//
// Unlike the original's frozenset-of-arbitrary-obj_id buckets, keys and
// object ids are normalized to strings (via fmt.Sprintf's %v) before use
// as Go map keys, since Go maps require comparable key types and this
// registry's callers (pkg/query's plan nodes) already work with
// string-identified rows.
type Registry struct {
	defs []Definition
	data map[string]map[string]map[string]struct{}
}

// NewRegistry returns an empty registry configured with defs.
func NewRegistry(defs []Definition) *Registry {
	return &Registry{defs: defs, data: map[string]map[string]map[string]struct{}{}}
}

// Defs returns the registry's index definitions.
func (r *Registry) Defs() []Definition {
	return r.defs
}

// Get returns the ids filed under key in index indexName.
func (r *Registry) Get(indexName string, key any) []string {
	bucket := r.data[indexName]
	if bucket == nil {
		return nil
	}
	ids := bucket[keyString(key)]
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out
}

func keyString(key any) string { return fmt.Sprintf("%v", key) }

func (r *Registry) clone() *Registry {
	next := &Registry{defs: r.defs, data: make(map[string]map[string]map[string]struct{}, len(r.data))}
	for idxName, bucket := range r.data {
		newBucket := make(map[string]map[string]struct{}, len(bucket))
		for key, ids := range bucket {
			newIDs := make(map[string]struct{}, len(ids))
			for id := range ids {
				newIDs[id] = struct{}{}
			}
			newBucket[key] = newIDs
		}
		next.data[idxName] = newBucket
	}
	return next
}

func (r *Registry) extractions(item any) map[string][]any {
	out := make(map[string][]any, len(r.defs))
	for _, d := range r.defs {
		out[d.Name] = d.Extractor(item)
	}
	return out
}

// WithAdd returns a new Registry with id filed under every key item
// extracts.
func (r *Registry) WithAdd(id string, item any) *Registry {
	next := r.clone()
	for name, keys := range r.extractions(item) {
		bucket := next.data[name]
		if bucket == nil {
			bucket = map[string]map[string]struct{}{}
			next.data[name] = bucket
		}
		for _, key := range keys {
			ks := keyString(key)
			if bucket[ks] == nil {
				bucket[ks] = map[string]struct{}{}
			}
			bucket[ks][id] = struct{}{}
		}
	}
	return next
}

// WithRemove returns a new Registry with id dropped from every key item
// extracts, removing now-empty key buckets.
func (r *Registry) WithRemove(id string, item any) *Registry {
	next := r.clone()
	for name, keys := range r.extractions(item) {
		bucket := next.data[name]
		if bucket == nil {
			continue
		}
		for _, key := range keys {
			ks := keyString(key)
			ids := bucket[ks]
			if ids == nil {
				continue
			}
			delete(ids, id)
			if len(ids) == 0 {
				delete(bucket, ks)
			}
		}
	}
	return next
}

// WithReplace returns a new Registry with id re-filed from oldItem's keys
// to newItem's.
func (r *Registry) WithReplace(id string, oldItem, newItem any) *Registry {
	return r.WithRemove(id, oldItem).WithAdd(id, newItem)
}
