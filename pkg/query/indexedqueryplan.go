package query

import (
	"context"

	"github.com/cuemby/protobase/pkg/collections"
)

// IndexedQueryPlan wraps a *collections.List (or *collections.Set) that
// carries one or more secondary indexes, declaring which attribute
// names are available for indexed lookup. Grounded on queries.py's
// IndexedQueryPlan.
type IndexedQueryPlan struct {
	Based  Plan
	Source indexedCollection
	Fields []string
}

// indexedCollection is the shape IndexedSearchPlan needs to go straight
// to a bucket instead of scanning: both *collections.List and
// *collections.Set implement it.
type indexedCollection interface {
	AsIterable() []any
	Indexes() *collections.IndexRegistry
	Count() int
}

// NewIndexedQueryPlan wraps source, exposing every attribute it has
// actually built a secondary index for.
func NewIndexedQueryPlan(based Plan, source indexedCollection, fields ...string) *IndexedQueryPlan {
	declared := make([]string, 0, len(fields))
	for _, f := range fields {
		if source.Indexes().Has(f) {
			declared = append(declared, f)
		}
	}
	return &IndexedQueryPlan{Based: based, Source: source, Fields: declared}
}

// HasIndex reports whether field has a usable secondary index.
func (p *IndexedQueryPlan) HasIndex(field string) bool {
	for _, f := range p.Fields {
		if f == field {
			return true
		}
	}
	return false
}

func (p *IndexedQueryPlan) Execute(ctx context.Context) ([]Record, error) {
	return p.Based.Execute(ctx)
}

func (p *IndexedQueryPlan) Optimize(full Plan) Plan {
	p.Based = p.Based.Optimize(full)
	return p
}

// FastCount reports the backing collection's own O(1) element count.
func (p *IndexedQueryPlan) FastCount() (int, bool) { return p.Source.Count(), true }
