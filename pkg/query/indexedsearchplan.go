package query

import "context"

// IndexedSearchPlan looks a single key up directly in an
// IndexedQueryPlan's secondary index, instead of scanning every
// element. The optimizer produces this by rewriting a WherePlan's
// equality Term over an indexed attribute. Grounded on queries.py's
// IndexedSearchPlan.
type IndexedSearchPlan struct {
	Source *IndexedQueryPlan
	Field  string
	Key    any
}

func (p *IndexedSearchPlan) Execute(ctx context.Context) ([]Record, error) {
	registry := p.Source.Source.Indexes()
	bucket, ok := registry.Get(p.Field)
	if !ok {
		return nil, nil
	}
	set, ok := bucket.GetAt(fieldHash(p.Key))
	if !ok {
		return nil, nil
	}
	items := set.AsIterable()
	out := make([]Record, 0, len(items))
	for _, item := range items {
		rec := asRecord(item)
		// the bucket may hold hash collisions from distinct values;
		// confirm the field actually matches before returning a row.
		if v, ok := rec.Get(p.Field); ok && compareEqual(v, p.Key) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (p *IndexedSearchPlan) Optimize(full Plan) Plan { return p }
