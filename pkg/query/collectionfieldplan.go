package query

import "context"

// FieldBuilder computes a derived value from a record, for
// CollectionFieldPlan's computed projection.
type FieldBuilder func(rec Record) (any, error)

// CollectionFieldPlan adds one computed attribute, named Field, to
// every row Based produces, built by calling Builder. The underlying
// record's own attributes remain reachable. Grounded on queries.py's
// CollectionFieldPlan.
type CollectionFieldPlan struct {
	Based   Plan
	Field   string
	Builder FieldBuilder
}

type computedRecord struct {
	base  Record
	field string
	value any
}

func (c computedRecord) Get(name string) (any, bool) {
	if name == c.field {
		return c.value, true
	}
	return c.base.Get(name)
}

func (p *CollectionFieldPlan) Execute(ctx context.Context) ([]Record, error) {
	rows, err := p.Based.Execute(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, rec := range rows {
		v, err := p.Builder(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, computedRecord{base: rec, field: p.Field, value: v})
	}
	return out, nil
}

func (p *CollectionFieldPlan) Optimize(full Plan) Plan {
	p.Based = p.Based.Optimize(full)
	return p
}
