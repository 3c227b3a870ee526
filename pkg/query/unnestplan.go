package query

import "context"

// UnnestPlan flattens the slice-valued attribute Field on each of
// Based's rows into one output row per element, aliased to As and
// merged over the parent row's other attributes. Rows whose Field isn't
// a non-empty slice are dropped. Grounded on queries.py's UnnestPlan.
type UnnestPlan struct {
	Based Plan
	Field string
	As    string
}

// unnestedRecord layers a single unnested element, under As, over its
// parent row.
type unnestedRecord struct {
	parent Record
	as     string
	value  any
}

func (u unnestedRecord) Get(name string) (any, bool) {
	if name == u.as {
		return u.value, true
	}
	return u.parent.Get(name)
}

func (p *UnnestPlan) Execute(ctx context.Context) ([]Record, error) {
	rows, err := p.Based.Execute(ctx)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, rec := range rows {
		v, ok := rec.Get(p.Field)
		if !ok {
			continue
		}
		items, ok := v.([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			out = append(out, unnestedRecord{parent: rec, as: p.As, value: item})
		}
	}
	return out, nil
}

func (p *UnnestPlan) Optimize(full Plan) Plan {
	p.Based = p.Based.Optimize(full)
	return p
}
