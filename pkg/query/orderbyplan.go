package query

import (
	"context"
	"sort"
)

// SortKey is one ORDER BY term: sort by Field, descending if Desc.
type SortKey struct {
	Field string
	Desc  bool
}

// OrderByPlan sorts Based's rows by Keys, in order, each key breaking
// ties left by the previous ones. Grounded on queries.py's OrderByPlan.
type OrderByPlan struct {
	Based Plan
	Keys  []SortKey
}

func (p *OrderByPlan) Execute(ctx context.Context) ([]Record, error) {
	rows, err := p.Based.Execute(ctx)
	if err != nil {
		return nil, err
	}
	out := append([]Record(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		for _, key := range p.Keys {
			vi, _ := out[i].Get(key.Field)
			vj, _ := out[j].Get(key.Field)
			cmp, comparable := compareOrdered(vi, vj)
			if !comparable || cmp == 0 {
				continue
			}
			if key.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return out, nil
}

func (p *OrderByPlan) Optimize(full Plan) Plan {
	p.Based = p.Based.Optimize(full)
	return p
}
