package query

import "context"

// HavingPlan filters Based's rows (typically a GroupByPlan's output) by
// Filter, evaluated the same way a WherePlan evaluates a pre-aggregate
// row. Grounded on queries.py's HavingPlan.
type HavingPlan struct {
	Based  Plan
	Filter Expression
}

func (p *HavingPlan) Execute(ctx context.Context) ([]Record, error) {
	rows, err := p.Based.Execute(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, rec := range rows {
		ok, err := p.Filter.Evaluate(rec)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (p *HavingPlan) Optimize(full Plan) Plan {
	p.Based = p.Based.Optimize(full)
	return p
}
