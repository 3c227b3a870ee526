package query

import "context"

// LimitPlan caps Based's rows at Count.
type LimitPlan struct {
	Based Plan
	Count int
}

func (p *LimitPlan) Execute(ctx context.Context) ([]Record, error) {
	rows, err := p.Based.Execute(ctx)
	if err != nil {
		return nil, err
	}
	if p.Count < 0 || p.Count >= len(rows) {
		return rows, nil
	}
	return rows[:p.Count], nil
}

func (p *LimitPlan) Optimize(full Plan) Plan {
	p.Based = p.Based.Optimize(full)
	return p
}

// OffsetPlan skips the first Count rows Based produces.
type OffsetPlan struct {
	Based Plan
	Count int
}

func (p *OffsetPlan) Execute(ctx context.Context) ([]Record, error) {
	rows, err := p.Based.Execute(ctx)
	if err != nil {
		return nil, err
	}
	if p.Count <= 0 {
		return rows, nil
	}
	if p.Count >= len(rows) {
		return nil, nil
	}
	return rows[p.Count:], nil
}

func (p *OffsetPlan) Optimize(full Plan) Plan {
	p.Based = p.Based.Optimize(full)
	return p
}
