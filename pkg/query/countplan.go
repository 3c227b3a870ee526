package query

import "context"

// CountPlan reports how many rows Based would produce, without
// necessarily materializing them. Its Optimize rewrites straight to a
// *CountResultPlan when Based (after its own optimization) exposes a
// FastCounter, per spec.md §4.8's count optimization; otherwise it
// falls back to counting Based's actual result rows. Grounded on
// queries.py's CountPlan.
type CountPlan struct {
	Based Plan
}

func (p *CountPlan) Execute(ctx context.Context) ([]Record, error) {
	rows, err := p.Based.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return []Record{MapRecord{"count": len(rows)}}, nil
}

func (p *CountPlan) Optimize(full Plan) Plan {
	p.Based = p.Based.Optimize(full)
	if counter, ok := p.Based.(FastCounter); ok {
		if n, ok := counter.FastCount(); ok {
			return &CountResultPlan{Count: n}
		}
	}
	return p
}

// CountResultPlan is a leaf plan yielding a single precomputed count
// row. Produced by CountPlan's optimizer rewrite.
type CountResultPlan struct {
	Count int
}

func (p *CountResultPlan) Execute(ctx context.Context) ([]Record, error) {
	return []Record{MapRecord{"count": p.Count}}, nil
}

func (p *CountResultPlan) Optimize(full Plan) Plan { return p }

func (p *CountResultPlan) FastCount() (int, bool) { return p.Count, true }
