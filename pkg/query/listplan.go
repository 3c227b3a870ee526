package query

import "context"

// ListPlan is a leaf plan yielding a fixed, in-memory slice of records.
// Grounded on queries.py's ListPlan.
type ListPlan struct {
	Items []any
}

// NewListPlan wraps items (raw collection elements, or already-built
// Records) as a leaf plan.
func NewListPlan(items []any) *ListPlan {
	return &ListPlan{Items: items}
}

func (p *ListPlan) Execute(ctx context.Context) ([]Record, error) {
	out := make([]Record, len(p.Items))
	for i, item := range p.Items {
		out[i] = asRecord(item)
	}
	return out, nil
}

func (p *ListPlan) Optimize(full Plan) Plan { return p }

// FastCount reports len(Items) without building any Records.
func (p *ListPlan) FastCount() (int, bool) { return len(p.Items), true }
