package query

import "context"

// FromPlan carries an Alias for its underlying plan's rows. Execute
// returns Based's rows unchanged, and no plan in this package reads
// Alias. Grounded on queries.py's FromPlan.
type FromPlan struct {
	Based Plan
	Alias string
}

func (p *FromPlan) Execute(ctx context.Context) ([]Record, error) {
	return p.Based.Execute(ctx)
}

// Optimize delegates straight to Based, matching queries.py's
// FromPlan.optimize (a FromPlan carries no rewritable shape of its
// own).
func (p *FromPlan) Optimize(full Plan) Plan {
	p.Based = p.Based.Optimize(full)
	return p
}
