package query

import (
	"context"
	"sort"
)

// WherePlan filters Based's rows by Filter. Its Optimize implements
// spec.md §4.8's optimizer: predicate push-down, cost-ordered AND
// reordering, and indexed-term rewriting. Grounded on queries.py's
// WherePlan (declared, body never implemented there).
type WherePlan struct {
	Based  Plan
	Filter Expression
}

func (p *WherePlan) Execute(ctx context.Context) ([]Record, error) {
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

// Optimize runs the three steps spec.md §4.8 describes in the order
// step 1, step 3, step 2, returning as soon as step 1 or step 3
// rewrites the plan.
func (p *WherePlan) Optimize(full Plan) Plan {
	p.Based = p.Based.Optimize(full)

	// Step 1: predicate push-down, if Based can absorb the whole filter.
	if acceptor, ok := p.Based.(FilterAcceptor); ok {
		if rewritten, accepted := acceptor.AcceptFilter(p.Filter); accepted {
			return rewritten
		}
	}

	// Step 3: an indexed scan underneath can turn select terms into
	// direct lookups.
	if indexed, ok := p.Based.(*IndexedQueryPlan); ok {
		if rewritten, ok := rewriteIndexed(indexed, p.Filter); ok {
			return rewritten
		}
	}

	// Step 2: reorder an AND's terms cheapest-first, and push down
	// whichever of them Based can absorb on its own.
	if and, ok := p.Filter.(*AndExpression); ok {
		reordered := append([]Expression(nil), and.Terms...)
		sort.SliceStable(reordered, func(i, j int) bool { return reordered[i].cost() < reordered[j].cost() })

		remaining := make([]Expression, 0, len(reordered))
		based := p.Based
		if acceptor, ok := based.(FilterAcceptor); ok {
			for _, term := range reordered {
				if rewritten, accepted := acceptor.AcceptFilter(term); accepted {
					based = rewritten
					continue
				}
				remaining = append(remaining, term)
			}
		} else {
			remaining = reordered
		}

		p.Based = based
		switch len(remaining) {
		case 0:
			return based
		case 1:
			p.Filter = remaining[0]
		default:
			p.Filter = &AndExpression{Terms: remaining}
		}
	}

	return p
}

// rewriteIndexed implements optimizer step 3: a Term over an indexed
// attribute becomes a direct IndexedSearchPlan; an OrExpression whose
// every disjunct is an indexed Term becomes an OrMerge of
// IndexedSearchPlans; anything else falls back to a scan (ok=false).
func rewriteIndexed(indexed *IndexedQueryPlan, filter Expression) (Plan, bool) {
	switch f := filter.(type) {
	case *Term:
		if f.Op == Equal && indexed.HasIndex(f.Attribute) {
			return &IndexedSearchPlan{Source: indexed, Field: f.Attribute, Key: f.Value}, true
		}
	case *OrExpression:
		plans := make([]Plan, 0, len(f.Terms))
		for _, term := range f.Terms {
			t, ok := term.(*Term)
			if !ok || t.Op != Equal || !indexed.HasIndex(t.Attribute) {
				return nil, false
			}
			plans = append(plans, &IndexedSearchPlan{Source: indexed, Field: t.Attribute, Key: t.Value})
		}
		return &OrMerge{Plans: plans}, true
	}
	return nil, false
}
