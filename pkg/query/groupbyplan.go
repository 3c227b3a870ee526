package query

import (
	"context"
	"fmt"
	"strings"
)

// AggFunc names a supported group aggregate. Grounded on spec.md §4.8's
// group-by clause.
type AggFunc int

const (
	AggSum AggFunc = iota
	AggAvg
	AggCount
	AggMin
	AggMax
)

// Aggregate declares one output column of a GroupByPlan: the result of
// applying Func to Field across a group, stored under As.
type Aggregate struct {
	Func  AggFunc
	Field string
	As    string
}

// GroupByPlan partitions Based's rows by the tuple of Keys, then
// computes each Aggregate over every partition. Missing fields are
// treated as zero for Sum/Avg/Count and skipped entirely for Min/Max,
// per spec.md §4.8. Grounded on queries.py's GroupByPlan.
type GroupByPlan struct {
	Based      Plan
	Keys       []string
	Aggregates []Aggregate
}

func (p *GroupByPlan) Execute(ctx context.Context) ([]Record, error) {
	rows, err := p.Based.Execute(ctx)
	if err != nil {
		return nil, err
	}

	type group struct {
		keyValues []any
		members   []Record
	}
	order := make([]string, 0)
	groups := make(map[string]*group)

	for _, rec := range rows {
		keyValues := make([]any, len(p.Keys))
		parts := make([]string, len(p.Keys))
		for i, k := range p.Keys {
			v, _ := rec.Get(k)
			keyValues[i] = v
			parts[i] = fmt.Sprintf("%v", v)
		}
		gk := strings.Join(parts, "\x1f")
		g, ok := groups[gk]
		if !ok {
			g = &group{keyValues: keyValues}
			groups[gk] = g
			order = append(order, gk)
		}
		g.members = append(g.members, rec)
	}

	out := make([]Record, 0, len(order))
	for _, gk := range order {
		g := groups[gk]
		row := make(MapRecord, len(p.Keys)+len(p.Aggregates))
		for i, k := range p.Keys {
			row[k] = g.keyValues[i]
		}
		for _, agg := range p.Aggregates {
			row[agg.As] = computeAggregate(agg, g.members)
		}
		out = append(out, row)
	}
	return out, nil
}

func computeAggregate(agg Aggregate, members []Record) any {
	switch agg.Func {
	case AggCount:
		return len(members)
	case AggSum:
		sum := 0.0
		for _, m := range members {
			v, _ := m.Get(agg.Field)
			f, _ := toFloat(v)
			sum += f
		}
		return sum
	case AggAvg:
		if len(members) == 0 {
			return 0.0
		}
		sum := 0.0
		for _, m := range members {
			v, _ := m.Get(agg.Field)
			f, _ := toFloat(v)
			sum += f
		}
		return sum / float64(len(members))
	case AggMin, AggMax:
		var best float64
		found := false
		for _, m := range members {
			v, ok := m.Get(agg.Field)
			if !ok {
				continue
			}
			f, ok := toFloat(v)
			if !ok {
				continue
			}
			if !found || (agg.Func == AggMin && f < best) || (agg.Func == AggMax && f > best) {
				best = f
				found = true
			}
		}
		if !found {
			return nil
		}
		return best
	default:
		return nil
	}
}

func (p *GroupByPlan) Optimize(full Plan) Plan {
	p.Based = p.Based.Optimize(full)
	return p
}
