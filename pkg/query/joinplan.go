package query

import "context"

// JoinType selects which combination of matched/unmatched rows a
// JoinPlan produces. Grounded on spec.md §4.8's join execution rules.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinOuter
	JoinExternal
	JoinExternalLeft
	JoinExternalRight
)

// JoinPlan pairs Based's rows with Join's rows wherever LeftField on the
// left equals RightField on the right, per Type. Grounded on queries.py's
// JoinPlan; the original's join_query/FromPlan-over-an-attribute shape
// is expressed here as an explicit equi-join field pair, since Go has no
// equivalent of evaluating an arbitrary nested FromPlan as "the join
// predicate" without a richer expression language than spec.md defines.
type JoinPlan struct {
	Based      Plan
	Join       Plan
	Type       JoinType
	LeftField  string
	RightField string
}

// joinedRecord merges a left and a right Record: Get checks Left first,
// then Right. Either side may be nil, representing an unmatched row in
// a left/right/outer/external join.
type joinedRecord struct {
	Left, Right Record
}

func (j joinedRecord) Get(name string) (any, bool) {
	if j.Left != nil {
		if v, ok := j.Left.Get(name); ok {
			return v, ok
		}
	}
	if j.Right != nil {
		return j.Right.Get(name)
	}
	return nil, false
}

func (p *JoinPlan) Execute(ctx context.Context) ([]Record, error) {
	left, err := p.Based.Execute(ctx)
	if err != nil {
		return nil, err
	}
	right, err := p.Join.Execute(ctx)
	if err != nil {
		return nil, err
	}

	leftMatched := make([]bool, len(left))
	rightMatched := make([]bool, len(right))
	var pairs []Record

	for li, l := range left {
		lv, lok := l.Get(p.LeftField)
		for ri, r := range right {
			rv, rok := r.Get(p.RightField)
			if lok && rok && compareEqual(lv, rv) {
				pairs = append(pairs, joinedRecord{Left: l, Right: r})
				leftMatched[li] = true
				rightMatched[ri] = true
			}
		}
	}

	var out []Record
	includePairs := p.Type == JoinInner || p.Type == JoinLeft || p.Type == JoinRight || p.Type == JoinExternal || p.Type == JoinExternalLeft || p.Type == JoinExternalRight
	if includePairs {
		out = append(out, pairs...)
	}

	includeLeftOnly := p.Type == JoinLeft || p.Type == JoinOuter || p.Type == JoinExternal || p.Type == JoinExternalLeft
	if includeLeftOnly {
		for li, l := range left {
			if !leftMatched[li] {
				out = append(out, joinedRecord{Left: l})
			}
		}
	}

	includeRightOnly := p.Type == JoinRight || p.Type == JoinOuter || p.Type == JoinExternal || p.Type == JoinExternalRight
	if includeRightOnly {
		for ri, r := range right {
			if !rightMatched[ri] {
				out = append(out, joinedRecord{Right: r})
			}
		}
	}

	return out, nil
}

func (p *JoinPlan) Optimize(full Plan) Plan {
	p.Based = p.Based.Optimize(full)
	p.Join = p.Join.Optimize(full)
	return p
}
