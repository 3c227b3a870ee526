package query

import "context"

// SelectField names one output column: the value of From on the source
// record, renamed to As (As defaults to From when left empty).
type SelectField struct {
	From string
	As   string
}

// SelectPlan projects Based's rows down to Fields, discarding every
// other attribute. Grounded on queries.py's SelectPlan.
type SelectPlan struct {
	Based  Plan
	Fields []SelectField
}

func (p *SelectPlan) Execute(ctx context.Context) ([]Record, error) {
	rows, err := p.Based.Execute(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, rec := range rows {
		row := make(MapRecord, len(p.Fields))
		for _, f := range p.Fields {
			v, _ := rec.Get(f.From)
			as := f.As
			if as == "" {
				as = f.From
			}
			row[as] = v
		}
		out = append(out, row)
	}
	return out, nil
}

func (p *SelectPlan) Optimize(full Plan) Plan {
	p.Based = p.Based.Optimize(full)
	return p
}
