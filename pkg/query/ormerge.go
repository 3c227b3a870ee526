package query

import (
	"context"
	"fmt"
	"reflect"
)

// OrMerge unions the results of several plans, deduplicating by pointer
// identity where possible (records that are themselves pointers, e.g.
// *txn.DBObject) and by value otherwise. The optimizer produces this by
// rewriting an OrExpression whose every disjunct is an indexed Term.
// Grounded on queries.py's OrMerge.
type OrMerge struct {
	Plans []Plan
}

func (p *OrMerge) Execute(ctx context.Context) ([]Record, error) {
	seen := make(map[any]bool)
	var out []Record
	for _, sub := range p.Plans {
		rows, err := sub.Execute(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range rows {
			key := identityKey(rec)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, rec)
		}
	}
	return out, nil
}

func (p *OrMerge) Optimize(full Plan) Plan {
	for i, sub := range p.Plans {
		p.Plans[i] = sub.Optimize(full)
	}
	return p
}

// identityKey returns a comparable dedup key for rec. Map- and
// slice-backed records (MapRecord, scalarRecord over a slice) aren't
// valid Go map keys, so those fall back to a formatted representation;
// everything else (notably *txn.DBObject, which is what IndexedSearchPlan
// actually yields) is used directly, preserving pointer-identity dedup.
func identityKey(rec Record) any {
	v := reflect.ValueOf(rec)
	switch v.Kind() {
	case reflect.Map, reflect.Slice:
		return fmt.Sprintf("%#v", rec)
	default:
		if !v.Comparable() {
			return fmt.Sprintf("%#v", rec)
		}
		return rec
	}
}
