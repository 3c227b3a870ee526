package query

import (
	"context"

	"github.com/cuemby/protobase/pkg/index"
	"github.com/cuemby/protobase/pkg/pberr"
)

// RecordLookup resolves a vector index's string id back to the Record
// it was built from. VectorSearchPlan needs this indirection because
// index.VectorIndex deals only in (id, vector) pairs, never in records.
type RecordLookup func(id string) (Record, bool)

// VectorSearchPlan runs a k-nearest or threshold similarity search
// against an index.VectorIndex and resolves the matching ids back to
// records, each annotated with its similarity score under "_score".
// Grounded on spec.md §4.9's vector index operations, surfaced into the
// plan tree as queries.py's VectorSearchPlan is declared (unimplemented
// there) to be.
type VectorSearchPlan struct {
	Index     index.VectorIndex
	Query     index.Vector
	K         int     // used when Threshold is nil
	Threshold *float64
	Metric    index.Metric
	Lookup    RecordLookup
}

// scoredRecord layers a similarity score over a resolved record.
type scoredRecord struct {
	Record
	score float64
}

func (s scoredRecord) Get(name string) (any, bool) {
	if name == "_score" {
		return s.score, true
	}
	return s.Record.Get(name)
}

func (p *VectorSearchPlan) Execute(ctx context.Context) ([]Record, error) {
	var hits []index.ScoredID
	var err error
	if p.Threshold != nil {
		hits, err = p.Index.RangeSearch(p.Query, *p.Threshold, p.Metric)
	} else {
		hits, err = p.Index.Search(p.Query, p.K, p.Metric)
	}
	if err != nil {
		return nil, err
	}
	if p.Lookup == nil {
		return nil, pberr.Validationf("query: VectorSearchPlan requires a non-nil Lookup")
	}
	out := make([]Record, 0, len(hits))
	for _, hit := range hits {
		rec, ok := p.Lookup(hit.ID)
		if !ok {
			continue
		}
		out = append(out, scoredRecord{Record: rec, score: hit.Score})
	}
	return out, nil
}

func (p *VectorSearchPlan) Optimize(full Plan) Plan { return p }
