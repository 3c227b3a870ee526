package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/collections"
	"github.com/cuemby/protobase/pkg/index"
)

type memStore struct {
	atoms map[uint64]map[string]any
	blobs map[uint64][]byte
	next  uint64
}

func newMemStore() *memStore {
	return &memStore{atoms: map[uint64]map[string]any{}, blobs: map[uint64][]byte{}}
}

func (s *memStore) PushAtom(ctx context.Context, payload map[string]any) (atom.Pointer, error) {
	s.next++
	s.atoms[s.next] = payload
	return atom.Pointer{Offset: s.next}, nil
}

func (s *memStore) GetAtom(ctx context.Context, ptr atom.Pointer) (map[string]any, error) {
	return s.atoms[ptr.Offset], nil
}

func (s *memStore) PushBytes(ctx context.Context, data []byte) (atom.Pointer, error) {
	s.next++
	s.blobs[s.next] = data
	return atom.Pointer{Offset: s.next}, nil
}

func (s *memStore) GetBytes(ctx context.Context, ptr atom.Pointer) ([]byte, error) {
	return s.blobs[ptr.Offset], nil
}

func rows(rows []any) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = asRecord(r)
	}
	return out
}

func TestCompileGrammar(t *testing.T) {
	expr, err := Compile([]any{"age", ">=", 18.0})
	require.NoError(t, err)
	ok, err := expr.Evaluate(MapRecord{"age": 21.0})
	require.NoError(t, err)
	assert.True(t, ok)

	expr, err = Compile([]any{"&",
		[]any{"age", ">=", 18.0},
		[]any{"active", "?T"},
	})
	require.NoError(t, err)
	ok, err = expr.Evaluate(MapRecord{"age": 30.0, "active": true})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = expr.Evaluate(MapRecord{"age": 30.0, "active": false})
	require.NoError(t, err)
	assert.False(t, ok)

	expr, err = Compile([]any{"score", "between[)", 0.0, 10.0})
	require.NoError(t, err)
	ok, _ = expr.Evaluate(MapRecord{"score": 0.0})
	assert.True(t, ok)
	ok, _ = expr.Evaluate(MapRecord{"score": 10.0})
	assert.False(t, ok)

	expr, err = Compile([]any{"!", []any{"active", "?T"}})
	require.NoError(t, err)
	ok, _ = expr.Evaluate(MapRecord{"active": false})
	assert.True(t, ok)

	expr, err = Compile([]any{"tags", "contains", "red"})
	require.NoError(t, err)
	ok, _ = expr.Evaluate(MapRecord{"tags": []any{"red", "blue"}})
	assert.True(t, ok)

	expr, err = Compile([]any{"kind", "in", []any{"a", "b"}})
	require.NoError(t, err)
	ok, _ = expr.Evaluate(MapRecord{"kind": "b"})
	assert.True(t, ok)
}

func TestWherePlanScan(t *testing.T) {
	data := []any{
		MapRecord{"name": "alice", "age": 30.0},
		MapRecord{"name": "bob", "age": 17.0},
		MapRecord{"name": "carl", "age": 40.0},
	}
	plan := &WherePlan{Based: NewListPlan(data), Filter: &Term{Attribute: "age", Op: GreaterOrEqual, Value: 18.0}}
	out, err := plan.Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	name0, _ := out[0].Get("name")
	name1, _ := out[1].Get("name")
	assert.ElementsMatch(t, []any{"alice", "carl"}, []any{name0, name1})
}

func TestWherePlanOptimizeIndexedEquality(t *testing.T) {
	store := newMemStore()
	list := collections.NewList(store)
	list = list.InsertAt(0, map[string]any{"name": "alice", "dept": "eng"})
	list = list.InsertAt(1, map[string]any{"name": "bob", "dept": "sales"})
	list = list.InsertAt(2, map[string]any{"name": "carl", "dept": "eng"})
	list = list.AddIndex("dept", FieldExtractorFor("dept"))

	base := NewIndexedQueryPlan(NewListPlan(list.AsIterable()), list, "dept")
	where := &WherePlan{Based: base, Filter: &Term{Attribute: "dept", Op: Equal, Value: "eng"}}

	optimized := where.Optimize(where)
	_, isSearch := optimized.(*IndexedSearchPlan)
	require.True(t, isSearch, "equality term over an indexed field should rewrite to IndexedSearchPlan")

	out, err := optimized.Execute(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestWherePlanOptimizeReordersAndTermsByCost(t *testing.T) {
	data := []any{
		MapRecord{"a": 1.0, "b": 2.0},
		MapRecord{"a": 1.0, "b": 3.0},
	}
	filter := &AndExpression{Terms: []Expression{
		&Term{Attribute: "tags", Op: Contains, Value: "x"}, // cost 2
		&Term{Attribute: "a", Op: Equal, Value: 1.0},        // cost 0
	}}
	where := &WherePlan{Based: NewListPlan(data), Filter: filter}
	optimized := where.Optimize(where)
	wp, ok := optimized.(*WherePlan)
	require.True(t, ok)
	and, ok := wp.Filter.(*AndExpression)
	require.True(t, ok)
	require.Len(t, and.Terms, 2)
	first := and.Terms[0].(*Term)
	assert.Equal(t, "a", first.Attribute, "cheaper term should sort first")
}

func TestJoinPlanTypes(t *testing.T) {
	left := []any{MapRecord{"id": 1.0, "name": "alice"}, MapRecord{"id": 2.0, "name": "bob"}}
	right := []any{MapRecord{"uid": 1.0, "city": "nyc"}, MapRecord{"uid": 3.0, "city": "sf"}}

	join := &JoinPlan{Based: NewListPlan(left), Join: NewListPlan(right), Type: JoinInner, LeftField: "id", RightField: "uid"}
	out, err := join.Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	city, _ := out[0].Get("city")
	assert.Equal(t, "nyc", city)

	join.Type = JoinLeft
	out, err = join.Execute(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, 2)

	join.Type = JoinOuter
	out, err = join.Execute(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, 2) // bob-only + sf-only

	join.Type = JoinExternal
	out, err = join.Execute(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, 3) // 1 pair + bob-only + sf-only
}

func TestGroupByPlanAggregates(t *testing.T) {
	data := []any{
		MapRecord{"dept": "eng", "salary": 100.0},
		MapRecord{"dept": "eng", "salary": 200.0},
		MapRecord{"dept": "sales", "salary": 50.0},
	}
	plan := &GroupByPlan{
		Based: NewListPlan(data),
		Keys:  []string{"dept"},
		Aggregates: []Aggregate{
			{Func: AggSum, Field: "salary", As: "total"},
			{Func: AggCount, As: "n"},
			{Func: AggAvg, Field: "salary", As: "avg"},
		},
	}
	out, err := plan.Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)

	found := map[string]MapRecord{}
	for _, r := range out {
		dept, _ := r.Get("dept")
		found[dept.(string)] = r.(MapRecord)
	}
	assert.Equal(t, 300.0, found["eng"]["total"])
	assert.Equal(t, 2, found["eng"]["n"])
	assert.Equal(t, 150.0, found["eng"]["avg"])
	assert.Equal(t, 50.0, found["sales"]["total"])
}

func TestSelectOrderLimitOffsetPlans(t *testing.T) {
	data := []any{
		MapRecord{"n": 3.0},
		MapRecord{"n": 1.0},
		MapRecord{"n": 2.0},
	}
	sorted := &OrderByPlan{Based: NewListPlan(data), Keys: []SortKey{{Field: "n"}}}
	out, err := sorted.Execute(context.Background())
	require.NoError(t, err)
	v0, _ := out[0].Get("n")
	v2, _ := out[2].Get("n")
	assert.Equal(t, 1.0, v0)
	assert.Equal(t, 3.0, v2)

	limited := &LimitPlan{Based: sorted, Count: 2}
	out, err = limited.Execute(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, 2)

	offset := &OffsetPlan{Based: sorted, Count: 1}
	out, err = offset.Execute(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, 2)

	sel := &SelectPlan{Based: sorted, Fields: []SelectField{{From: "n", As: "value"}}}
	out, err = sel.Execute(context.Background())
	require.NoError(t, err)
	v, ok := out[0].Get("value")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
	_, hasN := out[0].Get("n")
	assert.False(t, hasN)
}

func TestHavingPlan(t *testing.T) {
	data := []any{MapRecord{"total": 300.0}, MapRecord{"total": 10.0}}
	having := &HavingPlan{Based: NewListPlan(data), Filter: &Term{Attribute: "total", Op: Greater, Value: 100.0}}
	out, err := having.Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestUnnestPlan(t *testing.T) {
	data := []any{MapRecord{"name": "alice", "tags": []any{"a", "b"}}}
	unnest := &UnnestPlan{Based: NewListPlan(data), Field: "tags", As: "tag"}
	out, err := unnest.Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	tag0, _ := out[0].Get("tag")
	name0, _ := out[0].Get("name")
	assert.Equal(t, "a", tag0)
	assert.Equal(t, "alice", name0)
}

func TestCollectionFieldPlan(t *testing.T) {
	data := []any{MapRecord{"a": 2.0, "b": 3.0}}
	plan := &CollectionFieldPlan{
		Based: NewListPlan(data),
		Field: "sum",
		Builder: func(rec Record) (any, error) {
			a, _ := rec.Get("a")
			b, _ := rec.Get("b")
			return a.(float64) + b.(float64), nil
		},
	}
	out, err := plan.Execute(context.Background())
	require.NoError(t, err)
	v, _ := out[0].Get("sum")
	assert.Equal(t, 5.0, v)
	a, _ := out[0].Get("a")
	assert.Equal(t, 2.0, a)
}

func TestCountPlanOptimizesToFastCount(t *testing.T) {
	data := []any{MapRecord{}, MapRecord{}, MapRecord{}}
	count := &CountPlan{Based: NewListPlan(data)}
	optimized := count.Optimize(count)
	result, ok := optimized.(*CountResultPlan)
	require.True(t, ok)
	assert.Equal(t, 3, result.Count)

	out, err := optimized.Execute(context.Background())
	require.NoError(t, err)
	n, _ := out[0].Get("count")
	assert.Equal(t, 3, n)
}

func TestCountPlanFallsBackWithoutFastCounter(t *testing.T) {
	data := []any{MapRecord{"a": 1.0}, MapRecord{"a": 2.0}}
	where := &WherePlan{Based: NewListPlan(data), Filter: &Term{Attribute: "a", Op: Equal, Value: 1.0}}
	count := &CountPlan{Based: where}
	optimized := count.Optimize(count)
	_, isResult := optimized.(*CountResultPlan)
	assert.False(t, isResult)
	out, err := optimized.Execute(context.Background())
	require.NoError(t, err)
	n, _ := out[0].Get("count")
	assert.Equal(t, 1, n)
}

func TestVectorSearchPlan(t *testing.T) {
	idx := index.NewExactVectorIndex(index.MetricCosine)
	v1, err := index.NewVector([]float64{1, 0}, false)
	require.NoError(t, err)
	v2, err := index.NewVector([]float64{0, 1}, false)
	require.NoError(t, err)
	require.NoError(t, idx.Add("doc1", v1))
	require.NoError(t, idx.Add("doc2", v2))

	records := map[string]Record{
		"doc1": MapRecord{"title": "one"},
		"doc2": MapRecord{"title": "two"},
	}
	plan := &VectorSearchPlan{
		Index:  idx,
		Query:  v1,
		K:      1,
		Metric: index.MetricCosine,
		Lookup: func(id string) (Record, bool) { r, ok := records[id]; return r, ok },
	}
	out, err := plan.Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	title, _ := out[0].Get("title")
	assert.Equal(t, "one", title)
	score, ok := out[0].Get("_score")
	require.True(t, ok)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestOrMergeDeduplicates(t *testing.T) {
	store := newMemStore()
	list := collections.NewList(store)
	list = list.InsertAt(0, map[string]any{"name": "alice", "dept": "eng"})
	list = list.InsertAt(1, map[string]any{"name": "bob", "dept": "sales"})
	list = list.AddIndex("dept", FieldExtractorFor("dept"))

	base := NewIndexedQueryPlan(NewListPlan(list.AsIterable()), list, "dept")
	filter := &OrExpression{Terms: []Expression{
		&Term{Attribute: "dept", Op: Equal, Value: "eng"},
		&Term{Attribute: "dept", Op: Equal, Value: "sales"},
	}}
	where := &WherePlan{Based: base, Filter: filter}
	optimized := where.Optimize(where)
	merge, ok := optimized.(*OrMerge)
	require.True(t, ok)
	out, err := merge.Execute(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, 2)
}
