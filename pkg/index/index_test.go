package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustVector(t *testing.T, values []float64) Vector {
	t.Helper()
	v, err := NewVector(values, false)
	require.NoError(t, err)
	return v
}

func TestVectorValidation(t *testing.T) {
	_, err := NewVector(nil, false)
	assert.Error(t, err)

	_, err = NewVector([]float64{1, 2}, false)
	assert.NoError(t, err)
}

func TestCosineSimilarityAndL2Distance(t *testing.T) {
	a := []float64{1, 0}
	b := []float64{0, 1}
	sim, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0, sim, 1e-9)

	d, err := L2Distance(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.4142135, d, 1e-5)

	_, err = CosineSimilarity(a, []float64{1})
	assert.Error(t, err)
}

func TestVectorToFromBytes(t *testing.T) {
	v := mustVector(t, []float64{1.5, -2.25, 3.0})
	b := v.ToBytes()

	round, err := VectorFromBytes(b)
	require.NoError(t, err)
	assert.Equal(t, v.ToSlice(), round.ToSlice())
}

func TestExactVectorIndexSearch(t *testing.T) {
	idx := NewExactVectorIndex(MetricCosine)
	require.NoError(t, idx.Build(
		[]Vector{mustVector(t, []float64{1, 0}), mustVector(t, []float64{0, 1}), mustVector(t, []float64{1, 1})},
		[]string{"x", "y", "xy"},
		MetricCosine,
	))

	results, err := idx.Search(mustVector(t, []float64{1, 0}), 2, MetricCosine)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "x", results[0].ID)

	idx.Remove("x")
	results, err = idx.Search(mustVector(t, []float64{1, 0}), 1, MetricCosine)
	require.NoError(t, err)
	assert.NotEqual(t, "x", results[0].ID)
}

func TestExactVectorIndexRangeSearch(t *testing.T) {
	idx := NewExactVectorIndex(MetricCosine)
	require.NoError(t, idx.Add("a", mustVector(t, []float64{1, 0})))
	require.NoError(t, idx.Add("b", mustVector(t, []float64{0, 1})))

	out, err := idx.RangeSearch(mustVector(t, []float64{1, 0}), 0.99, MetricCosine)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
}

func TestIVFFlatIndexSearch(t *testing.T) {
	idx := NewIVFFlatIndex(MetricCosine, 4, 2)

	vectors := make([]Vector, 0, 40)
	ids := make([]string, 0, 40)
	for i := 0; i < 10; i++ {
		vectors = append(vectors, mustVector(t, []float64{1, 0.01 * float64(i)}))
		ids = append(ids, "cluster-a-"+string(rune('0'+i)))
	}
	for i := 0; i < 10; i++ {
		vectors = append(vectors, mustVector(t, []float64{0, 1 + 0.01*float64(i)}))
		ids = append(ids, "cluster-b-"+string(rune('0'+i)))
	}
	require.NoError(t, idx.Build(vectors, ids, MetricCosine))

	results, err := idx.Search(mustVector(t, []float64{1, 0}), 3, MetricCosine)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 3)

	stats := idx.Stats()
	assert.Equal(t, "ivfflat", stats["backend"])
}

func TestHNSWIndexDelegatesToExact(t *testing.T) {
	idx := NewHNSWIndex(MetricCosine, 0, 0, 0)
	require.NoError(t, idx.Add("a", mustVector(t, []float64{1, 0})))
	require.NoError(t, idx.Add("b", mustVector(t, []float64{0, 1})))

	results, err := idx.Search(mustVector(t, []float64{1, 0}), 1, MetricCosine)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)

	stats := idx.Stats()
	assert.Equal(t, 16, stats["M"])
}

func TestRegistryAddRemoveReplace(t *testing.T) {
	defs := []Definition{
		{Name: "color", Extractor: func(item any) []any {
			m := item.(map[string]any)
			return []any{m["color"]}
		}},
	}
	reg := NewRegistry(defs)

	reg = reg.WithAdd("1", map[string]any{"color": "red"})
	reg = reg.WithAdd("2", map[string]any{"color": "red"})
	reg = reg.WithAdd("3", map[string]any{"color": "blue"})

	assert.ElementsMatch(t, []string{"1", "2"}, reg.Get("color", "red"))
	assert.ElementsMatch(t, []string{"3"}, reg.Get("color", "blue"))

	reg = reg.WithRemove("1", map[string]any{"color": "red"})
	assert.ElementsMatch(t, []string{"2"}, reg.Get("color", "red"))

	reg = reg.WithReplace("2", map[string]any{"color": "red"}, map[string]any{"color": "blue"})
	assert.Empty(t, reg.Get("color", "red"))
	assert.ElementsMatch(t, []string{"3", "2"}, reg.Get("color", "blue"))
}
