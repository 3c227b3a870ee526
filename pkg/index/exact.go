package index

import (
	"sort"
	"sync"

	"github.com/cuemby/protobase/pkg/pberr"
)

// ExactVectorIndex is a linear-scan correctness fallback: every Search or
// RangeSearch call scores against the full live set. Grounded on
// original_source/proto_db/vector_index.py's ExactVectorIndex.
type ExactVectorIndex struct {
	mu      sync.RWMutex
	metric  Metric
	dim     int
	vectors map[string]Vector
}

// NewExactVectorIndex returns an empty index using metric as its default.
func NewExactVectorIndex(metric Metric) *ExactVectorIndex {
	if metric == "" {
		metric = MetricCosine
	}
	return &ExactVectorIndex{metric: metric, vectors: map[string]Vector{}}
}

func (idx *ExactVectorIndex) Build(vectors []Vector, ids []string, metric Metric) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if metric != "" {
		idx.metric = metric
	}
	if len(vectors) != len(ids) {
		return pberr.Validationf("index: vectors/ids length mismatch")
	}
	idx.vectors = make(map[string]Vector, len(ids))
	idx.dim = 0
	for i, id := range ids {
		v := vectors[i]
		if idx.dim == 0 {
			idx.dim = v.Dim()
		} else if v.Dim() != idx.dim {
			return pberr.Validationf("index: inconsistent vector dimensions in Build")
		}
		idx.vectors[id] = v
	}
	return nil
}

func (idx *ExactVectorIndex) Add(id string, vector Vector) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.dim == 0 {
		idx.dim = vector.Dim()
	} else if vector.Dim() != idx.dim {
		return pberr.Validationf("index: vector dimension mismatch")
	}
	idx.vectors[id] = vector
	return nil
}

func (idx *ExactVectorIndex) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.vectors, id)
}

func (idx *ExactVectorIndex) scoreAll(query Vector, metric Metric) ([]ScoredID, error) {
	if metric == "" {
		metric = idx.metric
	}
	out := make([]ScoredID, 0, len(idx.vectors))
	for id, v := range idx.vectors {
		score, err := query.Similarity(v, metric)
		if err != nil {
			return nil, err
		}
		out = append(out, ScoredID{ID: id, Score: score})
	}
	return out, nil
}

func (idx *ExactVectorIndex) Search(query Vector, k int, metric Metric) ([]ScoredID, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	pairs, err := idx.scoreAll(query, metric)
	if err != nil {
		return nil, err
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Score > pairs[j].Score })
	if k < 0 {
		k = 0
	}
	if k > len(pairs) {
		k = len(pairs)
	}
	return pairs[:k], nil
}

func (idx *ExactVectorIndex) RangeSearch(query Vector, threshold float64, metric Metric) ([]ScoredID, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	pairs, err := idx.scoreAll(query, metric)
	if err != nil {
		return nil, err
	}
	out := pairs[:0:0]
	for _, p := range pairs {
		if p.Score >= threshold {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (idx *ExactVectorIndex) Stats() map[string]any {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return map[string]any{
		"backend": "exact",
		"n_vecs":  len(idx.vectors),
		"dim":     idx.dim,
		"metric":  string(idx.metric),
	}
}
