package index

// HNSWIndex exposes the same graph-index parameter surface as
// original_source/proto_db/vector_index.py's HNSWVectorIndex (M,
// efConstruction, efSearch), but there is no HNSW/ANN graph library
// anywhere in this corpus to build the real navigable-small-world graph
// on top of — the original itself only builds one when the optional
// hnswlib dependency is importable, falling back silently otherwise.
// This port takes that fallback path unconditionally: searches delegate
// to an ExactVectorIndex, while the constructor parameters are kept and
// reported via Stats so callers configuring an HNSWIndex see their
// tuning knobs acknowledged even though they currently have no effect
// on recall.
type HNSWIndex struct {
	exact *ExactVectorIndex

	m              int
	efConstruction int
	efSearch       int
}

// NewHNSWIndex returns an index with the given graph-construction
// parameters recorded for Stats; M/efConstruction/efSearch follow the
// original's defaults (16, 200, 64) when zero.
func NewHNSWIndex(metric Metric, m, efConstruction, efSearch int) *HNSWIndex {
	if m <= 0 {
		m = 16
	}
	if efConstruction <= 0 {
		efConstruction = 200
	}
	if efSearch <= 0 {
		efSearch = 64
	}
	return &HNSWIndex{
		exact:          NewExactVectorIndex(metric),
		m:              m,
		efConstruction: efConstruction,
		efSearch:       efSearch,
	}
}

func (idx *HNSWIndex) Build(vectors []Vector, ids []string, metric Metric) error {
	return idx.exact.Build(vectors, ids, metric)
}

func (idx *HNSWIndex) Add(id string, vector Vector) error {
	return idx.exact.Add(id, vector)
}

func (idx *HNSWIndex) Remove(id string) {
	idx.exact.Remove(id)
}

func (idx *HNSWIndex) Search(query Vector, k int, metric Metric) ([]ScoredID, error) {
	return idx.exact.Search(query, k, metric)
}

func (idx *HNSWIndex) RangeSearch(query Vector, threshold float64, metric Metric) ([]ScoredID, error) {
	return idx.exact.RangeSearch(query, threshold, metric)
}

func (idx *HNSWIndex) Stats() map[string]any {
	stats := idx.exact.Stats()
	stats["backend"] = "hnsw(exact-fallback)"
	stats["M"] = idx.m
	stats["efConstruction"] = idx.efConstruction
	stats["efSearch"] = idx.efSearch
	return stats
}
