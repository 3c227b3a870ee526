package index

// ScoredID pairs an indexed identifier with its similarity score against
// the last query (higher is always more similar, regardless of metric).
type ScoredID struct {
	ID    string
	Score float64
}

// VectorIndex is the contract shared by ExactVectorIndex, IVFFlatIndex,
// and HNSWIndex. Grounded on
// original_source/proto_db/vector_index.py's VectorIndex ABC.
type VectorIndex interface {
	// Build replaces the index's contents with vectors/ids in bulk.
	Build(vectors []Vector, ids []string, metric Metric) error

	// Add inserts or replaces the vector stored under id.
	Add(id string, vector Vector) error

	// Remove drops id from the index, if present.
	Remove(id string)

	// Search returns the k nearest neighbors of query, in descending score
	// order.
	Search(query Vector, k int, metric Metric) ([]ScoredID, error)

	// RangeSearch returns every indexed vector scoring at or above
	// threshold against query.
	RangeSearch(query Vector, threshold float64, metric Metric) ([]ScoredID, error)

	// Stats reports index-kind-specific diagnostics (size, nlist, etc.).
	Stats() map[string]any
}

var (
	_ VectorIndex = (*ExactVectorIndex)(nil)
	_ VectorIndex = (*IVFFlatIndex)(nil)
	_ VectorIndex = (*HNSWIndex)(nil)
)
