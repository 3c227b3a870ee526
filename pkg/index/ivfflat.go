package index

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/cuemby/protobase/pkg/pberr"
)

// IVFFlatIndex partitions the vector space into nlist centroids (via
// Lloyd's k-means) and probes only the nprobe centroids nearest a query,
// trading a small amount of recall for sub-linear search. Grounded on
// original_source/proto_db/vector_index.py's IVFFlatIndex.
//
// The original additionally pages each centroid's bucket into
// copy-on-write page blobs sized for disk persistence (page_size,
// min_fill). That paging is a storage-compaction concern orthogonal to
// IVFFlat's defining idea (coarse quantization + multiprobe search), so
// this port keeps one flat bucket per centroid instead.
type IVFFlatIndex struct {
	mu     sync.RWMutex
	metric Metric
	nlist  int
	nprobe int
	dim    int

	centroids []Vector
	buckets   map[int]map[string]Vector
	idToCell  map[string]int
}

// NewIVFFlatIndex returns an empty index with nlist centroids and nprobe
// centroids searched per query.
func NewIVFFlatIndex(metric Metric, nlist, nprobe int) *IVFFlatIndex {
	if metric == "" {
		metric = MetricCosine
	}
	if nlist < 1 {
		nlist = 1
	}
	if nprobe < 1 {
		nprobe = 1
	}
	return &IVFFlatIndex{
		metric:   metric,
		nlist:    nlist,
		nprobe:   nprobe,
		buckets:  map[int]map[string]Vector{},
		idToCell: map[string]int{},
	}
}

func (idx *IVFFlatIndex) Build(vectors []Vector, ids []string, metric Metric) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if metric != "" {
		idx.metric = metric
	}
	if len(vectors) != len(ids) {
		return pberr.Validationf("index: vectors/ids length mismatch")
	}
	idx.buckets = map[int]map[string]Vector{}
	idx.idToCell = map[string]int{}
	if len(vectors) == 0 {
		idx.centroids = nil
		return nil
	}
	idx.dim = vectors[0].Dim()
	for _, v := range vectors {
		if v.Dim() != idx.dim {
			return pberr.Validationf("index: inconsistent vector dimensions in Build")
		}
	}

	idx.centroids = kmeans(vectors, idx.nlist, idx.metric)
	for k := range idx.centroids {
		idx.buckets[k] = map[string]Vector{}
	}
	for i, v := range vectors {
		cell := idx.nearestCentroid(v)
		idx.buckets[cell][ids[i]] = v
		idx.idToCell[ids[i]] = cell
	}
	return nil
}

// kmeans runs a fixed 5 Lloyd iterations from a random initial assignment
// of K distinct vectors as centroids (K clamped to the data size).
func kmeans(data []Vector, nlist int, metric Metric) []Vector {
	k := nlist
	if k > len(data) {
		k = len(data)
	}
	if k < 1 {
		return nil
	}

	perm := rand.Perm(len(data))
	centroids := make([]Vector, k)
	for i := 0; i < k; i++ {
		centroids[i] = data[perm[i]]
	}

	const iterations = 5
	for iter := 0; iter < iterations; iter++ {
		sums := make([][]float64, k)
		counts := make([]int, k)
		dim := data[0].Dim()
		for i := range sums {
			sums[i] = make([]float64, dim)
		}

		for _, v := range data {
			best, bestScore := 0, float64(negInf)
			for c, centroid := range centroids {
				score, _ := v.Similarity(centroid, metric)
				if score > bestScore {
					best, bestScore = c, score
				}
			}
			vs := v.ToSlice()
			for d := 0; d < dim; d++ {
				sums[best][d] += vs[d]
			}
			counts[best]++
		}

		for c := range centroids {
			if counts[c] == 0 {
				centroids[c] = data[rand.Intn(len(data))]
				continue
			}
			mean := sums[c]
			for d := range mean {
				mean[d] /= float64(counts[c])
			}
			newCentroid, err := NewVector(mean, metric == MetricCosine)
			if err == nil {
				centroids[c] = newCentroid
			}
		}
	}
	return centroids
}

const negInf = -1 << 62

func (idx *IVFFlatIndex) nearestCentroid(v Vector) int {
	best, bestScore := 0, float64(negInf)
	for c, centroid := range idx.centroids {
		score, _ := v.Similarity(centroid, idx.metric)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

func (idx *IVFFlatIndex) bestCentroids(v Vector, nprobe int) []int {
	type scored struct {
		cell  int
		score float64
	}
	scores := make([]scored, len(idx.centroids))
	for c, centroid := range idx.centroids {
		score, _ := v.Similarity(centroid, idx.metric)
		scores[c] = scored{cell: c, score: score}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if nprobe > len(scores) {
		nprobe = len(scores)
	}
	out := make([]int, nprobe)
	for i := 0; i < nprobe; i++ {
		out[i] = scores[i].cell
	}
	return out
}

func (idx *IVFFlatIndex) Add(id string, vector Vector) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.dim == 0 {
		idx.dim = vector.Dim()
	} else if vector.Dim() != idx.dim {
		return pberr.Validationf("index: vector dimension mismatch")
	}
	if len(idx.centroids) == 0 {
		idx.centroids = []Vector{vector}
		idx.buckets[0] = map[string]Vector{}
	}
	if old, ok := idx.idToCell[id]; ok {
		delete(idx.buckets[old], id)
	}
	cell := idx.nearestCentroid(vector)
	idx.buckets[cell][id] = vector
	idx.idToCell[id] = cell
	return nil
}

func (idx *IVFFlatIndex) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if cell, ok := idx.idToCell[id]; ok {
		delete(idx.buckets[cell], id)
		delete(idx.idToCell, id)
	}
}

func (idx *IVFFlatIndex) Search(query Vector, k int, metric Metric) ([]ScoredID, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if metric == "" {
		metric = idx.metric
	}
	var pairs []ScoredID
	for _, cell := range idx.bestCentroids(query, idx.nprobe) {
		for id, v := range idx.buckets[cell] {
			score, err := query.Similarity(v, metric)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, ScoredID{ID: id, Score: score})
		}
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

func (idx *IVFFlatIndex) RangeSearch(query Vector, threshold float64, metric Metric) ([]ScoredID, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if metric == "" {
		metric = idx.metric
	}
	var out []ScoredID
	for _, cell := range idx.bestCentroids(query, idx.nprobe) {
		for id, v := range idx.buckets[cell] {
			score, err := query.Similarity(v, metric)
			if err != nil {
				return nil, err
			}
			if score >= threshold {
				out = append(out, ScoredID{ID: id, Score: score})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (idx *IVFFlatIndex) Stats() map[string]any {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	n := 0
	for _, b := range idx.buckets {
		n += len(b)
	}
	return map[string]any{
		"backend": "ivfflat",
		"n_vecs":  n,
		"dim":     idx.dim,
		"metric":  string(idx.metric),
		"nlist":   len(idx.centroids),
		"nprobe":  idx.nprobe,
	}
}
