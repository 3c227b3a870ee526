package index

import (
	"encoding/binary"
	"math"

	"github.com/cuemby/protobase/pkg/pberr"
)

// Vector is an immutable, fixed-dimension embedding. Grounded on
// original_source/proto_db/vectors.py's Vector dataclass.
type Vector struct {
	data       []float64
	normalized bool
}

// NewVector validates values (no NaN/Inf, positive dimension) and
// optionally L2-normalizes them before wrapping.
func NewVector(values []float64, normalize bool) (Vector, error) {
	if len(values) == 0 {
		return Vector{}, pberr.Validationf("index: vector must have positive dimension")
	}
	if err := validateFloats(values); err != nil {
		return Vector{}, err
	}
	data := append([]float64(nil), values...)
	if normalize {
		n := norm2(data)
		if n == 0 {
			return Vector{}, pberr.Validationf("index: cannot normalize zero vector")
		}
		for i := range data {
			data[i] /= n
		}
	}
	return Vector{data: data, normalized: normalize}, nil
}

func validateFloats(values []float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return pberr.Validationf("index: vector contains NaN/Inf")
		}
	}
	return nil
}

func norm2(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Dim returns the vector's dimension.
func (v Vector) Dim() int { return len(v.data) }

// Normalized reports whether the vector was constructed with L2 normalization.
func (v Vector) Normalized() bool { return v.normalized }

// ToSlice returns a copy of the underlying values.
func (v Vector) ToSlice() []float64 {
	return append([]float64(nil), v.data...)
}

// Metric selects the distance/similarity function a VectorIndex uses.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricL2     Metric = "l2"
)

// Similarity scores v against other under metric: higher is always more
// similar (l2 is reported as negative distance, matching cosine's
// higher-is-closer convention).
func (v Vector) Similarity(other Vector, metric Metric) (float64, error) {
	switch metric {
	case MetricCosine, "":
		return CosineSimilarity(v.data, other.data)
	case MetricL2:
		d, err := L2Distance(v.data, other.data)
		if err != nil {
			return 0, err
		}
		return -d, nil
	default:
		return 0, pberr.Validationf("index: unsupported metric %q", metric)
	}
}

// CosineSimilarity computes cosine similarity between two equal-length
// vectors, without any external numeric library dependency, mirroring
// vectors.py's pure-Python cosine_similarity.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, pberr.Validationf("index: vectors have different dimensions")
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	na, nb := norm2(a), norm2(b)
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (na * nb), nil
}

// L2Distance computes Euclidean distance between two equal-length vectors.
func L2Distance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, pberr.Validationf("index: vectors have different dimensions")
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// ToBytes encodes the vector as: 4-byte little-endian dim, 1 normalized
// flag byte, then dim 8-byte little-endian float64 values. Mirrors
// vectors.py's Vector.to_bytes struct layout.
func (v Vector) ToBytes() []byte {
	buf := make([]byte, 5+8*len(v.data))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(v.data)))
	if v.normalized {
		buf[4] = 1
	}
	for i, x := range v.data {
		binary.LittleEndian.PutUint64(buf[5+8*i:13+8*i], math.Float64bits(x))
	}
	return buf
}

// VectorFromBytes decodes a Vector produced by ToBytes.
func VectorFromBytes(b []byte) (Vector, error) {
	if len(b) < 5 {
		return Vector{}, pberr.Corruptionf("index: invalid vector bytes")
	}
	dim := int(binary.LittleEndian.Uint32(b[0:4]))
	normalized := b[4] != 0
	expected := 5 + 8*dim
	if len(b) != expected {
		return Vector{}, pberr.Corruptionf("index: invalid vector bytes length")
	}
	data := make([]float64, dim)
	for i := 0; i < dim; i++ {
		bits := binary.LittleEndian.Uint64(b[5+8*i : 13+8*i])
		data[i] = math.Float64frombits(bits)
	}
	return Vector{data: data, normalized: normalized}, nil
}
