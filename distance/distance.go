package distance

import (
	"fmt"
	"math"
	"strings"
)

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Euclidean calculates the L2 distance between two vectors.
func Euclidean(a, b []float32) float32 {
	return float32(math.Sqrt(float64(SquaredL2(a, b))))
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float32 {
	return float32(math.Sqrt(float64(Dot(v, v))))
}

// Cosine calculates the cosine similarity of two vectors.
// It returns 0 when either vector has zero norm.
func Cosine(a, b []float32) float32 {
	return CosineWithNorms(a, b, Norm(a), Norm(b))
}

// CosineWithNorms calculates the cosine similarity using precomputed norms.
func CosineWithNorms(a, b []float32, normA, normB float32) float32 {
	if normA == 0 || normB == 0 {
		return 0
	}
	return Dot(a, b) / (normA * normB)
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	n := Norm(v)
	if n == 0 {
		return false
	}
	inv := 1 / n
	for i := range v {
		v[i] *= inv
	}
	return true
}

// Metric represents the metric used for vector comparison.
type Metric uint8

const (
	MetricCosine Metric = iota
	MetricEuclidean
	MetricDot
)

func (m Metric) String() string {
	switch m {
	case MetricCosine:
		return "cosine"
	case MetricEuclidean:
		return "euclidean"
	case MetricDot:
		return "dot"
	default:
		return fmt.Sprintf("unknown(%d)", m)
	}
}

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	return m <= MetricDot
}

// HigherIsBetter reports whether larger scores rank first.
func (m Metric) HigherIsBetter() bool {
	return m != MetricEuclidean
}

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("distance: unknown metric %d", m)
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Metric) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Parse converts a metric name into a Metric.
// Accepted names: cosine, euclidean (l2), dot (inner, ip).
func Parse(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cosine", "cos":
		return MetricCosine, nil
	case "euclidean", "l2":
		return MetricEuclidean, nil
	case "dot", "inner", "ip":
		return MetricDot, nil
	default:
		return 0, fmt.Errorf("distance: unsupported metric %q", name)
	}
}
