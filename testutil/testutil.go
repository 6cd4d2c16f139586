package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/ragindex/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float32()
		}
		vectors[i] = vec
	}

	return vectors
}

// UnitVectors generates L2-normalized random vectors (on the hypersphere).
func (r *RNG) UnitVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float32, num)
	for i := range num {
		vectors[i] = r.unitVectorLocked(dimensions)
	}

	return vectors
}

func (r *RNG) unitVectorLocked(dimensions int) []float32 {
	vec := make([]float32, dimensions)
	var norm float64
	for j := range vec {
		v := r.rand.NormFloat64()
		vec[j] = float32(v)
		norm += v * v
	}

	if norm == 0 {
		norm = 1
	}

	inv := float32(1.0 / math.Sqrt(norm))
	for j := range vec {
		vec[j] *= inv
	}
	return vec
}

// ClusteredVectors generates vectors clustered around random centroids.
// Useful for testing partitioned index recall on non-uniform data.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float32) [][]float32 {
	centroids := r.UnitVectors(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	vectors := make([][]float32, num)

	for i := range num {
		centroid := centroids[i%clusters]
		vec := data[i*dim : (i+1)*dim]

		for j := range dim {
			vec[j] = centroid[j] + float32(r.rand.NormFloat64())*spread
		}
		vectors[i] = vec
	}

	return vectors
}

// Text returns a pseudo-random lowercase text of n runes with spaces.
func (r *RNG) Text(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	const alphabet = "abcdefghijklmnopqrstuvwxyz     "
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.rand.Intn(len(alphabet))]
	}
	return string(b)
}

// Entries wraps vectors into index entries. Entry i belongs to document
// "doc-<i/perDoc>" with ordinal i%perDoc.
func Entries(vectors [][]float32, perDoc int) []model.IndexEntry {
	if perDoc <= 0 {
		perDoc = 1
	}
	entries := make([]model.IndexEntry, len(vectors))
	for i, v := range vectors {
		entries[i] = model.IndexEntry{
			Vector: v,
			Segment: model.Segment{
				DocumentID: fmt.Sprintf("doc-%d", i/perDoc),
				Ordinal:    i % perDoc,
				Start:      0,
				End:        1,
				Text:       fmt.Sprintf("segment %d", i),
			},
			Metadata: map[string]string{"n": fmt.Sprint(i)},
		}
	}
	return entries
}

// ComputeRecall computes recall@k by comparing approximate result IDs against ground truth.
func ComputeRecall(groundTruth, approximate []uint32) float64 {
	if len(groundTruth) == 0 || len(approximate) == 0 {
		if len(groundTruth) == 0 && len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	k := min(len(approximate), len(groundTruth))

	truthSet := make(map[uint32]struct{}, k)
	for i := range k {
		truthSet[groundTruth[i]] = struct{}{}
	}

	hits := 0
	for _, id := range approximate {
		if _, ok := truthSet[id]; ok {
			hits++
		}
	}

	return float64(hits) / float64(k)
}
