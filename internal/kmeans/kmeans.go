package kmeans

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"slices"

	"github.com/hupe1980/ragindex/distance"
)

// ErrInvalidInput is returned for a non-positive dim or k, or ragged vectors.
var ErrInvalidInput = errors.New("kmeans: invalid input")

// TrainKMeans trains k centroids from the given vectors using Lloyd's algorithm.
// It returns the flattened centroids (k * dim), or nil when there are fewer
// than k vectors. rng makes the initialization reproducible.
func TrainKMeans(ctx context.Context, vectors []float32, dim int, k int, maxIter int, rng *rand.Rand) ([]float32, error) {
	if dim <= 0 || k <= 0 || len(vectors)%dim != 0 {
		return nil, ErrInvalidInput
	}

	n := len(vectors) / dim
	if n < k {
		return nil, nil // Not enough vectors to cluster
	}

	centroids := make([]float32, k*dim)

	// Initialize centroids randomly from data points
	perm := rng.Perm(n)
	for i := range k {
		copy(centroids[i*dim:(i+1)*dim], vectors[perm[i]*dim:(perm[i]+1)*dim])
	}

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	counts := make([]int, k)
	sums := make([]float32, k*dim)

	for range maxIter {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false

		// Assignment step
		for i := range n {
			best := AssignPartition(vectors[i*dim:(i+1)*dim], centroids, dim)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		if !changed {
			break
		}

		// Update step
		clear(sums)
		clear(counts)

		for i := range n {
			cluster := assignments[i]
			vec := vectors[i*dim : (i+1)*dim]
			for d := range dim {
				sums[cluster*dim+d] += vec[d]
			}
			counts[cluster]++
		}

		for j := range k {
			if counts[j] > 0 {
				scale := 1.0 / float32(counts[j])
				for d := range dim {
					centroids[j*dim+d] = sums[j*dim+d] * scale
				}
			} else {
				// Re-seed an empty cluster with a random point.
				idx := rng.Intn(n)
				copy(centroids[j*dim:(j+1)*dim], vectors[idx*dim:(idx+1)*dim])
			}
		}
	}

	return centroids, nil
}

// AssignPartition finds the closest centroid for a vector.
// Ties go to the lower centroid index.
func AssignPartition(vec []float32, centroids []float32, dim int) int {
	k := len(centroids) / dim

	best := -1
	minDist := float32(math.MaxFloat32)

	for j := range k {
		d := distance.SquaredL2(vec, centroids[j*dim:(j+1)*dim])
		if d < minDist {
			minDist = d
			best = j
		}
	}

	return best
}

type centroidDist struct {
	id   int
	dist float32
}

// FindClosestCentroids returns the indices of the n closest centroids to the query vector.
func FindClosestCentroids(query []float32, centroids []float32, dim int, n int) []int {
	k := len(centroids) / dim
	n = min(n, k)

	dists := make([]centroidDist, k)
	for i := range k {
		dists[i] = centroidDist{id: i, dist: distance.SquaredL2(query, centroids[i*dim:(i+1)*dim])}
	}

	slices.SortStableFunc(dists, func(a, b centroidDist) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		default:
			return 0
		}
	})

	result := make([]int, n)
	for i := range n {
		result[i] = dists[i].id
	}

	return result
}
