// Package distance provides the similarity metrics used by the vector indexes.
//
// # Supported Metrics
//
//   - MetricCosine: cosine similarity, higher is better
//   - MetricEuclidean: Euclidean (L2) distance, lower is better
//   - MetricDot: dot product (inner product), higher is better
//
// # Usage
//
//	m, err := distance.Parse("cosine")
//	score := distance.CosineWithNorms(q, v, distance.Norm(q), distance.Norm(v))
//	higherFirst := m.HigherIsBetter()
package distance
