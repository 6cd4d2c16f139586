// Package kmeans implements k-means clustering for partitioned index training.
//
// Vectors and centroids use a flattened layout (n * dim). Clustering always
// uses squared Euclidean distance; callers normalize vectors beforehand when
// partitioning for cosine similarity.
package kmeans
