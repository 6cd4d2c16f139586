// Package index defines the vector index contract shared by all index types.
//
// Two implementations are provided:
//
//   - flat: exact brute-force scan, the reference implementation
//   - ivf: inverted-file approximate search over k-means partitions
//
// # Contract
//
// Insert appends a batch of entries atomically: either every entry of the
// batch becomes visible or none does. The first successful insert fixes the
// dimension D when the index was created without one. Entries are never
// overwritten or removed.
//
// Query returns min(k, candidates) results, best first. Cosine and dot scores
// rank descending, Euclidean distances ascending. Exact ties rank by insertion
// order. Querying an empty index fails with ErrEmptyIndex.
//
// # Concurrency
//
// Inserts are serialized inside the index. Queries never block on each other
// and observe every insert that completed before they started.
package index
