// Package testutil provides testing utilities for ragindex.
//
// This package is intended for use in tests only. It provides helpers for
// generating random vectors and index entries, a scriptable embedding
// provider, and recall computation.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.UnitVectors(100, 32)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(exactIDs, approxIDs)
package testutil
