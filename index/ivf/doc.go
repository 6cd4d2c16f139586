// Package ivf implements an inverted-file approximate vector index.
//
// Entries live in an embedded flat index. Once trained, the vector space is
// split into NumLists k-means partitions and each entry ID is recorded in
// the roaring bitmap of its nearest centroid. A query scans only the NProbes
// partitions closest to the query vector. Probing every partition returns
// exactly the flat result.
//
// Until the index holds TrainThreshold entries (or Train is called) every
// query is an exhaustive scan.
package ivf
