// Package flat implements the exact vector index.
//
// Flat stores every entry in insertion order and answers queries with a
// linear scan and a bounded heap. Entries are published through an atomic
// copy-on-write state, so queries never block on concurrent inserts and
// always observe a consistent prefix of the index.
//
// Each document's entry IDs are kept in a roaring bitmap. Queries restricted
// to a set of documents only scan the union of those bitmaps.
package flat
