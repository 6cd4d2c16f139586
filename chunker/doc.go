// Package chunker splits document text into overlapping, fixed-size segments.
//
// Sizes and offsets are counted in runes. With a segment size L and an overlap
// O (0 <= O < L), segment i starts at i*(L-O) and the last segment ends exactly
// at the end of the text:
//
//	c, _ := chunker.New(500, 50)
//	for seg := range c.Segments(doc) {
//	    ...
//	}
//
// Chunking is pure and deterministic: the returned sequence can be ranged over
// any number of times and always yields the same segments.
package chunker
