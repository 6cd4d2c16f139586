package model

import (
	"fmt"
	"maps"
	"slices"
)

// Document is a logical document produced by a document source.
// It is immutable once produced.
type Document struct {
	// ID is the opaque document identifier.
	ID string `json:"id"`

	// Text is the raw document text.
	Text string `json:"text"`

	// Metadata is optional descriptive data (e.g. source path, page number).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Segment is a contiguous substring of one document's text.
type Segment struct {
	// DocumentID references the document this segment was cut from.
	DocumentID string `json:"document_id"`

	// Ordinal is the zero-based position of the segment within its document.
	Ordinal int `json:"ordinal"`

	// Start is the rune offset of the first character (inclusive).
	Start int `json:"start"`

	// End is the rune offset after the last character (exclusive).
	End int `json:"end"`

	// Text is the segment content, equal to the rune range [Start, End) of the document text.
	Text string `json:"text"`
}

// ID returns the segment identifier "<documentID>#<ordinal>".
func (s Segment) ID() string {
	return fmt.Sprintf("%s#%d", s.DocumentID, s.Ordinal)
}

// Len returns the segment length in runes.
func (s Segment) Len() int {
	return s.End - s.Start
}

// IndexEntry is the unit stored by a vector index.
type IndexEntry struct {
	Vector   []float32         `json:"vector"`
	Segment  Segment           `json:"segment"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewIndexEntry builds an entry holding its own copies of vector and metadata.
// Empty metadata is normalized to nil.
func NewIndexEntry(vector []float32, seg Segment, metadata map[string]string) IndexEntry {
	return IndexEntry{
		Vector:   slices.Clone(vector),
		Segment:  seg,
		Metadata: CloneMetadata(metadata),
	}
}

// CloneMetadata returns a copy of m, or nil when m is empty.
func CloneMetadata(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return maps.Clone(m)
}
