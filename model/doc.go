// Package model defines the data types that flow through the ingestion pipeline.
//
// # Flow
//
//	Document -> Segment -> vector ([]float32) -> IndexEntry
//
// Documents are transient inputs. Segments and vectors live only until they are
// folded into an IndexEntry, which is owned by the index.
//
// # Offsets
//
// Segment offsets are rune (Unicode code point) offsets into Document.Text,
// half-open: [Start, End).
package model
