package flat

import (
	"slices"
)

// Stats describes the contents of a flat index.
type Stats struct {
	Entries   int
	Documents int
	Dimension int
	Metric    string
	// VectorBytes is the memory held by raw vector components.
	VectorBytes int64
}

// Stats returns statistics about the index.
func (f *Flat) Stats() Stats {
	st := f.getState()
	dim := f.Dimension()
	return Stats{
		Entries:     len(st.entries),
		Documents:   len(st.postings),
		Dimension:   dim,
		Metric:      f.opts.Metric.String(),
		VectorBytes: int64(len(st.entries)) * int64(dim) * 4,
	}
}

// Documents returns the sorted IDs of all documents with entries.
func (f *Flat) Documents() []string {
	st := f.getState()
	ids := make([]string, 0, len(st.postings))
	for id := range st.postings {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
