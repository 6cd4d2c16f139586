package ragindex

import "time"

// DocumentReport is the outcome of ingesting one document.
type DocumentReport struct {
	DocumentID string `json:"document_id"`
	State      State  `json:"state"`

	// Segments is the number of segments the document was cut into.
	Segments int `json:"segments"`

	// IndexedSegments is the number of segments inserted into the index.
	IndexedSegments int `json:"indexed_segments"`

	// FailedSegments lists the IDs of segments that were not indexed.
	FailedSegments []string `json:"failed_segments,omitempty"`

	// Err joins the errors of every failed batch.
	Err error `json:"-"`

	Duration time.Duration `json:"duration"`
}

// Report is the outcome of an ingestion run.
type Report struct {
	RunID string `json:"run_id"`

	// Documents holds one entry per started document, in source order.
	Documents []DocumentReport `json:"documents"`

	Indexed        int `json:"indexed"`
	Partial        int `json:"partial"`
	Failed         int `json:"failed"`
	FailedSegments int `json:"failed_segments"`

	// SourceErrors are the errors yielded by the document source.
	SourceErrors []error `json:"-"`

	// Cancelled is set when the context ended before the source was exhausted.
	Cancelled bool `json:"cancelled"`

	Duration time.Duration `json:"duration"`
}

// OK reports whether every document was fully indexed.
func (r *Report) OK() bool {
	return !r.Cancelled && r.Partial == 0 && r.Failed == 0 && len(r.SourceErrors) == 0
}

func (r *Report) add(d DocumentReport) {
	r.Documents = append(r.Documents, d)
	switch d.State {
	case StateIndexed:
		r.Indexed++
	case StatePartiallyFailed:
		r.Partial++
	case StateFailed:
		r.Failed++
	}
	r.FailedSegments += len(d.FailedSegments)
}
