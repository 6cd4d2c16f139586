package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/ragindex/distance"
	"github.com/hupe1980/ragindex/model"
)

var (
	// ErrDimension is the sentinel matched by every *ErrDimensionMismatch.
	ErrDimension = errors.New("dimension mismatch")

	// ErrEmptyIndex is returned when querying an index without entries.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrEmptyVector is returned when a vector has no components.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrInvalidMetric is returned for metrics the index does not support.
	ErrInvalidMetric = errors.New("invalid metric")
)

// ErrDimensionMismatch is a named error type for dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is reports whether target is ErrDimension.
func (e *ErrDimensionMismatch) Is(target error) bool { return target == ErrDimension }

// Result is a single query match.
type Result struct {
	// ID is the entry ID (its insertion position).
	ID uint32

	// Score is the similarity (cosine, dot) or distance (euclidean).
	Score float32

	// Entry is the matched entry.
	Entry model.IndexEntry
}

// SearchOptions tunes a query. A nil *SearchOptions uses the defaults.
type SearchOptions struct {
	// Metric overrides the index metric for this query.
	Metric *distance.Metric

	// Documents restricts the candidates to entries of these document IDs.
	Documents []string

	// Filter restricts the candidates by entry ID. Return true to keep.
	Filter func(id uint32) bool

	// NProbes is the number of partitions scanned by approximate indexes.
	// 0 selects the index default. Exact indexes ignore it.
	NProbes int
}

// MetricOr returns the query metric, falling back to def.
func (o *SearchOptions) MetricOr(def distance.Metric) distance.Metric {
	if o == nil || o.Metric == nil {
		return def
	}
	return *o.Metric
}

// WithMetric returns a pointer to m for use in SearchOptions.
func WithMetric(m distance.Metric) *distance.Metric {
	return &m
}

// Snapshot is a point-in-time copy of an index: entries in insertion order,
// the dimension and the construction metric.
type Snapshot struct {
	Dimension int
	Metric    distance.Metric
	Entries   []model.IndexEntry
}

// Snapshotter exposes a point-in-time snapshot.
type Snapshotter interface {
	Snapshot() *Snapshot
}

// Index is a vector index over IndexEntry records.
type Index interface {
	Snapshotter

	// Insert appends entries atomically.
	Insert(ctx context.Context, entries []model.IndexEntry) error

	// Query returns the k best matches for q.
	Query(ctx context.Context, q []float32, k int, opts *SearchOptions) ([]Result, error)

	// Len returns the number of entries.
	Len() int

	// Dimension returns D, or 0 if not yet established.
	Dimension() int

	// Metric returns the construction metric.
	Metric() distance.Metric

	// Name returns the index type name.
	Name() string
}

// ValidateEntries checks that every entry has exactly dim components.
// When dim is 0 the first entry establishes it. It returns the dimension the
// batch agrees on.
func ValidateEntries(dim int, entries []model.IndexEntry) (int, error) {
	for _, e := range entries {
		if len(e.Vector) == 0 {
			return dim, ErrEmptyVector
		}
		if dim == 0 {
			dim = len(e.Vector)
			continue
		}
		if len(e.Vector) != dim {
			return dim, &ErrDimensionMismatch{Expected: dim, Actual: len(e.Vector)}
		}
	}
	return dim, nil
}

// ValidateQuery checks the query arguments against the index state.
func ValidateQuery(dim, n int, q []float32, k int, m distance.Metric) error {
	if k <= 0 {
		return ErrInvalidK
	}
	if !m.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidMetric, m)
	}
	if n == 0 {
		return ErrEmptyIndex
	}
	if len(q) != dim {
		return &ErrDimensionMismatch{Expected: dim, Actual: len(q)}
	}
	return nil
}
