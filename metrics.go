package ragindex

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus;
// see the observability package for a ready-made collector.
type MetricsCollector interface {
	// RecordDocument is called once per document with its final state.
	RecordDocument(state State, segments int, duration time.Duration)

	// RecordBatch is called after every provider call.
	// attempt is 0 for the first try.
	RecordBatch(size, attempt int, duration time.Duration, err error)

	// RecordInsert is called after each index insert.
	RecordInsert(count int, duration time.Duration, err error)

	// RecordQuery is called after each query.
	RecordQuery(k int, duration time.Duration, err error)

	// RecordSave is called after each save to a file or blob.
	RecordSave(entries int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordDocument(State, int, time.Duration)   {}
func (NoopMetricsCollector) RecordBatch(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordInsert(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordSave(int, time.Duration, error)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	DocumentsIndexed atomic.Int64
	DocumentsPartial atomic.Int64
	DocumentsFailed  atomic.Int64
	BatchCount       atomic.Int64
	BatchRetries     atomic.Int64
	BatchErrors      atomic.Int64
	BatchTotalNanos  atomic.Int64
	InsertCount      atomic.Int64
	InsertEntries    atomic.Int64
	InsertErrors     atomic.Int64
	QueryCount       atomic.Int64
	QueryErrors      atomic.Int64
	QueryTotalNanos  atomic.Int64
	SaveCount        atomic.Int64
	SaveErrors       atomic.Int64
}

// RecordDocument implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDocument(state State, _ int, _ time.Duration) {
	switch state {
	case StateIndexed:
		b.DocumentsIndexed.Add(1)
	case StatePartiallyFailed:
		b.DocumentsPartial.Add(1)
	case StateFailed:
		b.DocumentsFailed.Add(1)
	}
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(_, attempt int, duration time.Duration, err error) {
	b.BatchCount.Add(1)
	b.BatchTotalNanos.Add(duration.Nanoseconds())
	if attempt > 0 {
		b.BatchRetries.Add(1)
	}
	if err != nil {
		b.BatchErrors.Add(1)
	}
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(count int, _ time.Duration, err error) {
	b.InsertCount.Add(1)
	if err != nil {
		b.InsertErrors.Add(1)
		return
	}
	b.InsertEntries.Add(int64(count))
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(_ int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(_ int, _ time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		DocumentsIndexed: b.DocumentsIndexed.Load(),
		DocumentsPartial: b.DocumentsPartial.Load(),
		DocumentsFailed:  b.DocumentsFailed.Load(),
		BatchCount:       b.BatchCount.Load(),
		BatchRetries:     b.BatchRetries.Load(),
		BatchErrors:      b.BatchErrors.Load(),
		BatchAvgNanos:    avg(b.BatchTotalNanos.Load(), b.BatchCount.Load()),
		InsertCount:      b.InsertCount.Load(),
		InsertEntries:    b.InsertEntries.Load(),
		InsertErrors:     b.InsertErrors.Load(),
		QueryCount:       b.QueryCount.Load(),
		QueryErrors:      b.QueryErrors.Load(),
		QueryAvgNanos:    avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		SaveCount:        b.SaveCount.Load(),
		SaveErrors:       b.SaveErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	DocumentsIndexed int64
	DocumentsPartial int64
	DocumentsFailed  int64
	BatchCount       int64
	BatchRetries     int64
	BatchErrors      int64
	BatchAvgNanos    int64
	InsertCount      int64
	InsertEntries    int64
	InsertErrors     int64
	QueryCount       int64
	QueryErrors      int64
	QueryAvgNanos    int64
	SaveCount        int64
	SaveErrors       int64
}
