package ragindex

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}
	boom := errors.New("boom")

	m.RecordDocument(StateIndexed, 2, time.Millisecond)
	m.RecordDocument(StateFailed, 1, time.Millisecond)
	m.RecordBatch(4, 0, 10*time.Millisecond, boom)
	m.RecordBatch(4, 1, 30*time.Millisecond, nil)
	m.RecordInsert(4, time.Millisecond, nil)
	m.RecordQuery(5, 2*time.Millisecond, nil)
	m.RecordQuery(5, 4*time.Millisecond, boom)
	m.RecordSave(4, time.Millisecond, nil)

	s := m.GetStats()
	assert.Equal(t, int64(1), s.DocumentsIndexed)
	assert.Equal(t, int64(1), s.DocumentsFailed)
	assert.Equal(t, int64(2), s.BatchCount)
	assert.Equal(t, int64(1), s.BatchRetries)
	assert.Equal(t, int64(1), s.BatchErrors)
	assert.Equal(t, (20 * time.Millisecond).Nanoseconds(), s.BatchAvgNanos)
	assert.Equal(t, int64(4), s.InsertEntries)
	assert.Equal(t, int64(2), s.QueryCount)
	assert.Equal(t, int64(1), s.QueryErrors)
	assert.Equal(t, (3 * time.Millisecond).Nanoseconds(), s.QueryAvgNanos)
	assert.Equal(t, int64(1), s.SaveCount)
}

func TestNoopCollectors(t *testing.T) {
	var m MetricsCollector = NoopMetricsCollector{}
	m.RecordDocument(StateIndexed, 1, 0)
	m.RecordSave(1, 0, nil)

	assert.Zero(t, (&BasicMetricsCollector{}).GetStats().QueryAvgNanos)
}
