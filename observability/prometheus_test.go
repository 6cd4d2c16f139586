package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragindex"
	"github.com/hupe1980/ragindex/model"
	"github.com/hupe1980/ragindex/testutil"
)

// gather returns the sample values of family name keyed by joined label values.
func gather(t *testing.T, reg *prometheus.Registry, name string) map[string]float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			key := ""
			for _, lp := range m.GetLabel() {
				if key != "" {
					key += ","
				}
				key += lp.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[key] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg)
	boom := errors.New("boom")

	c.RecordDocument(ragindex.StateIndexed, 3, time.Millisecond)
	c.RecordDocument(ragindex.StateFailed, 1, time.Millisecond)
	c.RecordBatch(2, 0, time.Millisecond, boom)
	c.RecordBatch(2, 1, time.Millisecond, nil)
	c.RecordInsert(2, time.Millisecond, nil)
	c.RecordInsert(5, time.Millisecond, boom)
	c.RecordQuery(3, time.Millisecond, nil)
	c.RecordSave(2, time.Millisecond, nil)

	assert.Equal(t, map[string]float64{"indexed": 1, "failed": 1}, gather(t, reg, "ragindex_documents_total"))
	assert.Equal(t, float64(4), gather(t, reg, "ragindex_segments_total")[""])
	assert.Equal(t, float64(1), gather(t, reg, "ragindex_embedding_retries_total")[""])
	assert.Equal(t, float64(2), gather(t, reg, "ragindex_entries_inserted_total")[""])
	assert.Equal(t, float64(2), gather(t, reg, "ragindex_saved_entries")[""])

	lat := gather(t, reg, "ragindex_operation_latency_seconds")
	assert.Equal(t, float64(1), lat["embed,error"])
	assert.Equal(t, float64(1), lat["embed,success"])
	assert.Equal(t, float64(1), lat["insert,error"])
	assert.Equal(t, float64(1), lat["query,success"])
	assert.Equal(t, float64(1), lat["save,success"])
}

func TestPrometheusCollectorDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusCollector(reg)
	assert.Panics(t, func() { NewPrometheusCollector(reg) })
}

func TestPrometheusCollectorWithPipeline(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc := NewPrometheusCollector(reg)

	cfg := ragindex.DefaultConfig()
	cfg.ChunkSize = 10
	cfg.ChunkOverlap = 0
	cfg.BatchSize = 1

	p, err := ragindex.New(cfg, &testutil.Provider{Dim: 4}, ragindex.WithMetricsCollector(mc))
	require.NoError(t, err)

	rep := p.IngestDocument(context.Background(), model.Document{ID: "doc", Text: "twenty runes of text"})
	require.Equal(t, ragindex.StateIndexed, rep.State)

	assert.Equal(t, float64(1), gather(t, reg, "ragindex_documents_total")["indexed"])
	assert.Equal(t, float64(2), gather(t, reg, "ragindex_entries_inserted_total")[""])
	assert.Equal(t, float64(2), gather(t, reg, "ragindex_operation_latency_seconds")["embed,success"])
}
