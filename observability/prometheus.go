// Package observability exports pipeline metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc := observability.NewPrometheusCollector(reg)
//	p, _ := ragindex.New(cfg, provider, ragindex.WithMetricsCollector(mc))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/ragindex"
)

const namespace = "ragindex"

// PrometheusCollector implements ragindex.MetricsCollector.
type PrometheusCollector struct {
	documents *prometheus.CounterVec
	segments  prometheus.Counter
	docDur    prometheus.Histogram
	opLatency *prometheus.HistogramVec
	retries   prometheus.Counter
	batchSize prometheus.Histogram
	inserted  prometheus.Counter
	saved     prometheus.Gauge
}

var _ ragindex.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates the collector and registers its metrics
// with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &PrometheusCollector{
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed, by final state",
		}, []string{"state"}),
		segments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_total",
			Help:      "Segments produced by the chunker",
		}),
		docDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_duration_seconds",
			Help:      "Time to chunk, embed and index one document",
			Buckets:   prometheus.DefBuckets,
		}),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of pipeline operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_retries_total",
			Help:      "Provider calls that were retries of a failed batch",
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_batch_size",
			Help:      "Segments per provider call",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		inserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_inserted_total",
			Help:      "Entries inserted into the index",
		}),
		saved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "saved_entries",
			Help:      "Entries in the last successful save",
		}),
	}

	reg.MustRegister(
		c.documents,
		c.segments,
		c.docDur,
		c.opLatency,
		c.retries,
		c.batchSize,
		c.inserted,
		c.saved,
	)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordDocument implements ragindex.MetricsCollector.
func (c *PrometheusCollector) RecordDocument(state ragindex.State, segments int, d time.Duration) {
	c.documents.WithLabelValues(state.String()).Inc()
	c.segments.Add(float64(segments))
	c.docDur.Observe(d.Seconds())
}

// RecordBatch implements ragindex.MetricsCollector.
func (c *PrometheusCollector) RecordBatch(size, attempt int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("embed", status(err)).Observe(d.Seconds())
	c.batchSize.Observe(float64(size))
	if attempt > 0 {
		c.retries.Inc()
	}
}

// RecordInsert implements ragindex.MetricsCollector.
func (c *PrometheusCollector) RecordInsert(count int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("insert", status(err)).Observe(d.Seconds())
	if err == nil {
		c.inserted.Add(float64(count))
	}
}

// RecordQuery implements ragindex.MetricsCollector.
func (c *PrometheusCollector) RecordQuery(_ int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("query", status(err)).Observe(d.Seconds())
}

// RecordSave implements ragindex.MetricsCollector.
func (c *PrometheusCollector) RecordSave(entries int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("save", status(err)).Observe(d.Seconds())
	if err == nil {
		c.saved.Set(float64(entries))
	}
}
