package ragindex

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/ragindex/blobstore"
	"github.com/hupe1980/ragindex/chunker"
	"github.com/hupe1980/ragindex/embedding"
	"github.com/hupe1980/ragindex/index"
	"github.com/hupe1980/ragindex/index/flat"
	"github.com/hupe1980/ragindex/index/ivf"
	"github.com/hupe1980/ragindex/model"
	"github.com/hupe1980/ragindex/persistence"
	"github.com/hupe1980/ragindex/resource"
	"github.com/hupe1980/ragindex/source"
)

// Pipeline turns documents into index entries: it chunks each document,
// embeds the segments in batches and inserts every successful batch into the
// index.
//
// A Pipeline is safe for concurrent use. Queries run concurrently with
// ingestion; Save waits for inserts in progress and holds new ones back until
// the snapshot is written.
type Pipeline struct {
	cfg        Config
	chunker    *chunker.Chunker
	batcher    *embedding.Batcher
	controller *resource.Controller
	idx        index.Index
	opts       options

	// Inserts hold the read side, saves the write side.
	saveMu sync.RWMutex
}

// New creates a Pipeline with an empty index.
func New(cfg Config, provider embedding.Provider, optFns ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	idx, err := newIndex(cfg)
	if err != nil {
		return nil, translateError(err)
	}

	return build(cfg, provider, idx, applyOptions(optFns))
}

// Open resumes from the index file at path. The persisted dimension and
// metric replace those of cfg; a non-zero cfg.Dimension must agree.
func Open(ctx context.Context, path string, provider embedding.Provider, cfg Config, optFns ...Option) (*Pipeline, error) {
	opts := applyOptions(optFns)

	snap, err := persistence.LoadSnapshot(ctx, path, opts.persistence...)
	if err != nil {
		opts.logger.LogLoad(ctx, path, 0, err)
		return nil, err
	}
	opts.logger.LogLoad(ctx, path, len(snap.Entries), nil)

	return fromSnapshot(ctx, cfg, provider, snap, opts)
}

// OpenBlob resumes from the index blob name in store. An empty name loads
// the blob blobstore.Current points at.
func OpenBlob(ctx context.Context, store blobstore.BlobStore, name string, provider embedding.Provider, cfg Config, optFns ...Option) (*Pipeline, error) {
	opts := applyOptions(optFns)

	snap, err := persistence.LoadBlobSnapshot(ctx, store, name)
	if err != nil {
		opts.logger.LogLoad(ctx, name, 0, err)
		return nil, err
	}
	opts.logger.LogLoad(ctx, name, len(snap.Entries), nil)

	return fromSnapshot(ctx, cfg, provider, snap, opts)
}

func fromSnapshot(ctx context.Context, cfg Config, provider embedding.Provider, snap *index.Snapshot, opts options) (*Pipeline, error) {
	if cfg.Dimension != 0 && snap.Dimension != 0 && cfg.Dimension != snap.Dimension {
		return nil, &index.ErrDimensionMismatch{Expected: cfg.Dimension, Actual: snap.Dimension}
	}
	cfg.Dimension = snap.Dimension
	cfg.Metric = snap.Metric

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		idx index.Index
		err error
	)
	switch cfg.IndexKind {
	case IndexIVF:
		idx, err = ivf.FromSnapshot(ctx, snap, cfg.ivfOptions)
	default:
		idx, err = flat.FromSnapshot(ctx, snap)
	}
	if err != nil {
		return nil, translateError(err)
	}

	return build(cfg, provider, idx, opts)
}

func newIndex(cfg Config) (index.Index, error) {
	switch cfg.IndexKind {
	case IndexIVF:
		return ivf.New(cfg.ivfOptions)
	default:
		return flat.New(func(o *flat.Options) {
			o.Dimension = cfg.Dimension
			o.Metric = cfg.Metric
		})
	}
}

func build(cfg Config, provider embedding.Provider, idx index.Index, opts options) (*Pipeline, error) {
	if provider == nil {
		return nil, &ConfigError{Field: "provider", Reason: "is nil"}
	}

	c, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, translateError(err)
	}

	calls := cfg.MaxConcurrentCalls
	if calls == 0 {
		calls = cfg.DocumentConcurrency * cfg.BatchConcurrency
	}
	rc := resource.NewController(resource.Config{
		MaxInFlight:       int64(calls),
		RequestsPerSecond: cfg.CallsPerSecond,
		Burst:             max(1, int(cfg.CallsPerSecond)),
		MemoryLimitBytes:  cfg.MemoryLimitBytes,
	})

	b, err := embedding.New(provider, func(o *embedding.Options) {
		o.BatchSize = cfg.BatchSize
		o.Timeout = cfg.EmbedTimeout
		o.Controller = rc
	})
	if err != nil {
		return nil, translateError(err)
	}

	return &Pipeline{
		cfg:        cfg,
		chunker:    c,
		batcher:    b,
		controller: rc,
		idx:        idx,
		opts:       opts,
	}, nil
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Index returns the underlying index.
func (p *Pipeline) Index() index.Index { return p.idx }

// Len returns the number of indexed segments.
func (p *Pipeline) Len() int { return p.idx.Len() }

// Ingest reads every document of src and indexes it.
//
// Per-document failures are reported, not returned. When ctx ends, no new
// document is started; documents already started run to completion and the
// partial report is returned together with the context error.
func (p *Pipeline) Ingest(ctx context.Context, src source.Source) (*Report, error) {
	if src == nil {
		return nil, &ConfigError{Field: "source", Reason: "is nil"}
	}

	start := time.Now()
	report := &Report{RunID: uuid.NewString()}
	logger := p.opts.logger.WithRunID(report.RunID)

	var (
		g     errgroup.Group
		sem   = semaphore.NewWeighted(int64(p.cfg.DocumentConcurrency))
		slots []*DocumentReport
	)
	// Started documents must not observe cancellation.
	detached := context.WithoutCancel(ctx)

	for doc, err := range src.LoadDocuments(ctx) {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		if err != nil {
			report.SourceErrors = append(report.SourceErrors, err)
			logger.WarnContext(ctx, "source error", "error", err)
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			report.Cancelled = true
			break
		}
		size := int64(len(doc.Text))
		if err := p.controller.AcquireMemory(ctx, size); err != nil {
			sem.Release(1)
			report.Cancelled = true
			break
		}

		slot := &DocumentReport{DocumentID: doc.ID, State: StatePending}
		slots = append(slots, slot)

		g.Go(func() error {
			defer sem.Release(1)
			defer p.controller.ReleaseMemory(size)
			*slot = p.ingestDocument(detached, logger, doc)
			return nil
		})
	}
	_ = g.Wait()

	for _, s := range slots {
		report.add(*s)
	}
	report.Duration = time.Since(start)
	logger.LogIngest(ctx, report)

	if report.Cancelled {
		return report, ctx.Err()
	}
	return report, nil
}

// IngestDocument chunks, embeds and indexes one document. It never panics
// on a bad document; failures are described by the report.
func (p *Pipeline) IngestDocument(ctx context.Context, doc model.Document) DocumentReport {
	return p.ingestDocument(ctx, p.opts.logger, doc)
}

func (p *Pipeline) ingestDocument(ctx context.Context, logger *Logger, doc model.Document) DocumentReport {
	start := time.Now()
	logger = logger.WithDocument(doc.ID)

	rep := DocumentReport{DocumentID: doc.ID, State: StatePending}

	segs := p.chunker.Split(doc)
	rep.State = StateChunked
	rep.Segments = len(segs)

	if len(segs) > 0 {
		rep.State = StateEmbedding

		var (
			mu     sync.Mutex
			failed []model.Segment
			errs   = make(map[int]error)
		)

		n := p.batcher.Dispatch(slices.Values(segs), p.cfg.BatchConcurrency, func(num int, batch []model.Segment) {
			err := p.processBatch(ctx, logger, doc, num, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[num] = err
				failed = append(failed, batch...)
				return
			}
			rep.IndexedSegments += len(batch)
		})

		slices.SortFunc(failed, func(a, b model.Segment) int { return a.Ordinal - b.Ordinal })
		for _, s := range failed {
			rep.FailedSegments = append(rep.FailedSegments, s.ID())
		}

		joined := make([]error, 0, len(errs))
		for i := range n {
			if err, ok := errs[i]; ok {
				joined = append(joined, err)
			}
		}
		rep.Err = errors.Join(joined...)
	}

	rep.State = finalState(rep.Segments, len(rep.FailedSegments))
	rep.Duration = time.Since(start)

	logger.LogDocument(ctx, &rep)
	p.opts.metricsCollector.RecordDocument(rep.State, rep.Segments, rep.Duration)
	return rep
}

// processBatch embeds one batch, retrying per the policy, and inserts it.
func (p *Pipeline) processBatch(ctx context.Context, logger *Logger, doc model.Document, num int, batch []model.Segment) error {
	var res embedding.BatchResult
	for attempt := 0; ; attempt++ {
		start := time.Now()
		res = p.batcher.EmbedBatch(ctx, num, batch)
		p.opts.metricsCollector.RecordBatch(len(batch), attempt, time.Since(start), res.Err)
		logger.LogBatch(ctx, num, len(batch), attempt, res.Err)

		if res.Err == nil {
			break
		}
		if attempt >= p.cfg.Retry.MaxRetries {
			return res.Err
		}
		if err := sleepContext(ctx, p.cfg.Retry.delay(attempt+1)); err != nil {
			return res.Err
		}
	}

	entries := make([]model.IndexEntry, len(batch))
	for i, s := range batch {
		entries[i] = model.NewIndexEntry(res.Vectors[i], s, doc.Metadata)
	}
	return p.insert(ctx, logger, entries)
}

func (p *Pipeline) insert(ctx context.Context, logger *Logger, entries []model.IndexEntry) error {
	p.saveMu.RLock()
	defer p.saveMu.RUnlock()

	start := time.Now()
	err := p.idx.Insert(ctx, entries)
	p.opts.metricsCollector.RecordInsert(len(entries), time.Since(start), err)
	logger.LogInsert(ctx, len(entries), err)
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Query returns the k entries most similar to q.
func (p *Pipeline) Query(ctx context.Context, q []float32, k int, opts *index.SearchOptions) ([]index.Result, error) {
	start := time.Now()
	res, err := p.idx.Query(ctx, q, k, opts)
	p.opts.metricsCollector.RecordQuery(k, time.Since(start), err)
	p.opts.logger.LogQuery(ctx, k, len(res), err)
	return res, translateError(err)
}

// QueryText embeds text with the pipeline's provider and queries the index.
func (p *Pipeline) QueryText(ctx context.Context, text string, k int, opts *index.SearchOptions) ([]index.Result, error) {
	res := p.batcher.EmbedBatch(ctx, 0, []model.Segment{{DocumentID: "query", Text: text, End: len([]rune(text))}})
	if res.Err != nil {
		return nil, res.Err
	}
	return p.Query(ctx, res.Vectors[0], k, opts)
}

// Save writes the index to path atomically. It waits for inserts in
// progress and blocks new ones until the file is written.
func (p *Pipeline) Save(ctx context.Context, path string) error {
	return p.save(ctx, path, func() error {
		return persistence.Save(ctx, p.idx, path, p.opts.persistence...)
	})
}

// SaveBlob writes the index to store under name.
func (p *Pipeline) SaveBlob(ctx context.Context, store blobstore.BlobStore, name string) error {
	return p.save(ctx, name, func() error {
		return persistence.SaveBlob(ctx, store, name, p.idx, p.opts.persistence...)
	})
}

// PublishBlob writes the index to store under name and points
// blobstore.Current at it.
func (p *Pipeline) PublishBlob(ctx context.Context, store blobstore.BlobStore, name string) error {
	return p.save(ctx, name, func() error {
		return persistence.PublishBlob(ctx, store, name, p.idx, p.opts.persistence...)
	})
}

func (p *Pipeline) save(ctx context.Context, target string, fn func() error) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	start := time.Now()
	err := fn()
	d := time.Since(start)

	n := p.idx.Len()
	p.opts.metricsCollector.RecordSave(n, d, err)
	p.opts.logger.LogSave(ctx, target, n, d, err)
	return err
}
