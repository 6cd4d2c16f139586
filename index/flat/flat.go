// Package flat provides an exact brute-force vector index.
package flat

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/ragindex/distance"
	"github.com/hupe1980/ragindex/index"
	"github.com/hupe1980/ragindex/internal/queue"
	"github.com/hupe1980/ragindex/model"
)

// Compile-time check to ensure Flat satisfies the index contract.
var _ index.Index = (*Flat)(nil)

// cancelCheckInterval is how many entries are scanned between context checks.
const cancelCheckInterval = 1024

// Options contains configuration options for the flat index.
type Options struct {
	// Dimension is the fixed vector dimensionality for this index.
	// 0 lets the first insert establish it.
	Dimension int

	// Metric is the default metric for queries and is persisted with the index.
	Metric distance.Metric
}

// DefaultOptions contains the default configuration options for the flat index.
var DefaultOptions = Options{
	Dimension: 0,
	Metric:    distance.MetricCosine,
}

type entry struct {
	model.IndexEntry
	norm float32
}

// indexState holds the immutable state of the index for lock-free reads.
//
// entries is append-only: writers may extend the backing array past len but
// never touch the published prefix. Posting bitmaps are cloned before change.
type indexState struct {
	entries  []entry
	postings map[string]*roaring.Bitmap // document ID -> entry IDs
}

// Flat represents a flat index for vector storage and search.
// It uses a copy-on-write pattern for lock-free concurrent reads.
type Flat struct {
	state     atomic.Pointer[indexState]
	writeMu   sync.Mutex   // Serializes writes only
	dimension atomic.Int32 // 0 until established
	opts      Options
}

// New creates a new instance of the flat index.
func New(optFns ...func(o *Options)) (*Flat, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Dimension < 0 {
		return nil, &index.ErrDimensionMismatch{Expected: 0, Actual: opts.Dimension}
	}
	if !opts.Metric.Valid() {
		return nil, index.ErrInvalidMetric
	}

	f := &Flat{opts: opts}
	f.dimension.Store(int32(opts.Dimension))
	f.state.Store(&indexState{postings: make(map[string]*roaring.Bitmap)})

	return f, nil
}

// FromSnapshot builds a flat index holding the snapshot entries in order.
func FromSnapshot(ctx context.Context, snap *index.Snapshot) (*Flat, error) {
	f, err := New(func(o *Options) {
		o.Dimension = snap.Dimension
		o.Metric = snap.Metric
	})
	if err != nil {
		return nil, err
	}
	if len(snap.Entries) == 0 {
		return f, nil
	}
	if err := f.Insert(ctx, snap.Entries); err != nil {
		return nil, err
	}
	return f, nil
}

// Name returns the index type name.
func (*Flat) Name() string { return "flat" }

// Dimension returns D, or 0 if not yet established.
func (f *Flat) Dimension() int { return int(f.dimension.Load()) }

// Metric returns the construction metric.
func (f *Flat) Metric() distance.Metric { return f.opts.Metric }

// Len returns the number of entries.
func (f *Flat) Len() int { return len(f.getState().entries) }

// getState returns the current immutable state (lock-free read).
func (f *Flat) getState() *indexState {
	return f.state.Load()
}

// Insert appends entries atomically. Either all entries are inserted or,
// on error, none is.
func (f *Flat) Insert(ctx context.Context, entries []model.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	dim, err := index.ValidateEntries(f.Dimension(), entries)
	if err != nil {
		return err
	}

	oldState := f.getState()
	base := uint32(len(oldState.entries))

	newEntries := oldState.entries
	touched := make(map[string]*roaring.Bitmap)
	for i, e := range entries {
		stored := model.NewIndexEntry(e.Vector, e.Segment, e.Metadata)
		newEntries = append(newEntries, entry{IndexEntry: stored, norm: distance.Norm(stored.Vector)})

		docID := e.Segment.DocumentID
		bm, ok := touched[docID]
		if !ok {
			if prev, exists := oldState.postings[docID]; exists {
				bm = prev.Clone()
			} else {
				bm = roaring.New()
			}
			touched[docID] = bm
		}
		bm.Add(base + uint32(i))
	}

	postings := make(map[string]*roaring.Bitmap, len(oldState.postings)+len(touched))
	for docID, bm := range oldState.postings {
		postings[docID] = bm
	}
	for docID, bm := range touched {
		bm.RunOptimize()
		postings[docID] = bm
	}

	f.dimension.Store(int32(dim))
	// Atomic swap to new state
	f.state.Store(&indexState{entries: newEntries, postings: postings})

	return nil
}

// Query returns the k best matches for q by exhaustive scan.
func (f *Flat) Query(ctx context.Context, q []float32, k int, opts *index.SearchOptions) ([]index.Result, error) {
	return f.BruteSearch(ctx, q, k, opts, nil)
}

// BruteSearch scans the entries selected by candidates (all entries when nil),
// narrowed further by the document and ID filters in opts.
// This method is lock-free for reads using the copy-on-write pattern.
func (f *Flat) BruteSearch(ctx context.Context, q []float32, k int, opts *index.SearchOptions, candidates *roaring.Bitmap) ([]index.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st := f.getState()
	metric := opts.MetricOr(f.opts.Metric)
	if err := index.ValidateQuery(f.Dimension(), len(st.entries), q, k, metric); err != nil {
		return nil, err
	}

	if opts != nil && len(opts.Documents) > 0 {
		docs := st.documentBitmap(opts.Documents)
		if candidates != nil {
			docs.And(candidates)
		}
		candidates = docs
	}

	var filter func(uint32) bool
	if opts != nil {
		filter = opts.Filter
	}

	qNorm := distance.Norm(q)
	top := queue.NewTopK(min(k, len(st.entries)), metric.HigherIsBetter())

	scanned := 0
	visit := func(id uint32) error {
		scanned++
		if scanned%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if filter != nil && !filter(id) {
			return nil
		}
		top.Push(queue.Item{ID: id, Score: st.score(metric, q, qNorm, id)})
		return nil
	}

	if candidates == nil {
		for id := range st.entries {
			if err := visit(uint32(id)); err != nil {
				return nil, err
			}
		}
	} else {
		it := candidates.Iterator()
		for it.HasNext() {
			id := it.Next()
			if int(id) >= len(st.entries) {
				break
			}
			if err := visit(id); err != nil {
				return nil, err
			}
		}
	}

	items := top.Sorted()
	results := make([]index.Result, len(items))
	for i, item := range items {
		results[i] = index.Result{
			ID:    item.ID,
			Score: item.Score,
			Entry: st.entries[item.ID].IndexEntry,
		}
	}
	return results, nil
}

func (st *indexState) score(m distance.Metric, q []float32, qNorm float32, id uint32) float32 {
	e := &st.entries[id]
	switch m {
	case distance.MetricCosine:
		return distance.CosineWithNorms(q, e.Vector, qNorm, e.norm)
	case distance.MetricDot:
		return distance.Dot(q, e.Vector)
	default:
		return distance.Euclidean(q, e.Vector)
	}
}

func (st *indexState) documentBitmap(docIDs []string) *roaring.Bitmap {
	bms := make([]*roaring.Bitmap, 0, len(docIDs))
	for _, id := range docIDs {
		if bm, ok := st.postings[id]; ok {
			bms = append(bms, bm)
		}
	}
	if len(bms) == 0 {
		return roaring.New()
	}
	return roaring.FastOr(bms...)
}

// Entry returns the entry with the given ID.
// The returned entry shares memory with the index and must not be modified.
func (f *Flat) Entry(id uint32) (model.IndexEntry, bool) {
	st := f.getState()
	if int(id) >= len(st.entries) {
		return model.IndexEntry{}, false
	}
	return st.entries[id].IndexEntry, true
}

// Vector returns the vector of the entry with the given ID.
func (f *Flat) Vector(id uint32) ([]float32, bool) {
	e, ok := f.Entry(id)
	if !ok {
		return nil, false
	}
	return e.Vector, true
}

// DocumentEntries returns the entry IDs stored for a document.
func (f *Flat) DocumentEntries(docID string) *roaring.Bitmap {
	bm, ok := f.getState().postings[docID]
	if !ok {
		return roaring.New()
	}
	return bm.Clone()
}

// Snapshot returns the entries in insertion order together with D and the metric.
func (f *Flat) Snapshot() *index.Snapshot {
	st := f.getState()
	entries := make([]model.IndexEntry, len(st.entries))
	for i := range st.entries {
		entries[i] = st.entries[i].IndexEntry
	}
	return &index.Snapshot{
		Dimension: f.Dimension(),
		Metric:    f.opts.Metric,
		Entries:   entries,
	}
}
