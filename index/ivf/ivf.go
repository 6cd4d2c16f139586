package ivf

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/ragindex/distance"
	"github.com/hupe1980/ragindex/index"
	"github.com/hupe1980/ragindex/index/flat"
	"github.com/hupe1980/ragindex/internal/kmeans"
	"github.com/hupe1980/ragindex/model"
)

// Compile-time check to ensure IVF satisfies the index contract.
var _ index.Index = (*IVF)(nil)

// ErrInvalidOptions is returned by New for out-of-range options.
var ErrInvalidOptions = errors.New("ivf: invalid options")

// Options contains configuration options for the IVF index.
type Options struct {
	// Dimension is the fixed vector dimensionality. 0 lets the first insert establish it.
	Dimension int

	// Metric is the default query metric.
	Metric distance.Metric

	// NumLists is the number of k-means partitions.
	NumLists int

	// NProbes is the default number of partitions scanned per query.
	NProbes int

	// TrainThreshold triggers training once the index holds this many entries.
	// 0 disables automatic training.
	TrainThreshold int

	// MaxIter bounds the k-means iterations.
	MaxIter int

	// Seed makes training reproducible.
	Seed int64
}

// DefaultOptions contains the default configuration options for the IVF index.
var DefaultOptions = Options{
	Metric:         distance.MetricCosine,
	NumLists:       16,
	NProbes:        4,
	TrainThreshold: 1024,
	MaxIter:        25,
	Seed:           42,
}

// partitions is immutable once published.
type partitions struct {
	dim       int
	centroids []float32
	lists     []*roaring.Bitmap
}

// IVF is an inverted-file index over k-means partitions.
type IVF struct {
	flat    *flat.Flat
	parts   atomic.Pointer[partitions] // nil until trained
	writeMu sync.Mutex
	opts    Options
}

// New creates a new IVF index.
func New(optFns ...func(o *Options)) (*IVF, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.NumLists <= 0 || opts.NProbes <= 0 || opts.TrainThreshold < 0 || opts.MaxIter <= 0 {
		return nil, ErrInvalidOptions
	}

	f, err := flat.New(func(o *flat.Options) {
		o.Dimension = opts.Dimension
		o.Metric = opts.Metric
	})
	if err != nil {
		return nil, err
	}

	return &IVF{flat: f, opts: opts}, nil
}

// FromSnapshot builds an IVF index holding the snapshot entries in order.
// Dimension and metric come from the snapshot.
func FromSnapshot(ctx context.Context, snap *index.Snapshot, optFns ...func(o *Options)) (*IVF, error) {
	optFns = append(optFns, func(o *Options) {
		o.Dimension = snap.Dimension
		o.Metric = snap.Metric
	})

	ivf, err := New(optFns...)
	if err != nil {
		return nil, err
	}
	if err := ivf.Insert(ctx, snap.Entries); err != nil {
		return nil, err
	}
	return ivf, nil
}

// Name returns the index type name.
func (*IVF) Name() string { return "ivf" }

// Len returns the number of entries.
func (x *IVF) Len() int { return x.flat.Len() }

// Dimension returns D, or 0 if not yet established.
func (x *IVF) Dimension() int { return x.flat.Dimension() }

// Metric returns the construction metric.
func (x *IVF) Metric() distance.Metric { return x.opts.Metric }

// Trained reports whether partitions are in use.
func (x *IVF) Trained() bool { return x.parts.Load() != nil }

// Snapshot returns the entries in insertion order.
func (x *IVF) Snapshot() *index.Snapshot { return x.flat.Snapshot() }

// Insert appends entries atomically and assigns them to partitions.
func (x *IVF) Insert(ctx context.Context, entries []model.IndexEntry) error {
	if len(entries) == 0 {
		return ctx.Err()
	}

	x.writeMu.Lock()
	defer x.writeMu.Unlock()

	base := uint32(x.flat.Len())
	if err := x.flat.Insert(ctx, entries); err != nil {
		return err
	}

	if p := x.parts.Load(); p != nil {
		x.parts.Store(x.assign(p, base, uint32(x.flat.Len())))
		return nil
	}

	if x.opts.TrainThreshold > 0 && x.flat.Len() >= x.opts.TrainThreshold {
		// The batch is already visible; training must not be abandoned halfway.
		return x.trainLocked(context.WithoutCancel(ctx))
	}
	return nil
}

// Train partitions the current entries. Calling it again retrains from scratch.
func (x *IVF) Train(ctx context.Context) error {
	x.writeMu.Lock()
	defer x.writeMu.Unlock()

	return x.trainLocked(ctx)
}

func (x *IVF) trainLocked(ctx context.Context) error {
	n := x.flat.Len()
	if n == 0 {
		return index.ErrEmptyIndex
	}

	dim := x.flat.Dimension()
	data := make([]float32, 0, n*dim)
	for id := range uint32(n) {
		v, _ := x.flat.Vector(id)
		data = append(data, x.partitionVector(v)...)
	}

	k := min(x.opts.NumLists, n)
	rng := rand.New(rand.NewSource(x.opts.Seed))
	centroids, err := kmeans.TrainKMeans(ctx, data, dim, k, x.opts.MaxIter, rng)
	if err != nil {
		return err
	}

	p := &partitions{dim: dim, centroids: centroids, lists: make([]*roaring.Bitmap, k)}
	for i := range p.lists {
		p.lists[i] = roaring.New()
	}
	for id := range n {
		part := kmeans.AssignPartition(data[id*dim:(id+1)*dim], centroids, dim)
		p.lists[part].Add(uint32(id))
	}
	for _, l := range p.lists {
		l.RunOptimize()
	}

	x.parts.Store(p)
	return nil
}

// assign returns a copy of p with IDs in [from, to) added to their lists.
func (x *IVF) assign(p *partitions, from, to uint32) *partitions {
	lists := slices.Clone(p.lists)
	cloned := make([]bool, len(lists))

	for id := from; id < to; id++ {
		v, _ := x.flat.Vector(id)
		part := kmeans.AssignPartition(x.partitionVector(v), p.centroids, p.dim)
		if !cloned[part] {
			lists[part] = lists[part].Clone()
			cloned[part] = true
		}
		lists[part].Add(id)
	}

	return &partitions{dim: p.dim, centroids: p.centroids, lists: lists}
}

// partitionVector maps v into the space k-means runs in.
func (x *IVF) partitionVector(v []float32) []float32 {
	if x.opts.Metric != distance.MetricCosine {
		return v
	}
	u := slices.Clone(v)
	distance.NormalizeL2InPlace(u)
	return u
}

// Query returns the k best matches among the probed partitions.
// Probing widens past NProbes until the candidates can fill k results.
// Document-filtered queries scan the document postings exactly.
func (x *IVF) Query(ctx context.Context, q []float32, k int, opts *index.SearchOptions) ([]index.Result, error) {
	p := x.parts.Load()
	if p == nil || (opts != nil && len(opts.Documents) > 0) {
		return x.flat.BruteSearch(ctx, q, k, opts, nil)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := index.ValidateQuery(x.flat.Dimension(), x.flat.Len(), q, k, opts.MetricOr(x.opts.Metric)); err != nil {
		return nil, err
	}

	nprobes := x.opts.NProbes
	if opts != nil && opts.NProbes > 0 {
		nprobes = opts.NProbes
	}

	return x.flat.BruteSearch(ctx, q, k, opts, x.candidates(p, q, k, nprobes))
}

// candidates unions the lists closest to q, nprobes at least, until they hold k entries.
func (x *IVF) candidates(p *partitions, q []float32, k, nprobes int) *roaring.Bitmap {
	want := uint64(min(k, x.flat.Len()))
	order := kmeans.FindClosestCentroids(x.partitionVector(q), p.centroids, p.dim, len(p.lists))

	bm := roaring.New()
	for i, part := range order {
		if i >= nprobes && bm.GetCardinality() >= want {
			break
		}
		bm.Or(p.lists[part])
	}
	return bm
}

// Stats describes the partition layout.
type Stats struct {
	flat.Stats
	Trained  bool
	Lists    int
	ListSize []int
}

// Stats returns statistics about the index.
func (x *IVF) Stats() Stats {
	s := Stats{Stats: x.flat.Stats()}
	if p := x.parts.Load(); p != nil {
		s.Trained = true
		s.Lists = len(p.lists)
		s.ListSize = make([]int, len(p.lists))
		for i, l := range p.lists {
			s.ListSize[i] = int(l.GetCardinality())
		}
	}
	return s
}
