package embedding

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/ragindex/model"
	"github.com/hupe1980/ragindex/resource"
)

// Provider maps texts to vectors. The result must hold one vector per input,
// in input order.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, texts []string) ([][]float32, error)

// Embed calls f.
func (f ProviderFunc) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return f(ctx, texts)
}

// Options configures a Batcher.
type Options struct {
	// BatchSize is the maximum number of segments per provider call.
	BatchSize int

	// Timeout bounds each provider call. 0 means no timeout.
	Timeout time.Duration

	// Controller gates provider calls. Nil means unlimited.
	Controller *resource.Controller
}

// DefaultOptions contains the default batcher options.
var DefaultOptions = Options{
	BatchSize: 32,
}

// BatchResult is the outcome of one provider call.
type BatchResult struct {
	// Number is the zero-based batch number in dispatch order.
	Number int

	// Segments are the batch inputs.
	Segments []model.Segment

	// Vectors holds one vector per segment on success.
	Vectors [][]float32

	// Err is a *BatchError on failure.
	Err error
}

// Batcher groups segments into provider calls.
type Batcher struct {
	provider Provider
	opts     Options
}

// New creates a Batcher for provider.
func New(provider Provider, optFns ...func(o *Options)) (*Batcher, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: nil provider", ErrInvalidOptions)
	}

	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.BatchSize < 1 {
		return nil, fmt.Errorf("%w: batch size %d", ErrInvalidOptions, opts.BatchSize)
	}
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("%w: negative timeout", ErrInvalidOptions)
	}

	return &Batcher{provider: provider, opts: opts}, nil
}

// BatchSize returns the maximum batch size.
func (b *Batcher) BatchSize() int { return b.opts.BatchSize }

// Batches groups segs into batches of at most BatchSize, preserving order.
// Every batch but the last is full.
func (b *Batcher) Batches(segs iter.Seq[model.Segment]) iter.Seq[[]model.Segment] {
	size := b.opts.BatchSize
	return func(yield func([]model.Segment) bool) {
		batch := make([]model.Segment, 0, size)
		for s := range segs {
			batch = append(batch, s)
			if len(batch) == size {
				if !yield(batch) {
					return
				}
				batch = make([]model.Segment, 0, size)
			}
		}
		if len(batch) > 0 {
			yield(batch)
		}
	}
}

// EmbedBatch makes one provider call for segs.
func (b *Batcher) EmbedBatch(ctx context.Context, n int, segs []model.Segment) BatchResult {
	res := BatchResult{Number: n, Segments: segs}

	vecs, err := b.call(ctx, segs)
	if err != nil {
		res.Err = newBatchError(n, segs, err)
		return res
	}
	res.Vectors = vecs
	return res
}

func (b *Batcher) call(ctx context.Context, segs []model.Segment) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc := b.opts.Controller
	if err := rc.AcquireCall(ctx); err != nil {
		return nil, err
	}
	defer rc.ReleaseCall()

	if b.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.Timeout)
		defer cancel()
	}

	texts := make([]string, len(segs))
	for i, s := range segs {
		texts[i] = s.Text
	}

	vecs, err := b.provider.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	// Providers ignoring ctx must not turn a timeout into a success.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vecs) != len(segs) {
		return nil, fmt.Errorf("provider returned %d vectors for %d inputs", len(vecs), len(segs))
	}
	for i, v := range vecs {
		if len(v) == 0 {
			return nil, fmt.Errorf("provider returned an empty vector for input %d", i)
		}
	}
	return vecs, nil
}

func newBatchError(n int, segs []model.Segment, err error) *BatchError {
	ids := make([]string, len(segs))
	for i, s := range segs {
		ids[i] = s.ID()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("provider call timed out: %w", err)
	}
	return &BatchError{Batch: n, SegmentIDs: ids, Err: err}
}

// Dispatch splits segs into batches and calls fn for each, running up to
// concurrency calls at once. Batches are numbered from 0 and handed out in
// segment order. It returns the number of batches after every call returned.
func (b *Batcher) Dispatch(segs iter.Seq[model.Segment], concurrency int, fn func(n int, batch []model.Segment)) int {
	g := new(errgroup.Group)
	g.SetLimit(max(concurrency, 1))

	n := 0
	for batch := range b.Batches(segs) {
		num := n
		n++
		// Go blocks while the limit is reached, so dispatch follows segment order.
		g.Go(func() error {
			fn(num, batch)
			return nil
		})
	}
	_ = g.Wait()
	return n
}
