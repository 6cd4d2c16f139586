package ivf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragindex/distance"
	"github.com/hupe1980/ragindex/index"
	"github.com/hupe1980/ragindex/index/flat"
	"github.com/hupe1980/ragindex/testutil"
)

func resultIDs(results []index.Result) []uint32 {
	out := make([]uint32, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}

func build(t *testing.T, n, dim int, optFns ...func(o *Options)) (*IVF, *flat.Flat, *testutil.RNG) {
	t.Helper()

	ctx := context.Background()
	rng := testutil.NewRNG(4711)
	entries := testutil.Entries(rng.ClusteredVectors(n, dim, 20, 0.1), 10)

	x, err := New(optFns...)
	require.NoError(t, err)
	require.NoError(t, x.Insert(ctx, entries))

	f, err := flat.New()
	require.NoError(t, err)
	require.NoError(t, f.Insert(ctx, entries))

	return x, f, rng
}

func TestNewInvalidOptions(t *testing.T) {
	_, err := New(func(o *Options) { o.NumLists = 0 })
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = New(func(o *Options) { o.NProbes = -1 })
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestUntrainedIsExact(t *testing.T) {
	ctx := context.Background()
	x, f, rng := build(t, 500, 16, func(o *Options) { o.TrainThreshold = 0 })
	require.False(t, x.Trained())

	q := rng.UnitVectors(1, 16)[0]
	want, err := f.Query(ctx, q, 10, nil)
	require.NoError(t, err)
	got, err := x.Query(ctx, q, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAutoTrain(t *testing.T) {
	x, _, _ := build(t, 300, 8, func(o *Options) {
		o.TrainThreshold = 256
		o.NumLists = 8
	})
	require.True(t, x.Trained())

	stats := x.Stats()
	assert.Equal(t, 8, stats.Lists)
	total := 0
	for _, n := range stats.ListSize {
		total += n
	}
	assert.Equal(t, 300, total)
}

func TestAllProbesMatchFlat(t *testing.T) {
	ctx := context.Background()
	x, f, rng := build(t, 1000, 16, func(o *Options) { o.NumLists = 16 })
	require.NoError(t, x.Train(ctx))

	for _, q := range rng.UnitVectors(10, 16) {
		want, err := f.Query(ctx, q, 10, nil)
		require.NoError(t, err)
		got, err := x.Query(ctx, q, 10, &index.SearchOptions{NProbes: 16})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestRecall(t *testing.T) {
	ctx := context.Background()
	x, f, rng := build(t, 2000, 16, func(o *Options) {
		o.NumLists = 16
		o.NProbes = 8
	})
	require.True(t, x.Trained())

	entries := x.Snapshot().Entries
	var recall float64
	queries := 0
	for i := 0; i < len(entries); i += 40 {
		q := make([]float32, 16)
		for j, v := range entries[i].Vector {
			q[j] = v + (rng.Float32()-0.5)*0.05
		}
		queries++

		want, err := f.Query(ctx, q, 10, nil)
		require.NoError(t, err)
		got, err := x.Query(ctx, q, 10, nil)
		require.NoError(t, err)
		recall += testutil.ComputeRecall(resultIDs(want), resultIDs(got))
	}
	recall /= float64(queries)

	assert.GreaterOrEqual(t, recall, 0.8)
}

func TestQueryFillsK(t *testing.T) {
	ctx := context.Background()
	x, f, rng := build(t, 2000, 8, func(o *Options) {
		o.NumLists = 16
		o.NProbes = 1
	})
	require.True(t, x.Trained())

	q := rng.UnitVectors(1, 8)[0]
	for _, k := range []int{1, 5, 500, 2000, 5000} {
		got, err := x.Query(ctx, q, k, nil)
		require.NoError(t, err)
		assert.Len(t, got, min(k, 2000), "k=%d", k)
	}

	// Probing everything degrades to the exact answer.
	want, err := f.Query(ctx, q, 2000, nil)
	require.NoError(t, err)
	got, err := x.Query(ctx, q, 2000, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestQueryDocumentFilter(t *testing.T) {
	ctx := context.Background()
	x, f, rng := build(t, 2000, 8, func(o *Options) {
		o.NumLists = 16
		o.NProbes = 1
	})
	require.True(t, x.Trained())

	q := rng.UnitVectors(1, 8)[0]
	for _, doc := range []string{"doc-0", "doc-77", "doc-199"} {
		opts := &index.SearchOptions{Documents: []string{doc}}

		want, err := f.Query(ctx, q, 5, opts)
		require.NoError(t, err)
		got, err := x.Query(ctx, q, 5, opts)
		require.NoError(t, err)

		require.Len(t, got, 5, doc)
		assert.Equal(t, want, got, doc)
		for _, r := range got {
			assert.Equal(t, doc, r.Entry.Segment.DocumentID)
		}
	}

	got, err := x.Query(ctx, q, 5, &index.SearchOptions{Documents: []string{"missing"}})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInsertAfterTraining(t *testing.T) {
	ctx := context.Background()
	x, _, rng := build(t, 200, 8, func(o *Options) {
		o.NumLists = 4
		o.TrainThreshold = 0
		o.Metric = distance.MetricEuclidean
	})
	require.NoError(t, x.Train(ctx))

	extra := testutil.Entries(rng.UniformVectors(1, 8), 1)
	extra[0].Segment.DocumentID = "late"
	require.NoError(t, x.Insert(ctx, extra))
	assert.Equal(t, 201, x.Len())

	// The new entry must be reachable when probing every list.
	results, err := x.Query(ctx, extra[0].Vector, 1, &index.SearchOptions{NProbes: 4})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint32(200), results[0].ID)
	assert.Equal(t, float32(0), results[0].Score)
}

func TestQueryErrors(t *testing.T) {
	ctx := context.Background()

	x, err := New()
	require.NoError(t, err)

	_, err = x.Query(ctx, []float32{1}, 1, nil)
	assert.ErrorIs(t, err, index.ErrEmptyIndex)
	assert.ErrorIs(t, x.Train(ctx), index.ErrEmptyIndex)

	x, _, _ = build(t, 100, 8, func(o *Options) { o.TrainThreshold = 50 })
	require.True(t, x.Trained())

	_, err = x.Query(ctx, []float32{1, 2}, 1, nil)
	assert.ErrorIs(t, err, index.ErrDimension)

	_, err = x.Query(ctx, make([]float32, 8), 0, nil)
	assert.ErrorIs(t, err, index.ErrInvalidK)
}

func TestFromSnapshot(t *testing.T) {
	ctx := context.Background()
	x, _, _ := build(t, 100, 8, func(o *Options) { o.TrainThreshold = 0 })

	y, err := FromSnapshot(ctx, x.Snapshot(), func(o *Options) { o.TrainThreshold = 10 })
	require.NoError(t, err)
	assert.True(t, y.Trained())
	assert.Equal(t, x.Snapshot(), y.Snapshot())
	assert.Equal(t, "ivf", y.Name())
}
