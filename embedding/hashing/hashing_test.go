package hashing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragindex/distance"
)

func TestProvider(t *testing.T) {
	ctx := context.Background()

	p, err := New(64)
	require.NoError(t, err)
	assert.Equal(t, 64, p.Dimension())

	vecs, err := p.Embed(ctx, []string{
		"The quick brown fox",
		"the QUICK brown fox!",
		"an entirely different sentence about databases",
		"",
	})
	require.NoError(t, err)
	require.Len(t, vecs, 4)

	for _, v := range vecs {
		assert.Len(t, v, 64)
		assert.InDelta(t, 1.0, distance.Norm(v), 1e-5)
	}

	// Case and punctuation do not matter.
	assert.Equal(t, vecs[0], vecs[1])
	assert.Greater(t, distance.Cosine(vecs[0], vecs[1]), distance.Cosine(vecs[0], vecs[2]))

	// Deterministic across calls.
	again, err := p.Embed(ctx, []string{"The quick brown fox"})
	require.NoError(t, err)
	assert.Equal(t, vecs[0], again[0])
}

func TestProviderWithoutBigrams(t *testing.T) {
	p, err := New(32, func(o *Options) { o.Bigrams = false })
	require.NoError(t, err)

	vecs, err := p.Embed(context.Background(), []string{"a b", "b a"})
	require.NoError(t, err)
	assert.Equal(t, vecs[0], vecs[1])
}

func TestNewInvalid(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)
}

func TestEmbedCancelled(t *testing.T) {
	p, err := New(8)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Embed(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}
