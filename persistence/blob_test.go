package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragindex/blobstore"
	"github.com/hupe1980/ragindex/distance"
)

func TestBlobRoundTrip(t *testing.T) {
	ctx := context.Background()

	stores := map[string]func(t *testing.T) blobstore.BlobStore{
		"Memory": func(*testing.T) blobstore.BlobStore { return blobstore.NewMemoryStore() },
		"Local":  func(t *testing.T) blobstore.BlobStore { return blobstore.NewLocalStore(t.TempDir()) },
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			idx := buildIndex(t, 100, 8, distance.MetricCosine)

			require.NoError(t, SaveBlob(ctx, store, "indexes/a.rix", idx))
			loaded, err := LoadBlob(ctx, store, "indexes/a.rix")
			require.NoError(t, err)
			requireSameSnapshot(t, idx.Snapshot(), loaded.Snapshot())

			// Nothing published yet.
			_, err = LoadBlob(ctx, store, "")
			assert.ErrorIs(t, err, ErrPersistenceIO)
			assert.ErrorIs(t, err, blobstore.ErrNotFound)

			next := buildIndex(t, 10, 8, distance.MetricCosine)
			require.NoError(t, PublishBlob(ctx, store, "indexes/b.rix", next))

			current, err := LoadBlob(ctx, store, "")
			require.NoError(t, err)
			requireSameSnapshot(t, next.Snapshot(), current.Snapshot())
		})
	}
}

func TestLoadBlobCorrupt(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "bad.rix", []byte("not an index")))

	_, err := LoadBlob(ctx, store, "bad.rix")
	assert.ErrorIs(t, err, ErrCorruptIndexFile)
}
