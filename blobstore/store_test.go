package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s BlobStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Open(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "idx/a.rix", []byte("hello world")))
	require.NoError(t, s.Put(ctx, "idx/b.rix", []byte("second")))
	require.NoError(t, s.Put(ctx, "other", nil))

	b, err := s.Open(ctx, "idx/a.rix")
	require.NoError(t, err)
	assert.Equal(t, int64(11), b.Size())

	buf := make([]byte, 5)
	n, err := b.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "world", string(buf))

	r, err := b.ReadRange(ctx, 2, 3)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "llo", string(got))
	require.NoError(t, r.Close())
	require.NoError(t, b.Close())

	data, err := Get(ctx, s, "other")
	require.NoError(t, err)
	assert.Empty(t, data)

	names, err := s.List(ctx, "idx/")
	require.NoError(t, err)
	assert.Equal(t, []string{"idx/a.rix", "idx/b.rix"}, names)

	// Overwrite replaces content.
	require.NoError(t, s.Put(ctx, "idx/a.rix", []byte("v2")))
	data, err = Get(ctx, s, "idx/a.rix")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	require.NoError(t, s.Delete(ctx, "idx/b.rix"))
	require.NoError(t, s.Delete(ctx, "idx/b.rix"))
	_, err = s.Open(ctx, "idx/b.rix")
	assert.ErrorIs(t, err, ErrNotFound)
}

func testPublish(t *testing.T, s BlobStore) {
	t.Helper()
	ctx := context.Background()

	_, err := Resolve(ctx, s)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, Publish(ctx, s, "run-1.rix", []byte("one")))
	require.NoError(t, Publish(ctx, s, "run-2.rix", []byte("two")))

	name, err := Resolve(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "run-2.rix", name)

	assert.Error(t, Publish(ctx, s, Current, nil))
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
	testPublish(t, NewMemoryStore())
}

func TestMemoryStoreCopiesInput(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	data := []byte("abc")
	require.NoError(t, s.Put(ctx, "x", data))
	data[0] = 'z'

	got, err := Get(ctx, s, "x")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestLocalStore(t *testing.T) {
	testStore(t, NewLocalStore(t.TempDir()))
	testPublish(t, NewLocalStore(t.TempDir()))
}

func TestLocalStoreRejectsEscapingNames(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir())

	assert.ErrorIs(t, s.Put(ctx, "../evil", []byte("x")), os.ErrInvalid)
	_, err := s.Open(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, os.ErrInvalid)
}

func TestLocalStoreListMissingRoot(t *testing.T) {
	s := NewLocalStore(filepath.Join(t.TempDir(), "absent"))

	names, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}
