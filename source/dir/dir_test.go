package dir

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragindex/model"
)

func collect(t *testing.T, s *Source) ([]model.Document, []error) {
	t.Helper()
	var (
		docs []model.Document
		errs []error
	)
	for doc, err := range s.LoadDocuments(context.Background()) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, errs
}

func TestSource(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("bravo"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.MD"), []byte("# alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "c.txt"), []byte("charlie"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "image.png"), []byte{0x89}, 0o644))

	s := New(root)

	for range 2 {
		docs, errs := collect(t, s)
		require.Empty(t, errs)
		require.Len(t, docs, 3)

		assert.Equal(t, "a.MD", docs[0].ID)
		assert.Equal(t, "# alpha", docs[0].Text)
		assert.Equal(t, "b.txt", docs[1].ID)
		assert.Equal(t, "sub/c.txt", docs[2].ID)
		assert.Equal(t, "7", docs[2].Metadata["size"])
		assert.Equal(t, filepath.ToSlash(filepath.Join(root, "sub", "c.txt")), docs[2].Metadata["source"])
	}
}

func TestSourceInvalidUTF8(t *testing.T) {
	s := New("mem", func(o *Options) {
		o.FS = fstest.MapFS{
			"ok.txt":  {Data: []byte("fine")},
			"bad.txt": {Data: []byte{0xff, 0xfe}},
		}
	})

	docs, errs := collect(t, s)
	require.Len(t, docs, 1)
	assert.Equal(t, "ok.txt", docs[0].ID)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "bad.txt")
}

func TestSourceExtensions(t *testing.T) {
	s := New("mem", func(o *Options) {
		o.Extensions = []string{".rst"}
		o.FS = fstest.MapFS{
			"a.txt": {Data: []byte("a")},
			"b.rst": {Data: []byte("b")},
		}
	})

	docs, errs := collect(t, s)
	require.Empty(t, errs)
	require.Len(t, docs, 1)
	assert.Equal(t, "b.rst", docs[0].ID)
}

func TestSourceMissingRoot(t *testing.T) {
	_, errs := collect(t, New(filepath.Join(t.TempDir(), "missing")))
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], os.ErrNotExist)
}

func TestSourceStopsEarly(t *testing.T) {
	s := New("mem", func(o *Options) {
		o.FS = fstest.MapFS{
			"a.txt": {Data: []byte("a")},
			"b.txt": {Data: []byte("b")},
		}
	})

	n := 0
	for range s.LoadDocuments(context.Background()) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}
