package fs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "subdir")
	require.NoError(t, lfs.MkdirAll(dir, 0o755))

	f, err := lfs.CreateTemp(dir, "test-*.tmp")
	require.NoError(t, err)

	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	require.NoError(t, f.Close())

	target := filepath.Join(dir, "final.txt")
	require.NoError(t, lfs.Rename(f.Name(), target))
	require.NoError(t, lfs.SyncDir(dir))

	r, err := lfs.Open(target)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	require.NoError(t, r.Close())

	require.NoError(t, lfs.Remove(target))
	_, err = lfs.Stat(target)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS(t *testing.T) {
	tmp := t.TempDir()

	t.Run("FailAfterBytes", func(t *testing.T) {
		ffs := NewFaultyFS(nil)
		ffs.AddRule(".tmp", Fault{FailAfterBytes: 3})

		f, err := ffs.CreateTemp(tmp, "a-*.tmp")
		require.NoError(t, err)
		defer f.Close()

		n, err := f.Write([]byte("ab"))
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = f.Write([]byte("cd"))
		assert.ErrorIs(t, err, ErrInjected)
		assert.Equal(t, 1, n)
	})

	t.Run("FailOnSyncAndClose", func(t *testing.T) {
		ffs := NewFaultyFS(nil)
		ffs.AddRule("b-", Fault{FailAfterBytes: -1, FailOnSync: true, FailOnClose: true, Err: io.ErrUnexpectedEOF})

		f, err := ffs.CreateTemp(tmp, "b-*.tmp")
		require.NoError(t, err)

		assert.ErrorIs(t, f.Sync(), io.ErrUnexpectedEOF)
		assert.ErrorIs(t, f.Close(), io.ErrUnexpectedEOF)
	})

	t.Run("FailOnRename", func(t *testing.T) {
		ffs := NewFaultyFS(nil)
		ffs.AddRule("c-", Fault{FailAfterBytes: -1, FailOnRename: true})

		f, err := ffs.CreateTemp(tmp, "c-*.tmp")
		require.NoError(t, err)
		require.NoError(t, f.Close())

		err = ffs.Rename(f.Name(), filepath.Join(tmp, "c.final"))
		assert.ErrorIs(t, err, ErrInjected)
		_, err = ffs.Stat(f.Name())
		assert.NoError(t, err)
	})

	t.Run("NoRule", func(t *testing.T) {
		ffs := NewFaultyFS(LocalFS{})

		f, err := ffs.CreateTemp(tmp, "d-*.tmp")
		require.NoError(t, err)
		_, err = f.Write(make([]byte, 4096))
		assert.NoError(t, err)
		assert.NoError(t, f.Sync())
		assert.NoError(t, f.Close())
	})
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "out.bin")

	write := func(s string) func(io.Writer) error {
		return func(w io.Writer) error {
			_, err := io.WriteString(w, s)
			return err
		}
	}

	require.NoError(t, WriteFileAtomic(Default, target, write("first")))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	ffs := NewFaultyFS(nil)
	ffs.AddRule(".tmp-", Fault{FailAfterBytes: -1, FailOnSync: true})

	err = WriteFileAtomic(ffs, target, write("second"))
	var pathErr *os.PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, "sync", pathErr.Op)
	assert.ErrorIs(t, err, ErrInjected)

	data, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be removed")
}
