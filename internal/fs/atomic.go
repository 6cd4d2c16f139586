package fs

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes a file through writeFunc and atomically replaces
// filename. The data goes to a temporary file in the same directory, which
// is synced and renamed over filename. On failure the temporary file is
// removed and filename keeps its previous content.
//
// Failures are returned as *os.PathError naming the failed step.
func WriteFileAtomic(fsys FileSystem, filename string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return &os.PathError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := fsys.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return &os.PathError{Op: "create", Path: filename, Err: err}
	}
	tmpName := tmp.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		if tmpName != "" {
			_ = fsys.Remove(tmpName)
		}
	}()

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err := writeFunc(buf); err != nil {
		return &os.PathError{Op: "write", Path: tmpName, Err: err}
	}
	if err := buf.Flush(); err != nil {
		return &os.PathError{Op: "write", Path: tmpName, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &os.PathError{Op: "sync", Path: tmpName, Err: err}
	}
	closed = true
	if err := tmp.Close(); err != nil {
		return &os.PathError{Op: "close", Path: tmpName, Err: err}
	}

	// Atomically replace target.
	if err := fsys.Rename(tmpName, filename); err != nil {
		return &os.PathError{Op: "rename", Path: filename, Err: err}
	}

	// Success: prevent deferred cleanup from removing the final file.
	tmpName = ""

	if err := fsys.SyncDir(dir); err != nil {
		return &os.PathError{Op: "sync", Path: dir, Err: err}
	}
	return nil
}
