package persistence

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/hupe1980/ragindex/index"
	"github.com/hupe1980/ragindex/index/flat"
	"github.com/hupe1980/ragindex/internal/fs"
	"github.com/hupe1980/ragindex/internal/mmap"
	"github.com/hupe1980/ragindex/resource"
)

// Save writes a snapshot of idx to path atomically.
//
// The file is written to a temporary file in the target directory, synced
// and renamed over path. If any step fails the temporary file is removed and
// path keeps its previous content.
func Save(ctx context.Context, idx index.Snapshotter, path string, optFns ...func(o *Options)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	opts := applyOptions(optFns)

	data, err := Marshal(idx.Snapshot(), optFns...)
	if err != nil {
		return err
	}

	err = fs.WriteFileAtomic(opts.FS, path, func(w io.Writer) error {
		if opts.Controller != nil {
			w = resource.NewRateLimitedWriter(ctx, w, opts.Controller)
		}
		_, err := w.Write(data)
		return err
	})
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return &IOError{Op: pathErr.Op, Path: pathErr.Path, Err: pathErr.Err}
	}
	return ioError("save", path, err)
}

// LoadSnapshot reads and verifies the index file at path.
func LoadSnapshot(ctx context.Context, path string, optFns ...func(o *Options)) (*index.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := applyOptions(optFns)

	if opts.UseMmap {
		if _, local := opts.FS.(fs.LocalFS); local {
			m, err := mmap.Open(path)
			if err != nil {
				return nil, ioError("open", path, err)
			}
			defer m.Close()
			return Unmarshal(m.Bytes())
		}
	}

	f, err := opts.FS.Open(path)
	if err != nil {
		return nil, ioError("open", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, ioError("read", path, err)
	}
	return Unmarshal(data)
}

// Load reads the index file at path into a flat index.
func Load(ctx context.Context, path string, optFns ...func(o *Options)) (*flat.Flat, error) {
	snap, err := LoadSnapshot(ctx, path, optFns...)
	if err != nil {
		return nil, err
	}
	return flat.FromSnapshot(ctx, snap)
}

// Inspect reads only the header of the index file at path.
func Inspect(path string, optFns ...func(o *Options)) (Info, error) {
	opts := applyOptions(optFns)

	f, err := opts.FS.Open(path)
	if err != nil {
		return Info{}, ioError("open", path, err)
	}
	defer f.Close()

	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return Info{}, corrupt("file too short for header")
		}
		return Info{}, ioError("read", path, err)
	}

	h, err := parseHeader(buf)
	if err != nil {
		return Info{}, err
	}
	return h.info(), nil
}
