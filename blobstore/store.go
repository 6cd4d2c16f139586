package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Current is the name of the pointer blob holding the latest published name.
const Current = "CURRENT"

// BlobStore is an abstraction for storing immutable data blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer

	// Size returns the size of the blob in bytes.
	Size() int64

	// ReadAt reads len(p) bytes starting at off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// ReadRange returns a reader for length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// ReadAll returns a copy of the full content of b.
func ReadAll(ctx context.Context, b Blob) ([]byte, error) {
	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		return bytes.Clone(data), nil
	}

	if b.Size() == 0 {
		return []byte{}, nil
	}

	r, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != b.Size() {
		return nil, fmt.Errorf("blobstore: read %d of %d bytes", len(data), b.Size())
	}
	return data, nil
}

// Get opens name and reads it fully.
func Get(ctx context.Context, s BlobStore, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	return ReadAll(ctx, b)
}

// Publish writes data under name and then points Current at it.
func Publish(ctx context.Context, s BlobStore, name string, data []byte) error {
	if name == Current {
		return fmt.Errorf("blobstore: %q is reserved", Current)
	}
	if err := s.Put(ctx, name, data); err != nil {
		return err
	}
	return s.Put(ctx, Current, []byte(name))
}

// Resolve returns the name Current points at.
func Resolve(ctx context.Context, s BlobStore) (string, error) {
	data, err := Get(ctx, s, Current)
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", fmt.Errorf("blobstore: empty %s pointer", Current)
	}
	return name, nil
}

type nopReadCloser struct{ io.Reader }

func (nopReadCloser) Close() error { return nil }

// NopReadCloser returns an io.ReadCloser whose Close does nothing.
func NopReadCloser(r io.Reader) io.ReadCloser { return nopReadCloser{r} }

// bytesBlob implements Blob over an in-memory byte slice.
type bytesBlob struct {
	data []byte
}

// NewBytesBlob returns a Blob serving data.
func NewBytesBlob(data []byte) Blob { return &bytesBlob{data: data} }

func (b *bytesBlob) Close() error { return nil }

func (b *bytesBlob) Size() int64 { return int64(len(b.data)) }

func (b *bytesBlob) Bytes() ([]byte, error) { return b.data, nil }

func (b *bytesBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return readAt(b.data, p, off)
}

func (b *bytesBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	return NopReadCloser(bytes.NewReader(sliceRange(b.data, off, length))), nil
}

func readAt(data, p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func sliceRange(data []byte, off, length int64) []byte {
	if off < 0 || off >= int64(len(data)) {
		return nil
	}
	end := min(off+length, int64(len(data)))
	return data[off:end]
}
