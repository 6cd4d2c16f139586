package persistence

import (
	"context"

	"github.com/hupe1980/ragindex/blobstore"
	"github.com/hupe1980/ragindex/index"
	"github.com/hupe1980/ragindex/index/flat"
)

// SaveBlob writes a snapshot of idx to store under name.
func SaveBlob(ctx context.Context, store blobstore.BlobStore, name string, idx index.Snapshotter, optFns ...func(o *Options)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Marshal(idx.Snapshot(), optFns...)
	if err != nil {
		return err
	}
	return ioError("put", name, store.Put(ctx, name, data))
}

// PublishBlob writes a snapshot of idx under name and points
// blobstore.Current at it.
func PublishBlob(ctx context.Context, store blobstore.BlobStore, name string, idx index.Snapshotter, optFns ...func(o *Options)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Marshal(idx.Snapshot(), optFns...)
	if err != nil {
		return err
	}
	return ioError("publish", name, blobstore.Publish(ctx, store, name, data))
}

// LoadBlobSnapshot reads and verifies the index blob name.
// An empty name loads the blob blobstore.Current points at.
func LoadBlobSnapshot(ctx context.Context, store blobstore.BlobStore, name string) (*index.Snapshot, error) {
	if name == "" {
		var err error
		if name, err = blobstore.Resolve(ctx, store); err != nil {
			return nil, ioError("resolve", blobstore.Current, err)
		}
	}

	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, ioError("open", name, err)
	}
	defer b.Close()

	// Mapped blobs are decoded in place.
	if m, ok := b.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, ioError("read", name, err)
		}
		return Unmarshal(data)
	}

	data, err := blobstore.ReadAll(ctx, b)
	if err != nil {
		return nil, ioError("read", name, err)
	}
	return Unmarshal(data)
}

// LoadBlob reads the index blob name into a flat index.
// An empty name loads the blob blobstore.Current points at.
func LoadBlob(ctx context.Context, store blobstore.BlobStore, name string) (*flat.Flat, error) {
	snap, err := LoadBlobSnapshot(ctx, store, name)
	if err != nil {
		return nil, err
	}
	return flat.FromSnapshot(ctx, snap)
}
