package object

import (
	"context"
	"io"
)

// BlobStore defines the contract for saving, retrieving and deleting binary
// objects at caller-chosen keys. Ingestion writes encrypted blobs through it
// and must be able to delete them again on any abort path.
type BlobStore interface {
	Save(ctx context.Context, storageKey string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}
