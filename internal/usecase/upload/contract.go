package upload

import (
	"context"
	"io"
)

// BlobStore persists uploaded files.
type BlobStore interface {
	// Put writes the object under key and returns its public URL.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}
