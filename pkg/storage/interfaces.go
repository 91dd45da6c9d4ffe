package storage

import (
	"context"
	"io"
)

// ObjectStorage is the engine's view of the binary object store. Delete is
// best-effort and idempotent: deleting a missing key is not an error.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, src io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}
