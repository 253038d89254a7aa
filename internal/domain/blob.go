package domain

import (
	"context"
	"io"
	"strconv"
	"time"
)

// BlobInfo describes a stored object.
type BlobInfo struct {
	Path         string
	Size         int64
	ETag         string
	LastModified time.Time
}

// Version returns a string that changes whenever the object content is
// replaced. Backends without ETags fall back to size and modification time.
func (b BlobInfo) Version() string {
	if b.ETag != "" {
		return b.ETag
	}
	return b.LastModified.UTC().Format(time.RFC3339Nano) + "/" + strconv.FormatInt(b.Size, 10)
}

// BlobReader retrieves read-only artifacts (label mapping, models) from
// storage. Get and Stat return an error wrapping ErrNotFound for absent keys.
type BlobReader interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (BlobInfo, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Location renders key as an operator-facing path or URL.
	Location(key string) string
	// Root reports the store's base location and whether it is reachable.
	Root(ctx context.Context) (string, bool)
}
