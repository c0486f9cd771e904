package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("object not found")

// Stored describes an object written by Save.
type Stored struct {
	Key       string
	SizeBytes int64
	MimeType  string
}

// ObjectStore saves, opens and removes uploaded blobs. Keys are opaque to callers.
type ObjectStore interface {
	Save(ctx context.Context, namespace string, fileName string, r io.Reader) (Stored, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ReadAll opens key and returns its full contents.
func ReadAll(ctx context.Context, store ObjectStore, key string) ([]byte, error) {
	body, err := store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}
