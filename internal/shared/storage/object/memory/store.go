package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"sync"

	"github.com/google/uuid"

	"persona-review/internal/shared/storage/object"
	"persona-review/internal/shared/util"
)

// Store keeps blobs in process memory. Used for DB_DRIVER=memory and tests.
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func New() *Store {
	return &Store{objects: make(map[string][]byte)}
}

func (s *Store) Save(ctx context.Context, namespace string, fileName string, r io.Reader) (object.Stored, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return object.Stored{}, fmt.Errorf("sanitize file name: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return object.Stored{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return object.Stored{}, fmt.Errorf("read body: %w", err)
	}

	key := path.Join(namespace, uuid.NewString()+"_"+name)
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()

	return object.Stored{Key: key, SizeBytes: int64(len(data)), MimeType: http.DetectContentType(data)}, nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("open %s: %w", key, object.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// Len reports how many objects are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

var _ object.ObjectStore = (*Store)(nil)
