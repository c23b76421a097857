package storage

import (
	"context"
	"sync"

	"github.com/sukritx/roommatebase/internal/domain"
)

// MemoryStore keeps images in process memory for development without a bucket.
type MemoryStore struct {
	mu      sync.Mutex
	baseURL string
	objects map[string][]byte
}

// NewMemoryStore creates a store that serves URLs under baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{baseURL: baseURL, objects: make(map[string][]byte)}
}

func (s *MemoryStore) Upload(_ context.Context, ownerID string, upload Upload) (domain.Image, error) {
	_, ext, err := DetectImageType(upload.Data)
	if err != nil {
		return domain.Image{}, err
	}
	key := ObjectKey(ownerID, ext)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), upload.Data...)
	return domain.Image{URL: s.baseURL + "/" + key, Key: key}, nil
}

func (s *MemoryStore) Delete(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.objects, key)
	}
	return nil
}

// Len reports how many objects are stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
