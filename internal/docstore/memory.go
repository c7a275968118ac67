package docstore

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu   sync.RWMutex
	docs map[string]string
}

func init() {
	Register("memory", func(args interface{}) (Store, error) {
		return NewMemoryStore(), nil
	})
}

func NewMemoryStore() Store {
	return &memoryStore{docs: make(map[string]string)}
}

func (s *memoryStore) Put(ctx context.Context, identifier, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[identifier] = text
	return nil
}

func (s *memoryStore) Get(ctx context.Context, identifier string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.docs[identifier]
	return text, ok, nil
}

func (s *memoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

func (s *memoryStore) Close() error {
	return nil
}
