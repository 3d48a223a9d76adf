package keychain

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for testing and
// for platforms without a Keychain.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (s *MemoryStore) Put(accountKey string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(blob))
	copy(cp, blob)
	s.records[accountKey] = cp
	return nil
}

func (s *MemoryStore) Get(accountKey string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.records[accountKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, accountKey)
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, nil
}

func (s *MemoryStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Delete(accountKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[accountKey]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, accountKey)
	}
	delete(s.records, accountKey)
	return nil
}
