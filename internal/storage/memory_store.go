package storage

import (
	"context"
	"sync"

	json "github.com/goccy/go-json"
)

// MemoryStore keeps documents in process memory. Used for dry runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string][]byte
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (m *MemoryStore) Select(_ context.Context, collection, key string, doc any) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, ErrClosed
	}
	body, ok := m.docs[collection+"/"+key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(body, doc)
}

func (m *MemoryStore) Upsert(_ context.Context, collection, key string, doc any) ([]byte, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	previous := m.docs[collection+"/"+key]
	m.docs[collection+"/"+key] = body
	return previous, nil
}

// Len returns the number of stored documents.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
