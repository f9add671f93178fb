package kv

import (
	"bytes"
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps values in process memory. Used for tests and the memory:// backend.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	writes int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Get returns a copy of the stored value
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	return slices.Clone(v), nil
}

// Set stores a copy of value under key
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = slices.Clone(value)
	m.writes++
	return nil
}

// CompareAndSwap stores value when the key still holds old
func (m *MemoryStore) CompareAndSwap(ctx context.Context, key string, old, value []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.values[key]
	if ok != (old != nil) || !bytes.Equal(current, old) {
		return false, nil
	}
	m.values[key] = slices.Clone(value)
	m.writes++
	return true, nil
}

// Writes returns how many Set calls the store has received
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Ping always succeeds
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}
