package repository

import (
	"context"
	"sync"
)

// MemoryRecord keeps values in process memory.
type MemoryRecord struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryRecord creates an empty in-memory record store.
func NewMemoryRecord() *MemoryRecord {
	return &MemoryRecord{values: make(map[string][]byte)}
}

func (m *MemoryRecord) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryRecord) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryRecord) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryRecord) Close() error { return nil }
