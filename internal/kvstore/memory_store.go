package kvstore

import (
	"context"
	"sync"

	"github.com/bassista/go_fest/internal/logger"
)

// MemoryStore keeps values in memory only. Useful for tests and for running without a
// writable data directory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	logger.WithComponent("memory-store").Tracef("set %s", key)
	m.values[key] = value
	return nil
}

func (m *MemoryStore) MultiGet(_ context.Context, keys []string) ([]Pair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make([]Pair, 0, len(keys))
	for _, k := range keys {
		v, ok := m.values[k]
		out = append(out, Pair{Key: k, Value: v, Found: ok})
	}
	return out, nil
}

func (m *MemoryStore) MultiSet(_ context.Context, pairs []Pair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for _, p := range pairs {
		m.values[p.Key] = p.Value
	}
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.values, key)
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
