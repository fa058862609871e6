package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/atinyakov/WalletKeeper/internal/models"
)

// MemoryKVRepository keeps entries in process memory. It backs the
// "memory" storage DSN and the tests of the packages above it.
type MemoryKVRepository struct {
	mu    sync.RWMutex
	areas map[models.StorageArea]map[string][]byte
}

// NewMemoryKVRepository returns an empty in-memory repository.
func NewMemoryKVRepository() *MemoryKVRepository {
	return &MemoryKVRepository{areas: make(map[models.StorageArea]map[string][]byte)}
}

// Keys returns every key stored in area, sorted.
func (m *MemoryKVRepository) Keys(_ context.Context, area models.StorageArea) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.areas[area]))
	for k := range m.areas[area] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Get returns a copy of the value stored under key, or models.ErrNotFound.
func (m *MemoryKVRepository) Get(_ context.Context, area models.StorageArea, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.areas[area][key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return slices.Clone(v), nil
}

// Put stores a copy of value under key.
func (m *MemoryKVRepository) Put(_ context.Context, area models.StorageArea, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.areas[area] == nil {
		m.areas[area] = make(map[string][]byte)
	}
	m.areas[area][key] = slices.Clone(value)
	return nil
}

// Delete removes key from area.
func (m *MemoryKVRepository) Delete(_ context.Context, area models.StorageArea, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.areas[area], key)
	return nil
}

// Clear removes every entry of area.
func (m *MemoryKVRepository) Clear(_ context.Context, area models.StorageArea) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.areas, area)
	return nil
}
