// Package mock provides an in-memory test double for vectorstore.Store.
package mock

import (
	"context"
	"sync"

	"github.com/poiesic/corpus/vectorstore"
)

// MockStore records added vectors per collection in memory.
type MockStore struct {
	// AddFunc overrides Add when set.
	AddFunc func(ctx context.Context, collection string, records []vectorstore.Record) error
	// DeleteByFilterFunc overrides DeleteByFilter when set.
	DeleteByFilterFunc func(ctx context.Context, collection string, filter vectorstore.Filter) error

	mu          sync.Mutex
	collections map[string][]vectorstore.Record
	deletes     []vectorstore.Filter
}

var _ vectorstore.Store = (*MockStore)(nil)

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{collections: make(map[string][]vectorstore.Record)}
}

// Add implements vectorstore.Store.
func (m *MockStore) Add(ctx context.Context, collection string, records []vectorstore.Record) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, collection, records)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collection] = append(m.collections[collection], records...)
	return nil
}

// DeleteByFilter implements vectorstore.Store.
func (m *MockStore) DeleteByFilter(ctx context.Context, collection string, filter vectorstore.Filter) error {
	if m.DeleteByFilterFunc != nil {
		return m.DeleteByFilterFunc(ctx, collection, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, filter)

	kept := m.collections[collection][:0]
	for _, record := range m.collections[collection] {
		if !matches(record.Metadata, filter) {
			kept = append(kept, record)
		}
	}
	m.collections[collection] = kept
	return nil
}

// Records returns the vectors stored in a collection, in insertion order.
func (m *MockStore) Records(collection string) []vectorstore.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]vectorstore.Record(nil), m.collections[collection]...)
}

// Deletes returns the filters passed to DeleteByFilter, in call order.
func (m *MockStore) Deletes() []vectorstore.Filter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]vectorstore.Filter(nil), m.deletes...)
}

func matches(metadata map[string]string, filter vectorstore.Filter) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}
