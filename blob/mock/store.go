// Package mock provides an in-memory test double for blob.Store.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/corpus/blob"
)

// MockStore holds objects in a map keyed by path.
type MockStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

var _ blob.Store = (*MockStore)(nil)

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{objects: make(map[string][]byte)}
}

// Put seeds an object for tests.
func (m *MockStore) Put(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = data
}

// Get implements blob.Store.
func (m *MockStore) Get(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", blob.ErrObjectNotFound, path)
	}
	return data, nil
}

// Copy implements blob.Store.
func (m *MockStore) Copy(ctx context.Context, srcPath, dstPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[srcPath]
	if !ok {
		return fmt.Errorf("%w: %s", blob.ErrObjectNotFound, srcPath)
	}
	m.objects[dstPath] = append([]byte(nil), data...)
	return nil
}

// Delete implements blob.Store.
func (m *MockStore) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	m.deleted = append(m.deleted, path)
	return nil
}

// Deleted returns the paths passed to Delete, in call order.
func (m *MockStore) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}
