package storage

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MockStore is an in-memory implementation of ArtifactStore for testing.
type MockStore struct {
	mu        sync.RWMutex
	artifacts map[string][]byte
	calls     MockCalls

	// WriteErr, when set, is returned by Write for matching paths.
	WriteErr func(path string) error
}

// MockCalls tracks method invocations for test verification.
type MockCalls struct {
	Write  int
	Read   int
	Exists int
	Remove int
	List   int
}

// NewMockStore creates a new in-memory artifact store.
func NewMockStore() *MockStore {
	return &MockStore{
		artifacts: make(map[string][]byte),
	}
}

// Write stores a copy of data at path.
func (m *MockStore) Write(_ context.Context, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Write++

	if m.WriteErr != nil {
		if err := m.WriteErr(path); err != nil {
			return err
		}
	}
	m.artifacts[path] = slices.Clone(data)
	return nil
}

// Read returns a copy of the stored data.
func (m *MockStore) Read(_ context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.calls.Read++

	data, ok := m.artifacts[path]
	if !ok {
		return nil, ErrNotFound{Path: path}
	}
	return slices.Clone(data), nil
}

// Exists checks if an artifact is present.
func (m *MockStore) Exists(_ context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.calls.Exists++

	_, ok := m.artifacts[path]
	return ok, nil
}

// Remove deletes an artifact.
func (m *MockStore) Remove(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Remove++

	if _, ok := m.artifacts[path]; !ok {
		return ErrNotFound{Path: path}
	}
	delete(m.artifacts, path)
	return nil
}

// List returns every stored path, sorted.
func (m *MockStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.calls.List++

	return slices.Sorted(maps.Keys(m.artifacts)), nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

// Calls returns a snapshot of the method call counters.
func (m *MockStore) Calls() MockCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Seed stores artifacts directly without counting calls.
func (m *MockStore) Seed(artifacts map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p, content := range artifacts {
		m.artifacts[p] = []byte(content)
	}
}

// Snapshot returns a copy of every artifact as strings.
func (m *MockStore) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.artifacts))
	for p, data := range m.artifacts {
		out[p] = string(data)
	}
	return out
}
