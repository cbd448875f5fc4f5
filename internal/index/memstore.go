package index

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu         sync.RWMutex
	containers map[string]ContainerRecord
	states     map[string]StateRecord // key: qualified name
	modules    [][2]string            // parent, child
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		containers: make(map[string]ContainerRecord),
		states:     make(map[string]StateRecord),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// Reset drops every record.
func (m *MemStore) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.containers = make(map[string]ContainerRecord)
	m.states = make(map[string]StateRecord)
	m.modules = nil
	return nil
}

// AddContainer stores a container keyed by its qualified name.
func (m *MemStore) AddContainer(_ context.Context, rec ContainerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.containers[rec.Name] = rec
	return nil
}

// AddState stores a state entry keyed by its qualified name.
func (m *MemStore) AddState(_ context.Context, rec StateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[rec.QualifiedName] = rec
	return nil
}

// LinkModule records that child is a module of parent.
func (m *MemStore) LinkModule(_ context.Context, parent, child string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modules = append(m.modules, [2]string{parent, child})
	return nil
}

// GetContainer returns the container with the given name, or nil if not found.
func (m *MemStore) GetContainer(_ context.Context, name string) (*ContainerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.containers[name]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// ListContainers returns every container ordered by name.
func (m *MemStore) ListContainers(_ context.Context) ([]ContainerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ContainerRecord, 0, len(m.containers))
	for _, c := range m.containers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// QueryState returns state entries whose qualified name contains query
// (case-insensitive), ordered by name, up to limit results. A limit <= 0
// returns all matches.
func (m *MemStore) QueryState(_ context.Context, query string, limit int) ([]StateRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lowerQuery := strings.ToLower(query)
	var results []StateRecord
	for _, s := range m.states {
		if strings.Contains(strings.ToLower(s.QualifiedName), lowerQuery) {
			results = append(results, s)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].QualifiedName < results[j].QualifiedName })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Stats returns record counts.
func (m *MemStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &Stats{
		ContainerCount: len(m.containers),
		StateCount:     len(m.states),
		ModuleCount:    len(m.modules),
	}, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
