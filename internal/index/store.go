package index

import (
	"context"
	"io"
)

// Store persists the assembled store trees so they can be searched without
// re-walking a repository.
// Implementations: KuzuStore (production), MemStore (testing).
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Reset removes all containers and state entries.
	Reset(ctx context.Context) error

	// Write operations.
	AddContainer(ctx context.Context, rec ContainerRecord) error
	AddState(ctx context.Context, rec StateRecord) error
	LinkModule(ctx context.Context, parent, child string) error

	// Read operations.
	GetContainer(ctx context.Context, name string) (*ContainerRecord, error)
	ListContainers(ctx context.Context) ([]ContainerRecord, error)
	QueryState(ctx context.Context, query string, limit int) ([]StateRecord, error)

	// Stats.
	Stats(ctx context.Context) (*Stats, error)
}

// ContainerRecord is the persisted form of a store container. The root store
// has an empty Name.
type ContainerRecord struct {
	Name       string `json:"name"`
	Namespaced bool   `json:"namespaced"`
	File       string `json:"file"`
	Line       int    `json:"line"`
	StateCount int    `json:"stateCount"`
}

// StateRecord is the persisted form of a state entry.
type StateRecord struct {
	QualifiedName string `json:"qualifiedName"`
	Container     string `json:"container"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	File          string `json:"file"`
	Line          int    `json:"line"`
	Column        int    `json:"column"`
}

// Stats summarizes an index.
type Stats struct {
	ContainerCount int `json:"containerCount"`
	StateCount     int `json:"stateCount"`
	ModuleCount    int `json:"moduleCount"`
}
