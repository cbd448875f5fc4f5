package export

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dusk-indust/storeresolve/internal/index"
	"github.com/google/uuid"
)

// IndexExport is the top-level JSON export structure.
type IndexExport struct {
	ID         string                  `json:"id"`
	Root       string                  `json:"root,omitempty"`
	ExportedAt string                  `json:"exportedAt"`
	Stats      index.Stats             `json:"stats"`
	Containers []index.ContainerRecord `json:"containers"`
	States     []index.StateRecord     `json:"states"`
}

// ExportIndex dumps every container and state entry held by st.
func ExportIndex(ctx context.Context, st index.Store, root string) (*IndexExport, error) {
	stats, err := st.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	containers, err := st.ListContainers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	states, err := st.QueryState(ctx, "", math.MaxInt32)
	if err != nil {
		return nil, fmt.Errorf("query state: %w", err)
	}

	if containers == nil {
		containers = []index.ContainerRecord{}
	}
	if states == nil {
		states = []index.StateRecord{}
	}
	return &IndexExport{
		ID:         uuid.NewString(),
		Root:       root,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Stats:      *stats,
		Containers: containers,
		States:     states,
	}, nil
}
