//go:build cgo

package main

import (
	"fmt"

	"github.com/dusk-indust/storeresolve/internal/index"
)

// openIndex opens a KuzuDB file index at path, or an in-memory index when
// path is empty.
func openIndex(path string) (index.Store, error) {
	if path == "" {
		return index.NewMemStore(), nil
	}
	st, err := index.NewKuzuFileStore(path)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	return st, nil
}
