//go:build !cgo

package main

import (
	"log"

	"github.com/dusk-indust/storeresolve/internal/index"
)

// openIndex always returns an in-memory index: KuzuDB needs cgo.
func openIndex(path string) (index.Store, error) {
	if path != "" {
		log.Printf("WARNING: indexPath %s ignored, built without cgo", path)
	}
	return index.NewMemStore(), nil
}
