package workspace

import (
	"sort"

	"github.com/dusk-indust/storeresolve/internal/resolve"
	"github.com/dusk-indust/storeresolve/internal/store"
)

// ContainerInfo summarizes one store module.
type ContainerInfo struct {
	Name       string   `json:"name"`
	Namespaced bool     `json:"namespaced"`
	File       string   `json:"file"`
	Line       int      `json:"line"`
	State      []string `json:"state"`
	Modules    []string `json:"modules"`
}

// Usage is one reference site of a qualified state path. QualifiedName is
// the path as written at the site.
type Usage struct {
	QualifiedName string         `json:"qualifiedName"`
	Location      store.Location `json:"location"`
}

// Stats counts what the workspace holds.
type Stats struct {
	Files      int   `json:"files"`
	Stores     int   `json:"stores"`
	Containers int   `json:"containers"`
	States     int   `json:"states"`
	References int   `json:"references"`
	Elements   int   `json:"elements"`
	Revision   int64 `json:"revision"`
}

// Elements returns the distinct state elements for every reference in the
// project.
func (w *Workspace) Elements() []*resolve.StateElement {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.elements.All()
}

// ElementAt returns the element whose reference covers the 1-based position
// in file, or nil.
func (w *Workspace) ElementAt(file string, line, col int) *resolve.StateElement {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, b := range w.bindings {
		if b.ref.Location.File == file && b.ref.Location.Contains(line, col) {
			return b.elem
		}
	}
	return nil
}

// NewElement returns an element for an ad-hoc qualified name, anchored at the
// first store's declaration. A reference element equal to it is returned
// as is. Otherwise the element is kept in a side table, so repeated calls for
// one name share a cache until the next change, and Elements never sees it.
func (w *Workspace) NewElement(qualifiedName string) *resolve.StateElement {
	w.mu.RLock()
	var anchor store.Location
	if len(w.trees) > 0 {
		anchor = w.trees[0].Root.Source
	}
	refs, adhoc := w.elements, w.adhoc
	w.mu.RUnlock()

	e := w.newElement(store.LastSegment(qualifiedName), qualifiedName, anchor)
	if existing := refs.Find(e); existing != nil {
		return existing
	}
	return adhoc.Intern(e)
}

// Usages returns every reference site whose element is equivalent to one of
// the definitions of qualifiedName, in location order. A name with no
// definition has no usages.
func (w *Workspace) Usages(qualifiedName string) []Usage {
	defs := w.NewElement(qualifiedName).Candidates()
	if len(defs) == 0 {
		return nil
	}

	// Elements resolve through ContextFor, so the lock is not held while
	// they are queried.
	w.mu.RLock()
	bindings := w.bindings
	w.mu.RUnlock()

	var out []Usage
	for _, b := range bindings {
		for _, d := range defs {
			if b.elem.IsEquivalentTo(d) {
				out = append(out, Usage{QualifiedName: b.ref.QualifiedName, Location: b.ref.Location})
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return store.Compare(out[i].Location, out[j].Location) < 0
	})
	return out
}

// Containers lists every module of every store in walk order. A container
// name shared by several stores is reported once.
func (w *Workspace) Containers() []ContainerInfo {
	w.mu.RLock()
	defer w.mu.RUnlock()
	seen := make(map[string]bool)
	var out []ContainerInfo
	for _, t := range w.trees {
		t.Visit(func(name string, c *store.Container) {
			if seen[name] {
				return
			}
			seen[name] = true
			out = append(out, ContainerInfo{
				Name:       name,
				Namespaced: c.Namespaced,
				File:       c.File,
				Line:       c.Source.StartLine,
				State:      sortedMapKeys(c.State),
				Modules:    sortedMapKeys(c.Modules),
			})
		})
	}
	return out
}

// Stats reports counts over the current generation.
func (w *Workspace) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := Stats{
		Files:      len(w.files),
		Stores:     len(w.trees),
		References: len(w.bindings),
		Elements:   w.elements.Len(),
		Revision:   w.tracker.Value(),
	}
	for _, t := range w.trees {
		t.Walk(store.VisitorFuncs(
			func(*store.Container) { s.Containers++ },
			func(*store.StateEntry) { s.States++ },
		))
	}
	return s
}

func sortedMapKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
