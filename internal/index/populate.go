package index

import (
	"context"
	"fmt"

	"github.com/dusk-indust/storeresolve/internal/store"
)

// Populate replaces the contents of st with the given trees. When two trees
// define the same qualified name, the first tree wins.
func Populate(ctx context.Context, st Store, trees []*store.Tree) error {
	if err := st.Reset(ctx); err != nil {
		return fmt.Errorf("reset index: %w", err)
	}

	var (
		containers []ContainerRecord
		states     []StateRecord
		links      [][2]string
	)
	seenContainer := make(map[string]bool)
	seenState := make(map[string]bool)

	for _, tree := range trees {
		tree.Walk(store.VisitorFuncs(
			func(c *store.Container) {
				if seenContainer[c.Name] {
					return
				}
				seenContainer[c.Name] = true
				containers = append(containers, ContainerRecord{
					Name:       c.Name,
					Namespaced: c.Namespaced,
					File:       c.File,
					Line:       c.Source.StartLine,
					StateCount: len(c.State),
				})
				for key := range c.Modules {
					links = append(links, [2]string{c.Name, store.AppendSegment(c.Name, key)})
				}
			},
			func(e *store.StateEntry) {
				qn := e.QualifiedName()
				if seenState[qn] {
					return
				}
				seenState[qn] = true
				typ := "any"
				if e.Type != nil {
					typ = e.Type.String()
				}
				states = append(states, StateRecord{
					QualifiedName: qn,
					Container:     e.Container,
					Name:          e.Name,
					Type:          typ,
					File:          e.Source.File,
					Line:          e.Source.StartLine,
					Column:        e.Source.StartColumn,
				})
			},
		))
	}

	for _, c := range containers {
		if err := st.AddContainer(ctx, c); err != nil {
			return fmt.Errorf("add container %q: %w", c.Name, err)
		}
	}
	for _, l := range links {
		if err := st.LinkModule(ctx, l[0], l[1]); err != nil {
			return fmt.Errorf("link module %s->%s: %w", l[0], l[1], err)
		}
	}
	for _, s := range states {
		if err := st.AddState(ctx, s); err != nil {
			return fmt.Errorf("add state %s: %w", s.QualifiedName, err)
		}
	}
	return nil
}
