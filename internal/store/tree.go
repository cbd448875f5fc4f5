package store

import "sort"

// Node is a store tree node: either a *Container or a *StateEntry.
type Node interface {
	// QualifiedName returns the node's full "/"-separated path.
	QualifiedName() string

	// Accept dispatches to the visitor method for the node's case.
	Accept(v Visitor)
}

// Visitor receives the two cases of Node.
type Visitor interface {
	VisitContainer(c *Container)
	VisitState(e *StateEntry)
}

// Container is a store or store module. The root store has an empty Name.
type Container struct {
	Name       string                 `json:"name"`
	Key        string                 `json:"key"`
	Namespaced bool                   `json:"namespaced"`
	File       string                 `json:"file"`
	Source     Location               `json:"source"`
	State      map[string]*StateEntry `json:"-"`
	Modules    map[string]*Container  `json:"-"`
}

// NewContainer returns an empty container with the given qualified name.
func NewContainer(name string, source Location) *Container {
	return &Container{
		Name:    name,
		Key:     LastSegment(name),
		File:    source.File,
		Source:  source,
		State:   make(map[string]*StateEntry),
		Modules: make(map[string]*Container),
	}
}

func (c *Container) QualifiedName() string { return c.Name }
func (c *Container) Accept(v Visitor)      { v.VisitContainer(c) }

// AddState registers a state entry under this container and returns it.
func (c *Container) AddState(name string, source Location, typ Type) *StateEntry {
	e := &StateEntry{Name: name, Container: c.Name, Source: source, Type: typ}
	c.State[name] = e
	return e
}

// AddModule creates a nested container under key and returns it.
func (c *Container) AddModule(key string, source Location) *Container {
	m := NewContainer(AppendSegment(c.Name, key), source)
	c.Modules[key] = m
	return m
}

// StateSignature returns the field signature of the direct state entry named
// segment, or nil.
func (c *Container) StateSignature(segment string) *FieldSignature {
	e, ok := c.State[segment]
	if !ok {
		return nil
	}
	return e.Signature()
}

// StateEntry is a named piece of state owned by a container.
type StateEntry struct {
	Name      string   `json:"name"`
	Container string   `json:"container"`
	Source    Location `json:"source"`
	Type      Type     `json:"-"`
}

func (e *StateEntry) QualifiedName() string { return AppendSegment(e.Container, e.Name) }
func (e *StateEntry) Accept(v Visitor)      { v.VisitState(e) }

// Signature views the entry as a field of its container's state record.
func (e *StateEntry) Signature() *FieldSignature {
	return &FieldSignature{
		Name:    e.Name,
		Type:    e.Type,
		Sources: []Location{e.Source},
	}
}

// Selector picks the entries of a container that VisitSymbols reports.
type Selector func(c *Container) map[string]*StateEntry

// SelectState selects a container's state entries.
func SelectState(c *Container) map[string]*StateEntry { return c.State }

// Context is the store tree reachable from some location.
type Context interface {
	// VisitSymbols calls fn for every entry picked by sel from every
	// container, passing the owning container's qualified name.
	VisitSymbols(sel Selector, fn func(qualifiedName string, e *StateEntry))

	// Visit calls fn for every container.
	Visit(fn func(qualifiedName string, c *Container))
}

// Lookup finds the store context enclosing a location.
type Lookup interface {
	// ContextFor returns the context for loc, or nil when none exists.
	ContextFor(loc Location) Context

	// Contains reports whether loc still points into live source.
	Contains(loc Location) bool
}

// Tree is an assembled store. It is immutable once built.
type Tree struct {
	Root  *Container
	Files []string
}

var _ Context = (*Tree)(nil)

// Walk visits every node depth-first. Within a container, state entries come
// before nested modules and both are visited in key order.
func (t *Tree) Walk(v Visitor) {
	if t == nil || t.Root == nil {
		return
	}
	walk(t.Root, v)
}

func walk(c *Container, v Visitor) {
	c.Accept(v)
	for _, k := range sortedKeys(c.State) {
		c.State[k].Accept(v)
	}
	for _, k := range sortedKeys(c.Modules) {
		walk(c.Modules[k], v)
	}
}

func (t *Tree) VisitSymbols(sel Selector, fn func(string, *StateEntry)) {
	t.Walk(funcVisitor{container: func(c *Container) {
		entries := sel(c)
		for _, k := range sortedKeys(entries) {
			fn(c.Name, entries[k])
		}
	}})
}

func (t *Tree) Visit(fn func(string, *Container)) {
	t.Walk(funcVisitor{container: func(c *Container) { fn(c.Name, c) }})
}

// Find returns the container with the given qualified name, or nil.
func (t *Tree) Find(name string) *Container {
	var found *Container
	t.Visit(func(qn string, c *Container) {
		if found == nil && qn == name {
			found = c
		}
	})
	return found
}

// HasFile reports whether path contributed to the tree.
func (t *Tree) HasFile(path string) bool {
	for _, f := range t.Files {
		if f == path {
			return true
		}
	}
	return false
}

// funcVisitor adapts plain functions to Visitor. Nil funcs are skipped.
type funcVisitor struct {
	container func(*Container)
	state     func(*StateEntry)
}

func (f funcVisitor) VisitContainer(c *Container) {
	if f.container != nil {
		f.container(c)
	}
}

func (f funcVisitor) VisitState(e *StateEntry) {
	if f.state != nil {
		f.state(e)
	}
}

// VisitorFuncs builds a Visitor from optional callbacks.
func VisitorFuncs(container func(*Container), state func(*StateEntry)) Visitor {
	return funcVisitor{container: container, state: state}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
