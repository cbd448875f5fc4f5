package resolve

import "sync"

// Table deduplicates StateElements by Equal, bucketed by identityHash.
// Interning an element that equals one already present returns the existing
// element, so its cached resolution is shared.
type Table struct {
	mu      sync.Mutex
	buckets map[uint64][]*StateElement
	order   []*StateElement
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{buckets: make(map[uint64][]*StateElement)}
}

// Intern returns the element equal to e, inserting e if there is none.
func (t *Table) Intern(e *StateElement) *StateElement {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := e.identityHash()
	for _, existing := range t.buckets[h] {
		if existing.Equal(e) {
			return existing
		}
	}
	t.buckets[h] = append(t.buckets[h], e)
	t.order = append(t.order, e)
	return e
}

// Find returns the element equal to e, or nil. It never inserts.
func (t *Table) Find(e *StateElement) *StateElement {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, existing := range t.buckets[e.identityHash()] {
		if existing.Equal(e) {
			return existing
		}
	}
	return nil
}

// Len returns the number of distinct elements.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

// All returns the distinct elements in insertion order.
func (t *Table) All() []*StateElement {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*StateElement, len(t.order))
	copy(out, t.order)
	return out
}
