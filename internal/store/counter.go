package store

import "sync/atomic"

// Counter is a monotonically increasing modification stamp. Any edit to the
// observed sources advances it.
type Counter interface {
	Value() int64
}

// Tracker is the atomic Counter owned by whoever applies edits.
type Tracker struct {
	n atomic.Int64
}

var _ Counter = (*Tracker)(nil)

// Value returns the current stamp.
func (t *Tracker) Value() int64 { return t.n.Load() }

// Inc advances the stamp and returns the new value.
func (t *Tracker) Inc() int64 { return t.n.Add(1) }
