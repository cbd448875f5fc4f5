package resolve

import (
	"strconv"
	"sync"

	"github.com/dusk-indust/storeresolve/internal/store"
	"golang.org/x/sync/singleflight"
)

// Cell memoizes the result of compute against a modification counter. The
// cached value is reused until the counter moves. Concurrent callers that see
// the same stale stamp share a single computation, and a value is published
// only if compute returns normally.
type Cell[T any] struct {
	counter store.Counter
	compute func() T

	mu    sync.Mutex
	valid bool
	stamp int64
	value T

	group singleflight.Group
}

// NewCell returns a Cell that recomputes whenever counter advances. A nil
// counter never advances.
func NewCell[T any](counter store.Counter, compute func() T) *Cell[T] {
	return &Cell[T]{counter: counter, compute: compute}
}

// Get returns the value for the counter's current stamp.
func (c *Cell[T]) Get() T {
	var stamp int64
	if c.counter != nil {
		stamp = c.counter.Value()
	}
	if v, ok := c.load(stamp); ok {
		return v
	}

	v, _, _ := c.group.Do(strconv.FormatInt(stamp, 10), func() (any, error) {
		// A caller that arrived after the previous flight finished.
		if v, ok := c.load(stamp); ok {
			return v, nil
		}
		v := c.compute()
		c.publish(stamp, v)
		return v, nil
	})
	return v.(T)
}

// Stamp returns the stamp of the cached value and whether one exists.
func (c *Cell[T]) Stamp() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stamp, c.valid
}

func (c *Cell[T]) load(stamp int64) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid && c.stamp == stamp {
		return c.value, true
	}
	var zero T
	return zero, false
}

// publish stores v unless a newer stamp is already cached.
func (c *Cell[T]) publish(stamp int64, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid && c.stamp > stamp {
		return
	}
	c.valid = true
	c.stamp = stamp
	c.value = v
}
