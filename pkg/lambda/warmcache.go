package lambda

import (
	"sync"
	"time"
)

// staleAfter is how long an unused cached resource still counts as warm.
const staleAfter = 5 * time.Minute

// WarmCache holds a resource that is expensive to build and survives across
// invocations of the same execution environment. The first Get builds it;
// later invocations reuse it. A failed build is not latched, so the next
// invocation tries again.
type WarmCache[T any] struct {
	build func() (T, error)

	mu       sync.Mutex
	built    bool
	value    T
	lastUsed time.Time
}

// NewWarmCache returns a cache that builds its resource with build on first
// use.
func NewWarmCache[T any](build func() (T, error)) *WarmCache[T] {
	return &WarmCache[T]{build: build}
}

// Get returns the cached resource, building it if necessary.
func (c *WarmCache[T]) Get() (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.built {
		value, err := c.build()
		if err != nil {
			var zero T
			return zero, err
		}
		c.value = value
		c.built = true
	}

	c.lastUsed = time.Now()
	return c.value, nil
}

// IsWarm reports whether a resource is cached and recently used.
func (c *WarmCache[T]) IsWarm() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.built && time.Since(c.lastUsed) < staleAfter
}

// Reset drops the cached resource so the next Get rebuilds it.
func (c *WarmCache[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.value = zero
	c.built = false
}
