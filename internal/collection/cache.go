// Package collection shares one pager between every consumer of the same
// listing and keeps it warm for a short while after the last one leaves.
package collection

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/kinotv/internal/paging"
)

// DefaultGrace is how long an unobserved pager is kept alive
const DefaultGrace = 5 * time.Second

type timer interface {
	Stop() bool
}

type entry[T any] struct {
	pager *paging.Pager[T]
	refs  int
	idle  timer
	gen   uint64 // bumped on every schedule; stale teardowns compare against it
}

// Cache maps a key to a shared pager. Pagers are created on first
// subscription and torn down once they have had no subscribers for the
// grace window.
type Cache[K comparable, T any] struct {
	factory func(K) *paging.Pager[T]
	grace   time.Duration
	logger  *slog.Logger

	// afterFunc schedules teardown; replaced in tests
	afterFunc func(time.Duration, func()) timer

	mu      sync.Mutex
	entries map[K]*entry[T]
}

// NewCache creates a cache. A non-positive grace uses DefaultGrace.
func NewCache[K comparable, T any](factory func(K) *paging.Pager[T], grace time.Duration, logger *slog.Logger) *Cache[K, T] {
	if logger == nil {
		logger = slog.Default()
	}
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Cache[K, T]{
		factory: factory,
		grace:   grace,
		logger:  logger,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
		entries: make(map[K]*entry[T]),
	}
}

// Subscribe returns a handle on the pager for key, creating it if needed.
// A pending teardown for key is cancelled.
func (c *Cache[K, T]) Subscribe(key K) *Handle[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.logger.Debug("creating shared pager", "key", key)
		e = &entry[T]{pager: c.factory(key)}
		c.entries[key] = e
	}
	if e.idle != nil {
		e.idle.Stop()
		e.idle = nil
		e.gen++
	}
	e.refs++

	return newHandle(e.pager, func() { c.release(key, e) })
}

// Snapshot reads the materialized items for key without subscribing
func (c *Cache[K, T]) Snapshot(key K) (paging.Snapshot[T], bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return paging.Snapshot[T]{}, false
	}
	return e.pager.Snapshot(), true
}

// Len returns the number of live pagers
func (c *Cache[K, T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close tears down every pager immediately, observed or not
func (c *Cache[K, T]) Close() {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[K]*entry[T])
	c.mu.Unlock()

	for key, e := range entries {
		if e.idle != nil {
			e.idle.Stop()
		}
		c.logger.Debug("closing shared pager", "key", key)
		e.pager.Close()
	}
}

func (c *Cache[K, T]) release(key K, e *entry[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[key] != e || e.refs == 0 {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}

	e.gen++
	gen := e.gen
	e.idle = c.afterFunc(c.grace, func() { c.teardown(key, e, gen) })
}

func (c *Cache[K, T]) teardown(key K, e *entry[T], gen uint64) {
	c.mu.Lock()
	if c.entries[key] != e || e.refs > 0 || e.gen != gen {
		c.mu.Unlock()
		return
	}
	delete(c.entries, key)
	c.mu.Unlock()

	c.logger.Debug("grace window elapsed, closing pager", "key", key)
	e.pager.Close()
}
