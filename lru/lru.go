// Package lru provides a bounded, recency-ordered, process-local cache for
// hot in-process values where disk persistence is unnecessary. Eviction is
// strict least-recently-used; an optional timeout ages entries out on read.
package lru

import (
	"container/list"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type entry[K comparable, V any] struct {
	key        K
	val        V
	insertedAt time.Time
}

// Cache is a fixed-capacity LRU cache with an optional per-entry timeout.
// Safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	maxsize int
	timeout time.Duration
	clk     clock.Clock
	ll      *list.List
	idx     map[K]*list.Element
}

// New creates a cache holding at most maxsize entries. A zero timeout means
// entries never age out; they only leave through eviction, overwrite or Clear.
func New[K comparable, V any](maxsize int, timeout time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		maxsize: maxsize,
		timeout: timeout,
		clk:     clock.New(),
		ll:      list.New(),
		idx:     make(map[K]*list.Element, maxsize),
	}
}

// WithClock replaces the time source, for tests.
func (c *Cache[K, V]) WithClock(clk clock.Clock) *Cache[K, V] {
	c.clk = clk
	return c
}

// Get returns the value for k if present and not aged out, marking the entry
// most-recently-used. An aged-out entry is deleted and reported absent.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.idx[k]
	if !ok {
		return zero, false
	}

	ent := el.Value.(*entry[K, V])
	if c.timeout > 0 && c.clk.Since(ent.insertedAt) > c.timeout {
		c.removeElement(el)
		return zero, false
	}

	c.ll.MoveToFront(el)
	return ent.val, true
}

// Set inserts or overwrites k, marking it most-recently-used. When an insert
// pushes the cache past maxsize, the least-recently-used entry is evicted.
// Overwriting an existing key is a touch, never an eviction trigger.
func (c *Cache[K, V]) Set(k K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.idx[k]; ok {
		ent := el.Value.(*entry[K, V])
		ent.val = v
		ent.insertedAt = c.clk.Now()
		c.ll.MoveToFront(el)
		return
	}

	c.idx[k] = c.ll.PushFront(&entry[K, V]{key: k, val: v, insertedAt: c.clk.Now()})

	if c.maxsize > 0 && c.ll.Len() > c.maxsize {
		if tail := c.ll.Back(); tail != nil {
			c.removeElement(tail)
		}
	}
}

// Clear removes all entries unconditionally.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.idx = make(map[K]*list.Element, c.maxsize)
}

// Len returns the number of resident entries, aged-out ones included.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache[K, V]) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.idx, el.Value.(*entry[K, V]).key)
}
