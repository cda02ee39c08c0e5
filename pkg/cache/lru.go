package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// LRU is a fixed-capacity, concurrency-safe cache whose entries also expire
// after a TTL. Expired entries are dropped lazily on access.
type LRU[K comparable, V any] struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	items map[K]*list.Element
	order *list.List
}

type Option[K comparable, V any] func(*LRU[K, V])

// WithClock overrides time.Now, for tests.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *LRU[K, V]) { c.now = now }
}

// NewLRU panics on a non-positive capacity. A zero ttl disables expiry.
func NewLRU[K comparable, V any](capacity int, ttl time.Duration, opts ...Option[K, V]) *LRU[K, V] {
	if capacity <= 0 {
		panic("cache: LRU capacity must be positive")
	}
	c := &LRU[K, V]{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[K, V])
	if c.expired(e) {
		c.remove(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.value, true
}

// Set inserts or replaces the value and restarts its TTL.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var exp time.Time
	if c.ttl > 0 {
		exp = c.now().Add(c.ttl)
	}

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry[K, V])
		e.value, e.expiresAt = value, exp
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value, expiresAt: exp})
	if c.order.Len() > c.capacity {
		c.remove(c.order.Back())
	}
}

// Delete reports whether the key was present.
func (c *LRU[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if ok {
		c.remove(elem)
	}
	return ok
}

func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*list.Element, c.capacity)
	c.order.Init()
}

func (c *LRU[K, V]) expired(e *entry[K, V]) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}

func (c *LRU[K, V]) remove(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*entry[K, V]).key)
}
