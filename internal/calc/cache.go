package calc

import (
	"container/list"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a bounded LRU of computed results with a TTL. Lookups for the
// same key that miss at the same time share one computation.
type Cache struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	items map[string]*cacheEntry
	order *list.List // front = most recently used

	group singleflight.Group
}

type cacheEntry struct {
	key       string
	value     any
	expiresAt time.Time
	element   *list.Element
}

// NewCache returns a cache holding at most capacity entries for ttl each.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1024
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*cacheEntry),
		order:    list.New(),
	}
}

// Get returns a live entry and marks it most recently used.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.remove(e)
		return nil, false
	}
	c.order.MoveToFront(e.element)
	return e.value, true
}

// Set stores value under key, evicting the least recently used entry when full.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = c.now().Add(c.ttl)
		c.order.MoveToFront(e.element)
		return
	}
	for len(c.items) >= c.capacity {
		c.evictOldest()
	}
	e := &cacheEntry{key: key, value: value, expiresAt: c.now().Add(c.ttl)}
	e.element = c.order.PushFront(e)
	c.items[key] = e
}

// Do returns the cached value for key or computes, stores and returns it.
// Errors are returned to every waiter and never stored.
func (c *Cache) Do(key string, fn func() (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := fn()
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	return v, err
}

// Size returns the number of stored entries, expired ones included.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CleanupExpired drops expired entries and returns how many were removed.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var expired []*cacheEntry
	for _, e := range c.items {
		if now.After(e.expiresAt) {
			expired = append(expired, e)
		}
	}
	for _, e := range expired {
		c.remove(e)
	}
	return len(expired)
}

// Must be called with mu held.
func (c *Cache) evictOldest() {
	if back := c.order.Back(); back != nil {
		c.remove(back.Value.(*cacheEntry))
	}
}

// Must be called with mu held.
func (c *Cache) remove(e *cacheEntry) {
	c.order.Remove(e.element)
	delete(c.items, e.key)
}
