package order

import (
	"sync"
)

// DefaultCacheCapacity bounds the analysis cache.
const DefaultCacheCapacity = 50

// CacheKey identifies one analyzed document revision.
type CacheKey struct {
	URI     string
	Version int
}

// Cache memoizes violations per document revision. When full, the entry
// inserted first is evicted. Lookups do not refresh an entry.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[CacheKey][]Violation
	order    []CacheKey // insertion order, oldest first
}

// NewCache creates a cache holding at most capacity entries.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[CacheKey][]Violation, capacity),
	}
}

// Get returns the cached violations for key.
func (c *Cache) Get(key CacheKey) ([]Violation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries[key]
	return v, ok
}

// Put stores violations for key, evicting oldest entries beyond capacity.
func (c *Cache) Put(key CacheKey, violations []Violation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = violations

	for len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[CacheKey][]Violation, c.capacity)
	c.order = nil
}
