package utils

import (
	"container/list"
	"sync"
)

// LRUCache implements a thread-safe Least Recently Used (LRU) cache
type LRUCache struct {
	capacity int
	items    map[string]*list.Element
	list     *list.List
	mu       sync.Mutex

	hits   uint64
	misses uint64
}

type cacheItem struct {
	key   string
	value interface{}
}

// CacheStats is a point-in-time view of cache usage
type CacheStats struct {
	Size   int
	Hits   uint64
	Misses uint64
}

// NewLRUCache creates a new LRU cache. A non-positive capacity is treated as 1.
func NewLRUCache(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRUCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		list:     list.New(),
	}
}

// Get gets a value from the cache
func (c *LRUCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, found := c.items[key]; found {
		c.list.MoveToFront(element)
		c.hits++
		return element.Value.(*cacheItem).value, true
	}

	c.misses++
	return nil, false
}

// Put puts a value in the cache
func (c *LRUCache) Put(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, found := c.items[key]; found {
		c.list.MoveToFront(element)
		element.Value.(*cacheItem).value = value
		return
	}

	element := c.list.PushFront(&cacheItem{key: key, value: value})
	c.items[key] = element

	if c.list.Len() > c.capacity {
		if oldest := c.list.Back(); oldest != nil {
			delete(c.items, oldest.Value.(*cacheItem).key)
			c.list.Remove(oldest)
		}
	}
}

// GetOrCompute returns the cached value for key, calling compute on a miss.
// Failed computations are not cached.
func (c *LRUCache) GetOrCompute(key string, compute func() (interface{}, error)) (interface{}, error) {
	if v, found := c.Get(key); found {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	c.Put(key, v)
	return v, nil
}

// Clear drops every entry and zeroes the counters
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.list.Init()
	c.hits = 0
	c.misses = 0
}

// Size returns the number of items in the cache
func (c *LRUCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Len()
}

func (c *LRUCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Size: c.list.Len(), Hits: c.hits, Misses: c.misses}
}
