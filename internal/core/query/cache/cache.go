// Package cache keeps compiled statements in memory so repeated
// compilation of the same source under the same dialect is a lookup.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Stats represents cache statistics
type Stats struct {
	Hits      int64
	Misses    int64
	Size      int
	MaxSize   int
	Evictions int64
	HitRate   float64
}

// LRU is a size-bounded least-recently-used cache with optional expiry.
// It is safe for concurrent use.
type LRU[V any] struct {
	mu      sync.Mutex
	data    map[string]*node[V]
	maxSize int
	ttl     time.Duration
	head    *node[V]
	tail    *node[V]
	stats   Stats
}

type node[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	prev      *node[V]
	next      *node[V]
}

// New creates a cache holding at most maxSize entries. A zero ttl keeps
// entries until they are evicted.
func New[V any](maxSize int, ttl time.Duration) *LRU[V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRU[V]{
		data:    make(map[string]*node[V]),
		maxSize: maxSize,
		ttl:     ttl,
		stats:   Stats{MaxSize: maxSize},
	}
}

// Key builds the cache key of a source compiled for dialect.
func Key(dialect, src string) string {
	sum := sha256.Sum256([]byte(src))
	return dialect + ":" + hex.EncodeToString(sum[:])
}

// Get retrieves a value from the cache
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	n, ok := c.data[key]
	if !ok {
		c.miss()
		return zero, false
	}
	if !n.expiresAt.IsZero() && time.Now().After(n.expiresAt) {
		c.remove(n)
		c.miss()
		return zero, false
	}

	c.moveToFront(n)
	c.stats.Hits++
	c.updateHitRate()
	return n.value, true
}

// Set stores a value, evicting the least recently used entry when full.
func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}

	if n, ok := c.data[key]; ok {
		n.value = value
		n.expiresAt = expiresAt
		c.moveToFront(n)
		return
	}

	if len(c.data) >= c.maxSize && c.tail != nil {
		c.remove(c.tail)
		c.stats.Evictions++
	}

	n := &node[V]{key: key, value: value, expiresAt: expiresAt}
	c.addToFront(n)
	c.data[key] = n
	c.stats.Size = len(c.data)
}

// Stats returns a snapshot of the cache statistics.
func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *LRU[V]) miss() {
	c.stats.Misses++
	c.updateHitRate()
}

func (c *LRU[V]) addToFront(n *node[V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *LRU[V]) moveToFront(n *node[V]) {
	if n == c.head {
		return
	}
	c.unlink(n)
	c.addToFront(n)
}

func (c *LRU[V]) unlink(n *node[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (c *LRU[V]) remove(n *node[V]) {
	c.unlink(n)
	delete(c.data, n.key)
	c.stats.Size = len(c.data)
}

// updateHitRate updates the hit rate percentage
func (c *LRU[V]) updateHitRate() {
	total := c.stats.Hits + c.stats.Misses
	if total > 0 {
		c.stats.HitRate = float64(c.stats.Hits) / float64(total) * 100
	}
}
