// Package submit tracks run IDs so retried submissions are acknowledged
// instead of ranked twice.
package submit

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50000

// Cache records seen run IDs for at-most-once run processing.
type Cache interface {
	// SeenAndRecord atomically checks whether id was seen and records it if
	// not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets an ID so it can be resubmitted. Used when a recorded
	// submission could not be enqueued.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// memoryCache implements Cache with a map plus a ring buffer of insertion
// order. When the cache is full, the oldest recorded ID is evicted.
// maxSize <= 0 disables eviction.
type memoryCache struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	head    int
	maxSize int
	size    atomic.Int64
}

// Option applies a configuration option to the cache.
type Option func(*memoryCache)

// WithMaxSize bounds the number of IDs retained. Sizes <= 0 mean unbounded.
func WithMaxSize(maxSize int) Option {
	return func(c *memoryCache) {
		c.maxSize = maxSize
	}
}

// NewMemoryCache creates a bounded in-memory submission cache.
func NewMemoryCache(opts ...Option) Cache {
	c := &memoryCache{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(c)
	}
	c.seen = make(map[string]struct{})
	if c.maxSize > 0 {
		c.order = make([]string, 0, c.maxSize)
	}
	return c
}

func (c *memoryCache) SeenAndRecord(_ context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[id]; ok {
		return true
	}

	if c.maxSize > 0 && len(c.seen) >= c.maxSize {
		c.evictOldest()
	}

	c.seen[id] = struct{}{}
	if c.maxSize > 0 {
		c.order = append(c.order, id)
	}
	c.size.Add(1)
	return false
}

func (c *memoryCache) Unrecord(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[id]; !ok {
		return
	}
	delete(c.seen, id)
	c.size.Add(-1)
	// The stale slot in the ring is skipped during eviction.
}

// evictOldest drops the least recently recorded live ID. Slots whose ID was
// already unrecorded are discarded on the way.
func (c *memoryCache) evictOldest() {
	for c.head < len(c.order) {
		id := c.order[c.head]
		c.head++
		if _, ok := c.seen[id]; ok {
			delete(c.seen, id)
			c.size.Add(-1)
			break
		}
	}
	// Compact once the consumed prefix dominates the buffer.
	if c.head > 0 && c.head*2 >= len(c.order) {
		c.order = append(c.order[:0], c.order[c.head:]...)
		c.head = 0
	}
}

func (c *memoryCache) Size() int64 {
	return c.size.Load()
}
