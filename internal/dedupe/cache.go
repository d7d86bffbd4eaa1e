// ABOUTME: Thread-safe TTL cache for suppressing replayed stream events.
// ABOUTME: Keyed by event ID so reconnecting SSE streams do not double-apply.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// entry tracks when a key was recorded and where it sits in eviction order.
type entry struct {
	at   time.Time
	elem *list.Element
}

// Cache remembers recently seen event keys for a bounded window. When an SSE
// stream reconnects the backend may replay events already applied; checking
// the cache before applying keeps panes idempotent. Entries expire after the
// TTL and the oldest entry is evicted when the cache is full.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   *list.List // oldest key at front
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	once    sync.Once
}

// New creates a cache with the given TTL and maximum entry count. A
// background goroutine sweeps expired entries until Close is called.
func New(ttl time.Duration, maxSize int) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// Seen atomically checks whether the key is live in the cache and records it
// if not. Returns true for a replay (caller should drop the event) and false
// for a first sighting. The single-call form avoids a check/mark race between
// concurrent stream readers.
func (c *Cache) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && time.Since(e.at) < c.ttl {
		e.at = time.Now()
		c.order.MoveToBack(e.elem)
		return true
	}

	c.record(key)
	return false
}

// Contains reports whether the key is live without recording it.
func (c *Cache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return ok && time.Since(e.at) < c.ttl
}

// Forget drops a key so a later sighting is treated as new again.
func (c *Cache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return
	}
	c.order.Remove(e.elem)
	delete(c.entries, key)
}

// record must be called with mu held.
func (c *Cache) record(key string) {
	if e, ok := c.entries[key]; ok {
		e.at = time.Now()
		c.order.MoveToBack(e.elem)
		return
	}

	if len(c.entries) >= c.maxSize {
		front := c.order.Front()
		if front != nil {
			oldest, _ := front.Value.(string)
			c.order.Remove(front)
			delete(c.entries, oldest)
		}
	}

	elem := c.order.PushBack(key)
	c.entries[key] = &entry{at: time.Now(), elem: elem}
}

// sweepLoop periodically removes expired entries.
func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if now.Sub(e.at) > c.ttl {
			c.order.Remove(e.elem)
			delete(c.entries, key)
		}
	}
}

// Close stops the background sweeper. Safe to call more than once.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.done) })
}
