// ABOUTME: TTL and size bounded memory of recent bcrypt matches.
// ABOUTME: Keys are full SHA-256 digests of codes; the oldest entry is evicted when full.

package access

import (
	"container/list"
	"sync"
	"time"
)

type matchEntry struct {
	at   time.Time
	elem *list.Element
}

// matchCache remembers code digests that recently matched a bcrypt entry.
// The list keeps keys in insertion order, oldest at the front.
type matchCache struct {
	mu      sync.Mutex
	entries map[string]*matchEntry
	order   *list.List
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

func newMatchCache(ttl time.Duration, maxSize int) *matchCache {
	c := &matchCache{
		entries: make(map[string]*matchEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

func (c *matchCache) seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return ok && time.Since(e.at) < c.ttl
}

func (c *matchCache) mark(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if e, ok := c.entries[key]; ok {
		e.at = now
		c.order.MoveToBack(e.elem)
		return
	}

	if len(c.entries) >= c.maxSize {
		if front := c.order.Front(); front != nil {
			c.order.Remove(front)
			delete(c.entries, front.Value.(string))
		}
	}

	c.entries[key] = &matchEntry{at: now, elem: c.order.PushBack(key)}
}

func (c *matchCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *matchCache) sweepLoop() {
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

// sweep drops expired entries.
func (c *matchCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if now.Sub(e.at) >= c.ttl {
			c.order.Remove(e.elem)
			delete(c.entries, key)
		}
	}
}

// close is safe to call more than once.
func (c *matchCache) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
