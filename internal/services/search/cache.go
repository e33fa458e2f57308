package search

import (
	"time"

	"github.com/riordanpawley/tandem/internal/domain"
)

// entry is one cached, role-filtered result set
type entry struct {
	users    []domain.User
	hidden   int
	storedAt time.Time
}

// resultCache keeps the most recently written keys. Expired entries stay
// until evicted so they can serve as a degraded fallback.
type resultCache struct {
	ttl      time.Duration
	capacity int
	entries  map[string]entry
	order    []string // oldest write first
}

func newResultCache(ttl time.Duration, capacity int) *resultCache {
	return &resultCache{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]entry),
	}
}

// get returns the entry for key and whether it is still fresh at now
func (c *resultCache) get(key string, now time.Time) (entry, bool, bool) {
	e, ok := c.entries[key]
	if !ok {
		return entry{}, false, false
	}
	return e, true, now.Sub(e.storedAt) < c.ttl
}

// put stores e as the newest write, evicting the oldest key on overflow
func (c *resultCache) put(key string, e entry) {
	if _, ok := c.entries[key]; ok {
		c.removeFromOrder(key)
	}
	c.entries[key] = e
	c.order = append(c.order, key)

	for len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

func (c *resultCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *resultCache) len() int {
	return len(c.entries)
}
