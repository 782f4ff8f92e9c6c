// Package dedup drops duplicate message IDs inside a TTL window. QoS 1
// redeliveries carry the same payload, so hashing the payload gives a
// stable ID to deduplicate on.
package dedup

import (
	"sync"
	"time"
)

type Deduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	max  int
	seen map[string]time.Time
}

func New(ttl time.Duration, max int) *Deduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if max <= 0 {
		max = 10000
	}
	return &Deduper{ttl: ttl, max: max, seen: make(map[string]time.Time, max)}
}

// ShouldProcess reports whether id has not been seen within the TTL, and
// records it. An empty id is always processed.
func (d *Deduper) ShouldProcess(id string) bool {
	if id == "" {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	exp, tracked := d.seen[id]
	if tracked && now.Before(exp) {
		return false
	}
	d.seen[id] = now.Add(d.ttl)
	// Re-arming an expired entry does not grow the map.
	if !tracked && len(d.seen) > d.max {
		d.evict(now)
	}
	return true
}

// Len returns the number of tracked IDs, expired or not.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// evict trims the map back under max: expired entries first, then the
// entries closest to expiry, so the map stays bounded even when every
// tracked ID is still live. Caller holds d.mu.
func (d *Deduper) evict(now time.Time) {
	for k, exp := range d.seen {
		if now.After(exp) {
			delete(d.seen, k)
		}
	}
	for len(d.seen) > d.max {
		var oldest string
		var oldestExp time.Time
		for k, exp := range d.seen {
			if oldest == "" || exp.Before(oldestExp) {
				oldest, oldestExp = k, exp
			}
		}
		delete(d.seen, oldest)
	}
}
