package geo

import (
	"net/netip"
	"sync"
	"time"
)

// cacheEntry holds one lookup result, hit or miss.
type cacheEntry struct {
	loc       *Location
	found     bool
	expiresAt time.Time
}

func (e *cacheEntry) expired() bool {
	return time.Now().After(e.expiresAt)
}

// CachedResolver wraps another Resolver with a thread-safe in-memory TTL
// cache. Scanners hammer the intake with bursts from the same address, so
// most lookups repeat within seconds. Misses are cached too. A background
// goroutine evicts stale entries.
type CachedResolver struct {
	mu      sync.RWMutex
	inner   Resolver
	entries map[netip.Addr]*cacheEntry
	ttl     time.Duration
	stop    chan struct{}
}

// NewCachedResolver wraps inner with a cache whose entries live for ttl.
func NewCachedResolver(inner Resolver, ttl time.Duration) *CachedResolver {
	c := &CachedResolver{
		inner:   inner,
		entries: make(map[netip.Addr]*cacheEntry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go c.evictLoop()
	return c
}

// Lookup implements Resolver.
func (c *CachedResolver) Lookup(addr netip.Addr) (*Location, bool) {
	c.mu.RLock()
	e, ok := c.entries[addr]
	c.mu.RUnlock()
	if ok && !e.expired() {
		return e.loc, e.found
	}

	loc, found := c.inner.Lookup(addr)
	c.mu.Lock()
	c.entries[addr] = &cacheEntry{
		loc:       loc,
		found:     found,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
	return loc, found
}

// Close stops the eviction goroutine.
func (c *CachedResolver) Close() {
	close(c.stop)
}

// Len returns the number of cached entries (including expired).
func (c *CachedResolver) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *CachedResolver) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			for k, e := range c.entries {
				if e.expired() {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}
