package procinfo

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// ProcInfo is what the profiler has learned about one sampled
// process: its PID, its detected runtime and when the entry was
// built. It does not hold the process's unwind table rows.
type ProcInfo struct {
	PID         int
	Runtime     RuntimeType
	BuiltAt     time.Time
}

type cacheEntry struct {
	info    ProcInfo
	expires time.Time
}

// Cache holds recently-built ProcInfo values keyed by PID, bounded by
// both an LRU eviction policy and a TTL: a PID can be reused by the
// kernel for an unrelated process, so entries older than the TTL are
// treated as stale even if they're still within the LRU's capacity.
type Cache struct {
	mu  sync.Mutex
	lru *lru.Cache
	ttl time.Duration
}

// NewCache creates a cache holding up to size entries, each valid for
// ttl before it must be rebuilt.
func NewCache(size int, ttl time.Duration) (*Cache, error) {
	l, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l, ttl: ttl}, nil
}

// Get returns the cached ProcInfo for pid if present and not expired.
func (c *Cache) Get(pid int, now time.Time) (ProcInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(pid)
	if !ok {
		return ProcInfo{}, false
	}
	entry := v.(cacheEntry)
	if now.After(entry.expires) {
		c.lru.Remove(pid)
		return ProcInfo{}, false
	}
	return entry.info, true
}

// Put inserts or refreshes the cached entry for info.PID.
func (c *Cache) Put(info ProcInfo, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(info.PID, cacheEntry{info: info, expires: now.Add(c.ttl)})
}

// Invalidate drops any cached entry for pid, used when the profiler
// observes the process has exited or exec'd a new image.
func (c *Cache) Invalidate(pid int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(pid)
}
