package rowan

import (
	"sync"
	"time"
)

// CacheConfig bounds the result cache. Zero values select the defaults.
type CacheConfig struct {
	MaxEntries     int           // maximum entry count (default 512)
	MaxMemoryBytes int           // total buffer byte budget (default 32 MiB)
	TTL            time.Duration // idle time before an entry is stale (default 5m)
}

const (
	defaultCacheMaxEntries = 512
	defaultCacheMaxMemory  = 32 << 20
	defaultCacheTTL        = 5 * time.Minute
)

// cacheEntry is a node in the intrusive LRU list. head.next is the
// most-recently-used entry; tail.prev the eviction candidate.
type cacheEntry struct {
	hash       Hash
	buf        *Buffer
	size       int
	lastAccess time.Time
	prev, next *cacheEntry
}

// ResultCache memoizes rendered buffers keyed by render hash, with LRU +
// TTL + memory-budget eviction. It is internally synchronized: a future
// renderer may warm it from a background thread, and the put/evict pair
// must keep the tracked memory total consistent with the entries held.
//
// Buffers are copied on both Put and Get, so no caller ever holds a
// live-aliased handle that a concurrent Put could mutate underneath it.
type ResultCache struct {
	mu         sync.Mutex
	cfg        CacheConfig
	entries    map[Hash]*cacheEntry
	head, tail cacheEntry // list sentinels
	totalBytes int

	// clock is replaceable in tests.
	clock func() time.Time

	hits, misses, evictions, expirations, rejections uint64
}

// NewResultCache creates a cache with the given bounds.
func NewResultCache(cfg CacheConfig) *ResultCache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = defaultCacheMaxEntries
	}
	if cfg.MaxMemoryBytes <= 0 {
		cfg.MaxMemoryBytes = defaultCacheMaxMemory
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}
	c := &ResultCache{
		cfg:     cfg,
		entries: make(map[Hash]*cacheEntry),
		clock:   time.Now,
	}
	c.head.next = &c.tail
	c.tail.prev = &c.head
	return c
}

// Get returns a copy of the cached buffer for hash, or nil on a miss.
// An entry idle longer than the TTL is evicted and counts as a miss;
// expiry is checked lazily here, not by a background sweeper.
func (c *ResultCache) Get(hash Hash) *Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[hash]
	if !ok {
		c.misses++
		return nil
	}
	now := c.clock()
	if now.Sub(e.lastAccess) > c.cfg.TTL {
		c.remove(e)
		c.expirations++
		c.misses++
		return nil
	}
	e.lastAccess = now
	c.moveToFront(e)
	c.hits++
	return e.buf.Clone()
}

// Put inserts a copy of buf under hash, evicting least-recently-used
// entries until both the entry-count and memory budgets hold, even if
// that evicts entries inserted moments ago. A buffer whose size alone
// exceeds the memory budget is rejected outright with
// ErrCacheEntryTooLarge rather than evicting everything.
func (c *ResultCache) Put(hash Hash, buf *Buffer) error {
	size := buf.SizeBytes()
	if size > c.cfg.MaxMemoryBytes {
		c.mu.Lock()
		c.rejections++
		c.mu.Unlock()
		return ErrCacheEntryTooLarge
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	if e, ok := c.entries[hash]; ok {
		// Refresh in place.
		c.totalBytes += size - e.size
		e.buf = buf.Clone()
		e.size = size
		e.lastAccess = now
		c.moveToFront(e)
		c.evictOverBudget(0, 0)
		return nil
	}

	c.evictOverBudget(1, size)

	e := &cacheEntry{
		hash:       hash,
		buf:        buf.Clone(),
		size:       size,
		lastAccess: now,
	}
	c.entries[hash] = e
	c.pushFront(e)
	c.totalBytes += size
	return nil
}

// evictOverBudget evicts from the list tail until the pending insertion
// (extra entries, extra bytes) fits within both budgets. Tail order is
// strict LRU by last access; entries that share a timestamp sit in
// insertion order, oldest nearest the tail.
func (c *ResultCache) evictOverBudget(extraCount, extraBytes int) {
	for len(c.entries) > 0 &&
		(len(c.entries)+extraCount > c.cfg.MaxEntries ||
			c.totalBytes+extraBytes > c.cfg.MaxMemoryBytes) {
		oldest := c.tail.prev
		if oldest == &c.head {
			break
		}
		c.remove(oldest)
		c.evictions++
	}
}

// SweepExpired proactively removes TTL-expired entries and returns the
// count removed. Intended to be invoked every N frames, not every frame.
func (c *ResultCache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	removed := 0
	for e := c.tail.prev; e != &c.head; {
		prev := e.prev
		if now.Sub(e.lastAccess) > c.cfg.TTL {
			c.remove(e)
			c.expirations++
			removed++
		}
		e = prev
	}
	return removed
}

// Clear removes all entries.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.head.next = &c.tail
	c.tail.prev = &c.head
	c.totalBytes = 0
}

// Len returns the current entry count.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// MemoryBytes returns the tracked total of all entry sizes.
func (c *ResultCache) MemoryBytes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalBytes
}

// CacheStats is a point-in-time snapshot of cache counters.
type CacheStats struct {
	Hits        uint64
	Misses      uint64
	HitRate     float64
	Evictions   uint64
	Expirations uint64
	Rejections  uint64
	Entries     int
	MemoryBytes int
	MemoryMax   int
}

// Stats returns a consistent snapshot of the cache counters.
func (c *ResultCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := CacheStats{
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
		Rejections:  c.rejections,
		Entries:     len(c.entries),
		MemoryBytes: c.totalBytes,
		MemoryMax:   c.cfg.MaxMemoryBytes,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// --- intrusive list ---

func (c *ResultCache) pushFront(e *cacheEntry) {
	e.prev = &c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *ResultCache) unlink(e *cacheEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
}

func (c *ResultCache) moveToFront(e *cacheEntry) {
	if c.head.next == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

// remove unlinks e and drops it from the map, keeping the byte total in
// step. Accounting drift here would be a programming bug, not a runtime
// condition.
func (c *ResultCache) remove(e *cacheEntry) {
	c.unlink(e)
	delete(c.entries, e.hash)
	c.totalBytes -= e.size
	if c.totalBytes < 0 {
		panic("rowan: cache memory accounting went negative")
	}
}
