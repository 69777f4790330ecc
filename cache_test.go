package rowan

import (
	"errors"
	"testing"
	"time"
)

func testHash(b byte) Hash {
	var h Hash
	h[0] = b
	return h
}

// fixedClock returns a clock stuck at t, advanced by calling the returned
// shift function.
func fixedClock(start time.Time) (clock func() time.Time, shift func(time.Duration)) {
	now := start
	return func() time.Time { return now },
		func(d time.Duration) { now = now.Add(d) }
}

func TestCacheGetMiss(t *testing.T) {
	c := NewResultCache(CacheConfig{})
	if c.Get(testHash(1)) != nil {
		t.Error("empty cache should miss")
	}
	if s := c.Stats(); s.Misses != 1 || s.Hits != 0 {
		t.Errorf("stats = %+v, want 1 miss", s)
	}
}

func TestCachePutGetRoundTrip(t *testing.T) {
	c := NewResultCache(CacheConfig{})
	buf := NewBuffer(4, 4, FormatRGBA)
	buf.Fill(Color{1, 0, 0, 1})

	if err := c.Put(testHash(1), buf); err != nil {
		t.Fatal(err)
	}
	got := c.Get(testHash(1))
	if got == nil {
		t.Fatal("expected hit")
	}
	if got.Pix[0] != 255 || got.Pix[1] != 0 {
		t.Error("cached pixels do not match")
	}
	if c.MemoryBytes() != buf.SizeBytes() {
		t.Errorf("MemoryBytes = %d, want %d", c.MemoryBytes(), buf.SizeBytes())
	}
}

func TestCacheCopiesOnPutAndGet(t *testing.T) {
	c := NewResultCache(CacheConfig{})
	buf := NewBuffer(2, 2, FormatRGBA)
	buf.Fill(ColorWhite)
	if err := c.Put(testHash(1), buf); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's buffer after Put must not reach the cache.
	buf.Fill(Color{0, 0, 0, 1})
	got := c.Get(testHash(1))
	if got.Pix[0] != 255 {
		t.Error("Put should have stored a copy")
	}

	// Mutating the returned buffer must not reach the cache either.
	got.Fill(Color{0, 0, 0, 1})
	again := c.Get(testHash(1))
	if again.Pix[0] != 255 {
		t.Error("Get should have returned a copy")
	}
}

func TestCacheEntryCountEviction(t *testing.T) {
	c := NewResultCache(CacheConfig{MaxEntries: 2})
	buf := NewBuffer(2, 2, FormatRGBA)

	for i := byte(1); i <= 3; i++ {
		if err := c.Put(testHash(i), buf); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	// Oldest entry (1) was evicted; 2 and 3 remain.
	if c.Get(testHash(1)) != nil {
		t.Error("oldest entry should have been evicted")
	}
	if c.Get(testHash(2)) == nil || c.Get(testHash(3)) == nil {
		t.Error("newer entries should have survived")
	}
	if s := c.Stats(); s.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", s.Evictions)
	}
}

func TestCacheGetRefreshesLRUOrder(t *testing.T) {
	c := NewResultCache(CacheConfig{MaxEntries: 2})
	buf := NewBuffer(2, 2, FormatRGBA)
	_ = c.Put(testHash(1), buf)
	_ = c.Put(testHash(2), buf)

	// Touch 1 so 2 becomes the eviction candidate.
	if c.Get(testHash(1)) == nil {
		t.Fatal("expected hit")
	}
	_ = c.Put(testHash(3), buf)

	if c.Get(testHash(2)) != nil {
		t.Error("least recently used entry (2) should have been evicted")
	}
	if c.Get(testHash(1)) == nil {
		t.Error("recently read entry should have survived")
	}
}

func TestCacheEvictionTieBreakIsInsertionOrder(t *testing.T) {
	// A frozen clock gives every entry the same lastAccess; eviction must
	// then fall back to insertion order, oldest first.
	c := NewResultCache(CacheConfig{MaxEntries: 3})
	clock, _ := fixedClock(time.Now())
	c.clock = clock
	buf := NewBuffer(2, 2, FormatRGBA)

	for i := byte(1); i <= 3; i++ {
		_ = c.Put(testHash(i), buf)
	}
	_ = c.Put(testHash(4), buf)
	if c.Get(testHash(1)) != nil {
		t.Error("with equal timestamps the earliest insertion should evict first")
	}
}

func TestCacheMemoryBudgetEviction(t *testing.T) {
	small := NewBuffer(10, 10, FormatRGBA) // 400 bytes
	c := NewResultCache(CacheConfig{MaxEntries: 100, MaxMemoryBytes: 1000})

	_ = c.Put(testHash(1), small)
	_ = c.Put(testHash(2), small)
	if c.Len() != 2 || c.MemoryBytes() != 800 {
		t.Fatalf("Len=%d mem=%d, want 2/800", c.Len(), c.MemoryBytes())
	}

	// Third buffer would total 1200 bytes: the oldest entry must go first.
	_ = c.Put(testHash(3), small)
	if c.Len() != 2 || c.MemoryBytes() != 800 {
		t.Errorf("Len=%d mem=%d after budget eviction, want 2/800", c.Len(), c.MemoryBytes())
	}
	if c.Get(testHash(1)) != nil {
		t.Error("oldest entry should have been evicted for the byte budget")
	}
}

func TestCacheRejectsOversizedEntry(t *testing.T) {
	// A 64x64 RGBA buffer is 16384 bytes; the budget is 10000.
	c := NewResultCache(CacheConfig{MaxEntries: 100, MaxMemoryBytes: 10000})
	_ = c.Put(testHash(1), NewBuffer(10, 10, FormatRGBA))

	big := NewBuffer(64, 64, FormatRGBA)
	err := c.Put(testHash(2), big)
	if !errors.Is(err, ErrCacheEntryTooLarge) {
		t.Fatalf("err = %v, want ErrCacheEntryTooLarge", err)
	}
	// Rejection must not have evicted anything.
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	if c.Get(testHash(1)) == nil {
		t.Error("existing entry should be untouched by a rejected put")
	}
	if s := c.Stats(); s.Rejections != 1 {
		t.Errorf("Rejections = %d, want 1", s.Rejections)
	}
}

func TestCacheOversizedIntoEmptyCache(t *testing.T) {
	c := NewResultCache(CacheConfig{MaxEntries: 100, MaxMemoryBytes: 10 << 10})
	err := c.Put(testHash(1), NewBuffer(64, 64, FormatRGBA))
	if !errors.Is(err, ErrCacheEntryTooLarge) {
		t.Fatalf("err = %v, want ErrCacheEntryTooLarge", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestCacheBoundsHoldUnderMixedOps(t *testing.T) {
	cfg := CacheConfig{MaxEntries: 8, MaxMemoryBytes: 4096}
	c := NewResultCache(cfg)

	check := func(step int) {
		t.Helper()
		if n := c.Len(); n > cfg.MaxEntries {
			t.Fatalf("step %d: Len = %d exceeds MaxEntries %d", step, n, cfg.MaxEntries)
		}
		if m := c.MemoryBytes(); m > cfg.MaxMemoryBytes {
			t.Fatalf("step %d: MemoryBytes = %d exceeds budget %d", step, m, cfg.MaxMemoryBytes)
		}
	}

	// A deterministic mix of inserts (varying shapes), refreshes, and reads.
	for i := 0; i < 200; i++ {
		w := 4 + (i*7)%24
		h := 4 + (i*5)%16
		_ = c.Put(testHash(byte(i%32)), NewBuffer(w, h, FormatRGBA))
		check(i)
		if buf := c.Get(testHash(byte((i * 3) % 32))); buf != nil {
			buf.Clear()
		}
		check(i)
	}
}

func TestCacheTTLExpiryOnGet(t *testing.T) {
	c := NewResultCache(CacheConfig{TTL: time.Minute})
	clock, shift := fixedClock(time.Now())
	c.clock = clock

	_ = c.Put(testHash(1), NewBuffer(2, 2, FormatRGBA))

	shift(59 * time.Second)
	if c.Get(testHash(1)) == nil {
		t.Fatal("entry inside TTL should hit")
	}
	// The hit refreshed lastAccess, so another 59s stays fresh.
	shift(59 * time.Second)
	if c.Get(testHash(1)) == nil {
		t.Fatal("access should have refreshed the TTL")
	}

	shift(61 * time.Second)
	if c.Get(testHash(1)) != nil {
		t.Error("stale entry should miss")
	}
	s := c.Stats()
	if s.Expirations != 1 {
		t.Errorf("Expirations = %d, want 1", s.Expirations)
	}
	if c.Len() != 0 || c.MemoryBytes() != 0 {
		t.Errorf("expired entry should be fully removed, Len=%d mem=%d", c.Len(), c.MemoryBytes())
	}
}

func TestCacheSweepExpired(t *testing.T) {
	c := NewResultCache(CacheConfig{TTL: time.Minute})
	clock, shift := fixedClock(time.Now())
	c.clock = clock

	buf := NewBuffer(2, 2, FormatRGBA)
	_ = c.Put(testHash(1), buf)
	_ = c.Put(testHash(2), buf)
	shift(2 * time.Minute)
	_ = c.Put(testHash(3), buf)

	if removed := c.SweepExpired(); removed != 2 {
		t.Errorf("SweepExpired removed %d, want 2", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	if c.Get(testHash(3)) == nil {
		t.Error("fresh entry should survive the sweep")
	}
}

func TestCachePutRefreshExistingKey(t *testing.T) {
	c := NewResultCache(CacheConfig{})
	a := NewBuffer(2, 2, FormatRGBA)
	a.Fill(ColorWhite)
	b := NewBuffer(4, 4, FormatRGBA)
	b.Fill(Color{0, 0, 1, 1})

	_ = c.Put(testHash(1), a)
	_ = c.Put(testHash(1), b)

	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
	if c.MemoryBytes() != b.SizeBytes() {
		t.Errorf("MemoryBytes = %d, want %d after refresh", c.MemoryBytes(), b.SizeBytes())
	}
	got := c.Get(testHash(1))
	if got.Width != 4 {
		t.Error("refresh should have replaced the stored buffer")
	}
}

func TestCacheClear(t *testing.T) {
	c := NewResultCache(CacheConfig{})
	_ = c.Put(testHash(1), NewBuffer(2, 2, FormatRGBA))
	c.Clear()
	if c.Len() != 0 || c.MemoryBytes() != 0 {
		t.Errorf("Clear left Len=%d mem=%d", c.Len(), c.MemoryBytes())
	}
	if c.Get(testHash(1)) != nil {
		t.Error("cleared cache should miss")
	}
}

func TestCacheHitRate(t *testing.T) {
	c := NewResultCache(CacheConfig{})
	_ = c.Put(testHash(1), NewBuffer(2, 2, FormatRGBA))
	c.Get(testHash(1))
	c.Get(testHash(1))
	c.Get(testHash(9))
	c.Get(testHash(9))

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 2 {
		t.Fatalf("hits=%d misses=%d, want 2/2", s.Hits, s.Misses)
	}
	if s.HitRate != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", s.HitRate)
	}
}
