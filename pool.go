package rowan

import "sync"

// PoolConfig bounds the buffer pool. Zero values select the defaults.
type PoolConfig struct {
	MaxPerShape int // free-list cap per (width, height, format) shape (default 8)
}

const defaultPoolMaxPerShape = 8

// shapeKey identifies a pool bucket. Exact-shape matching: render targets
// are sized to a node's layout, and reusing a larger buffer would change
// the cached output's dimensions.
type shapeKey struct {
	w, h   int
	format PixelFormat
}

// BufferPool is a reuse-by-shape allocator for scratch render targets.
// Per-frame allocation of pixel buffers is the dominant steady-state cost
// of a retained render loop; pooling amortizes it to near-zero after
// warm-up. Internally synchronized, like ResultCache.
type BufferPool struct {
	mu          sync.Mutex
	maxPerShape int
	free        map[shapeKey][]*Buffer

	allocations uint64
	reuses      uint64
	drops       uint64
}

// NewBufferPool creates a pool with the given per-shape cap.
func NewBufferPool(cfg PoolConfig) *BufferPool {
	if cfg.MaxPerShape <= 0 {
		cfg.MaxPerShape = defaultPoolMaxPerShape
	}
	return &BufferPool{
		maxPerShape: cfg.MaxPerShape,
		free:        make(map[shapeKey][]*Buffer),
	}
}

// Acquire returns a zeroed buffer of the exact shape, reusing a released
// buffer when the shape's free list is non-empty and allocating fresh
// otherwise.
func (p *BufferPool) Acquire(w, h int, format PixelFormat) *Buffer {
	key := shapeKey{w, h, format}

	p.mu.Lock()
	if stack := p.free[key]; len(stack) > 0 {
		buf := stack[len(stack)-1]
		stack[len(stack)-1] = nil
		p.free[key] = stack[:len(stack)-1]
		p.reuses++
		p.mu.Unlock()
		buf.Clear()
		return buf
	}
	p.allocations++
	p.mu.Unlock()

	return NewBuffer(w, h, format)
}

// Release returns a buffer to its shape's free list. Ownership transfers
// fully to the pool: the caller must not touch buf afterward. If the free
// list is already at the per-shape cap, the buffer is dropped for the GC
// to collect; not an error.
func (p *BufferPool) Release(buf *Buffer) {
	if buf == nil {
		return
	}
	key := shapeKey{buf.Width, buf.Height, buf.Format}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free[key]) >= p.maxPerShape {
		p.drops++
		return
	}
	p.free[key] = append(p.free[key], buf)
}

// FreeCount returns the number of pooled buffers for a shape.
func (p *BufferPool) FreeCount(w, h int, format PixelFormat) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free[shapeKey{w, h, format}])
}

// PoolStats is a point-in-time snapshot of pool counters.
type PoolStats struct {
	Allocations uint64
	Reuses      uint64
	ReuseRate   float64
	Drops       uint64
}

// Stats returns a consistent snapshot of the pool counters.
func (p *BufferPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := PoolStats{
		Allocations: p.allocations,
		Reuses:      p.reuses,
		Drops:       p.drops,
	}
	if total := s.Allocations + s.Reuses; total > 0 {
		s.ReuseRate = float64(s.Reuses) / float64(total)
	}
	return s
}
