package rowan

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Engine is the render context: it owns the result cache, buffer pool,
// batcher, and transition engine, and drives the per-frame data flow.
// Lifecycle is owned by the caller; there is no process-global renderer.
//
// An Engine is exclusively driven by one frame loop. The cache and pool it
// owns are internally synchronized and may additionally be shared (e.g. a
// background warmer), but RenderFrame itself is single-caller.
type Engine struct {
	cache      *ResultCache
	pool       *BufferPool
	batcher    *Batcher
	transition *TransitionEngine

	width, height int
	work          *Buffer // composited at quality-scaled resolution
	upscaled      *Buffer // full-resolution output when quality < 1
	lastLive      *Buffer // most recent composited output (for transition capture)
	presented     bool

	// Adaptive quality: a control-loop response to sustained overrun, not a
	// per-operation timeout.
	qualityScale float64
	frameBudget  time.Duration
	frameTimes   [qualityWindow]time.Duration
	frameCursor  int
	frameSamples int

	sweepInterval uint64
	frameIndex    uint64
	lastFrameAt   time.Time

	framesRendered uint64
	framesSkipped  uint64
	drawFailures   uint64

	debug bool
	clock func() time.Time
}

const (
	qualityWindow   = 30
	minQualityScale = 0.5
	defaultBudget   = 16 * time.Millisecond
	defaultSweepN   = 300
)

// NewEngine creates an engine with the given cache and pool bounds. Call
// Resize before the first RenderFrame.
func NewEngine(cacheCfg CacheConfig, poolCfg PoolConfig) *Engine {
	pool := NewBufferPool(poolCfg)
	return &Engine{
		cache:         NewResultCache(cacheCfg),
		pool:          pool,
		batcher:       NewBatcher(),
		transition:    NewTransitionEngine(pool),
		qualityScale:  1,
		frameBudget:   defaultBudget,
		sweepInterval: defaultSweepN,
		clock:         time.Now,
	}
}

// Cache returns the engine's result cache.
func (e *Engine) Cache() *ResultCache { return e.cache }

// Pool returns the engine's buffer pool.
func (e *Engine) Pool() *BufferPool { return e.pool }

// Transition returns the engine's transition engine.
func (e *Engine) Transition() *TransitionEngine { return e.transition }

// QualityScale returns the current adaptive quality scale in
// [minQualityScale, 1].
func (e *Engine) QualityScale() float64 { return e.qualityScale }

// SetDebugMode enables per-frame timing logs to stderr.
func (e *Engine) SetDebugMode(enabled bool) { e.debug = enabled }

// SetFrameBudget sets the soft per-frame latency budget driving the
// adaptive quality valve.
func (e *Engine) SetFrameBudget(d time.Duration) {
	if d > 0 {
		e.frameBudget = d
	}
}

// Resize sets the output surface size. The composited frame buffers are
// rebuilt lazily on the next RenderFrame.
func (e *Engine) Resize(width, height int) {
	e.width, e.height = width, height
	e.presented = false
}

// StartTransition captures the last composited output and begins a
// transition to whatever the tree renders next. Starting while a transition
// is active overrides it.
func (e *Engine) StartTransition(effect EffectKind, duration float64, fn Easing) {
	var snapshot *Buffer
	if e.lastLive != nil {
		snapshot = e.lastLive.Clone()
	} else {
		snapshot = NewBuffer(e.width, e.height, FormatRGBA)
	}
	e.transition.Start(effect, duration, fn, snapshot)
}

// RenderFrame runs one frame: re-render the dirty subtree probing the cache
// per node, flush batches, composite, apply any active transition, and
// present. Within the frame, all dirty nodes render before batches flush,
// and all batches flush before presentation.
func (e *Engine) RenderFrame(store *Store, root NodeID, theme *Theme, backend Backend) error {
	if e.width <= 0 || e.height <= 0 {
		return fmt.Errorf("%w: engine has no surface size (call Resize)", ErrBackendInit)
	}
	if store.lookup(root) == nil {
		return ErrNodeNotFound
	}

	now := e.clock()
	dt := 1.0 / 60
	if !e.lastFrameAt.IsZero() {
		dt = now.Sub(e.lastFrameAt).Seconds()
	}
	e.lastFrameAt = now
	e.frameIndex++

	var stats debugStats
	t0 := now

	dirty := store.NeedsRender(root)
	if dirty || !e.presented {
		e.ensureWork()
		e.work.Clear()

		e.renderNode(store, root, theme, backend, &stats)

		tFlush := e.clock()
		stats.renderTime = tFlush.Sub(t0)

		failed := e.batcher.Flush(e.work, backend)
		for _, id := range failed {
			store.markDirty(id)
			e.drawFailures++
		}
		stats.flushTime = e.clock().Sub(tFlush)
		e.framesRendered++
	} else {
		e.framesSkipped++
	}

	tComposite := e.clock()

	live := e.work
	if e.qualityScale < 1 {
		// Upscale the reduced-detail frame to full resolution for present.
		if e.upscaled == nil || e.upscaled.Width != e.width || e.upscaled.Height != e.height {
			e.upscaled = NewBuffer(e.width, e.height, FormatRGBA)
		}
		drawScaled(e.upscaled, e.work, Rect{0, 0, float64(e.width), float64(e.height)})
		live = e.upscaled
	}
	e.lastLive = live

	if e.transition.Active() {
		e.transition.Update(dt)
		live = e.transition.Apply(live)
	}
	stats.compositeTime = e.clock().Sub(tComposite)

	if err := backend.Present(live); err != nil {
		return err
	}
	e.presented = true

	if e.sweepInterval > 0 && e.frameIndex%e.sweepInterval == 0 {
		e.cache.SweepExpired()
	}

	frameTime := e.clock().Sub(t0)
	e.recordFrameTime(frameTime)
	if e.debug {
		stats.totalTime = frameTime
		e.debugLog(stats)
	}
	return nil
}

// ensureWork (re)builds the quality-scaled composite surface.
func (e *Engine) ensureWork() {
	w := int(math.Ceil(float64(e.width) * e.qualityScale))
	h := int(math.Ceil(float64(e.height) * e.qualityScale))
	if e.work != nil && e.work.Width == w && e.work.Height == h {
		return
	}
	e.work = NewBuffer(w, h, FormatRGBA)
	e.presented = false
}

// renderNode composites one node and recurses into its children. Parents
// paint before children; batchable kinds are queued and painted at flush,
// after all cached blits.
func (e *Engine) renderNode(store *Store, id NodeID, theme *Theme, backend Backend, stats *debugStats) {
	n := store.lookup(id)
	if n == nil {
		return
	}
	stats.nodeCount++
	resolved := theme.Resolve(n.Kind, n.Style)
	layout := e.scaleRect(n.Layout)

	switch n.Kind {
	case KindContainer:
		store.MarkClean(id)

	case KindRect, KindLine:
		// Cheap primitives skip the cache and go through combined dispatch.
		e.batcher.Add(n.Kind, batchItem{id: id, layout: layout, style: resolved})
		store.MarkClean(id)

	default:
		e.renderCached(store, n, layout, resolved, backend, stats)
	}

	for _, child := range n.children {
		e.renderNode(store, child, theme, backend, stats)
	}
}

// renderCached renders a cacheable node: probe the result cache by render
// hash; on a miss rasterize into a pooled buffer and insert. The cached
// copy (or fresh buffer) is blitted onto the composite surface.
func (e *Engine) renderCached(store *Store, n *Node, layout Rect, resolved ResolvedStyle, backend Backend, stats *debugStats) {
	w := int(math.Ceil(layout.Width))
	h := int(math.Ceil(layout.Height))
	if w <= 0 || h <= 0 {
		store.MarkClean(n.ID)
		return
	}

	key := e.cacheKey(store.hashFor(n))

	if buf := e.cache.Get(key); buf != nil {
		blitBuffer(e.work, buf, int(layout.X), int(layout.Y))
		e.pool.Release(buf)
		store.MarkClean(n.ID)
		stats.cacheHits++
		return
	}
	stats.cacheMisses++

	target := e.pool.Acquire(w, h, FormatRGBA)
	local := Rect{0, 0, float64(w), float64(h)}

	if err := e.drawNode(backend, target, n, local, resolved); err != nil {
		// Skip this primitive for the frame: placeholder pixels, node stays
		// dirty, retried next frame.
		target.FillRect(local, colorPlaceholder)
		blitBuffer(e.work, target, int(layout.X), int(layout.Y))
		e.pool.Release(target)
		e.drawFailures++
		return
	}

	// An oversized buffer is simply not cached; the render still lands.
	_ = e.cache.Put(key, target)

	blitBuffer(e.work, target, int(layout.X), int(layout.Y))
	e.pool.Release(target)
	store.MarkClean(n.ID)
}

// drawNode rasterizes a node's content at local origin into target.
func (e *Engine) drawNode(backend Backend, target *Buffer, n *Node, local Rect, resolved ResolvedStyle) error {
	switch n.Kind {
	case KindText:
		return backend.DrawText(target, n.Props.Text, local, resolved)
	case KindImage:
		return backend.DrawImage(target, n.Props.ImageRef, local, resolved)
	case KindCircle:
		r := min(local.Width, local.Height) / 2
		return backend.DrawCircle(target, local.Width/2, local.Height/2, r, resolved)
	case KindButton:
		if err := backend.DrawRect(target, local, resolved); err != nil {
			return err
		}
		return backend.DrawText(target, n.Props.Text, local, resolved)
	case KindGrid:
		return e.drawGrid(backend, target, n, local, resolved)
	default:
		return nil
	}
}

// drawGrid draws the cell separators of a rows × cols grid.
func (e *Engine) drawGrid(backend Backend, target *Buffer, n *Node, local Rect, resolved ResolvedStyle) error {
	cols, rows := n.Props.GridCols, n.Props.GridRows
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	for i := 0; i <= cols; i++ {
		x := local.Width * float64(i) / float64(cols)
		if err := backend.DrawLine(target, x, 0, x, local.Height, resolved); err != nil {
			return err
		}
	}
	for j := 0; j <= rows; j++ {
		y := local.Height * float64(j) / float64(rows)
		if err := backend.DrawLine(target, 0, y, local.Width, y, resolved); err != nil {
			return err
		}
	}
	return nil
}

// cacheKey folds the quality scale into the render hash so reduced-detail
// renders never serve full-detail frames (and vice versa).
func (e *Engine) cacheKey(h Hash) Hash {
	if e.qualityScale == 1 {
		return h
	}
	bits := math.Float64bits(e.qualityScale)
	var mix [8]byte
	binary.LittleEndian.PutUint64(mix[:], bits)
	for i := 0; i < 8; i++ {
		h[8+i] ^= mix[i]
	}
	return h
}

func (e *Engine) scaleRect(r Rect) Rect {
	if e.qualityScale == 1 {
		return r
	}
	s := e.qualityScale
	return Rect{r.X * s, r.Y * s, r.Width * s, r.Height * s}
}

// recordFrameTime feeds the adaptive quality control loop: sustained
// overrun of the frame budget lowers the quality scale; sustained headroom
// restores it.
func (e *Engine) recordFrameTime(d time.Duration) {
	e.frameTimes[e.frameCursor] = d
	e.frameCursor = (e.frameCursor + 1) % qualityWindow
	if e.frameSamples < qualityWindow {
		e.frameSamples++
		return
	}

	var sum time.Duration
	for _, t := range e.frameTimes {
		sum += t
	}
	avg := sum / qualityWindow

	switch {
	case avg > e.frameBudget && e.qualityScale > minQualityScale:
		e.qualityScale = math.Max(minQualityScale, e.qualityScale*0.8)
		e.frameSamples = 0
		e.presented = false // force a re-render at the new scale
	case avg < e.frameBudget/2 && e.qualityScale < 1:
		e.qualityScale = math.Min(1, e.qualityScale*1.25)
		e.frameSamples = 0
		e.presented = false
	}
}
