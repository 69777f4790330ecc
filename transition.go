package rowan

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Easing maps linear time progress to perceptual progress. Rowan uses the
// gween easing library; any ease.TweenFunc works.
type Easing = ease.TweenFunc

// The four stock easings.
var (
	EaseLinear    Easing = ease.Linear
	EaseInQuad    Easing = ease.InQuad
	EaseOutQuad   Easing = ease.OutQuad
	EaseInOutQuad Easing = ease.InOutQuad
)

// TransitionEngine cross-fades, slides, or zooms between two composited
// frames. While active, its composited output entirely replaces the normal
// batch-rendered frame; once progress reaches 1 it returns to idle and
// per-node rendering resumes.
//
// States: idle → active → idle. Starting a new transition while one is
// active overrides it: the in-flight transition is abandoned and its
// buffers are returned to the pool. Queueing is a possible future
// extension, not current behavior.
type TransitionEngine struct {
	pool   *BufferPool
	active bool

	effect   EffectKind
	tween    *gween.Tween
	from     *Buffer
	out      *Buffer
	progress float64
}

// NewTransitionEngine creates an idle transition engine that borrows its
// compositing buffers from pool.
func NewTransitionEngine(pool *BufferPool) *TransitionEngine {
	return &TransitionEngine{pool: pool}
}

// Active reports whether a transition is in flight.
func (t *TransitionEngine) Active() bool {
	return t.active
}

// Progress returns the eased progress in [0, 1]. Zero when idle.
func (t *TransitionEngine) Progress() float64 {
	return t.progress
}

// Start begins a transition from the given snapshot of the current
// composited output. The engine takes ownership of snapshot. A transition
// already in flight is overridden and its buffers discarded to the pool.
func (t *TransitionEngine) Start(effect EffectKind, duration float64, fn Easing, snapshot *Buffer) {
	if t.active {
		t.release()
	}
	if fn == nil {
		fn = EaseLinear
	}
	if duration <= 0 {
		duration = 0.001
	}
	t.effect = effect
	t.tween = gween.New(0, 1, float32(duration), fn)
	t.from = snapshot
	t.progress = 0
	t.active = true
}

// Update advances the transition clock by dt seconds. When raw progress
// reaches 1 the engine transitions back to idle.
func (t *TransitionEngine) Update(dt float64) {
	if !t.active {
		return
	}
	value, finished := t.tween.Update(float32(dt))
	t.progress = float64(value)
	if t.progress < 0 {
		t.progress = 0
	}
	if t.progress > 1 {
		t.progress = 1
	}
	if finished {
		t.progress = 1
		t.active = false
		t.release()
	}
}

// Apply composites the captured from-frame with the live frame according to
// the effect and current progress, returning the frame to present. The
// returned buffer is owned by the engine and valid until the next Apply.
// When idle, the live frame is returned unchanged.
func (t *TransitionEngine) Apply(live *Buffer) *Buffer {
	if !t.active || t.from == nil {
		return live
	}
	if t.from.Width != live.Width || t.from.Height != live.Height ||
		t.from.Format != live.Format {
		// The surface was resized mid-transition; nothing sensible to blend.
		return live
	}
	if t.out == nil || t.out.Width != live.Width || t.out.Height != live.Height {
		if t.out != nil {
			t.pool.Release(t.out)
		}
		t.out = t.pool.Acquire(live.Width, live.Height, live.Format)
	}

	switch t.effect {
	case EffectCrossFade:
		lerpBuffer(t.out, t.from, live, t.progress)
	case EffectSlide:
		copy(t.out.Pix, t.from.Pix)
		dx := int((1 - t.progress) * float64(live.Width))
		blitBuffer(t.out, live, dx, 0)
	case EffectZoom:
		copy(t.out.Pix, t.from.Pix)
		w := t.progress * float64(live.Width)
		h := t.progress * float64(live.Height)
		drawScaled(t.out, live, Rect{
			X:      (float64(live.Width) - w) / 2,
			Y:      (float64(live.Height) - h) / 2,
			Width:  w,
			Height: h,
		})
	}
	return t.out
}

// release returns the engine's buffers to the pool.
func (t *TransitionEngine) release() {
	if t.from != nil {
		t.pool.Release(t.from)
		t.from = nil
	}
	if t.out != nil {
		t.pool.Release(t.out)
		t.out = nil
	}
}
