package rowan

import (
	"fmt"
	"hash/fnv"
	"math"
)

// Backend is the pixel-producing collaborator. The engine never draws
// pixels itself; it decides what to (re)draw, hands pooled buffers to the
// backend's primitives, and gives the composited frame to Present.
//
// Draw methods rasterize into dst and return ErrBackendDraw-wrapped errors
// on failure; a failed primitive is skipped for the frame and its node
// stays dirty.
type Backend interface {
	Initialize(width, height int) error
	Clear(c Color)
	DrawRect(dst *Buffer, r Rect, style ResolvedStyle) error
	DrawRects(dst *Buffer, rs []Rect, style ResolvedStyle) error
	DrawCircle(dst *Buffer, cx, cy, radius float64, style ResolvedStyle) error
	DrawLine(dst *Buffer, x1, y1, x2, y2 float64, style ResolvedStyle) error
	DrawText(dst *Buffer, text string, r Rect, style ResolvedStyle) error
	DrawImage(dst *Buffer, ref string, r Rect, style ResolvedStyle) error
	Present(frame *Buffer) error
	ProcessEvents() []Event
	IsRunning() bool
	Shutdown()
}

// OpenBackend initializes backends in order and returns the first that
// succeeds, forming the fallback chain: interactive first, headless last. If every
// backend fails the error wraps ErrBackendInit.
func OpenBackend(width, height int, backends ...Backend) (Backend, error) {
	var lastErr error
	for _, b := range backends {
		if err := b.Initialize(width, height); err != nil {
			lastErr = err
			continue
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: all %d backends failed (last: %v)",
		ErrBackendInit, len(backends), lastErr)
}

// --- Software rasterizer ---

// raster draws primitives into CPU buffers. Both the headless and the
// ebiten backends rasterize through it; the ebiten backend adds windowing,
// input, and presentation on top.
type raster struct{}

func styledColor(c Color, opacity float64) Color {
	c.A *= opacity
	return c
}

func (raster) rect(dst *Buffer, r Rect, style ResolvedStyle) {
	dst.FillRect(r, styledColor(style.Fill, style.Opacity))
	if bw := style.BorderWidth; bw > 0 && style.Border.A > 0 {
		bc := styledColor(style.Border, style.Opacity)
		dst.FillRect(Rect{r.X, r.Y, r.Width, bw}, bc)
		dst.FillRect(Rect{r.X, r.Y + r.Height - bw, r.Width, bw}, bc)
		dst.FillRect(Rect{r.X, r.Y, bw, r.Height}, bc)
		dst.FillRect(Rect{r.X + r.Width - bw, r.Y, bw, r.Height}, bc)
	}
}

func (raster) circle(dst *Buffer, cx, cy, radius float64, style ResolvedStyle) {
	if radius <= 0 || dst.Format != FormatRGBA {
		return
	}
	c := styledColor(style.Fill, style.Opacity)
	x0, y0, x1, y1 := clipRect(Rect{cx - radius, cy - radius, 2 * radius, 2 * radius}, dst.Width, dst.Height)
	rr := radius * radius
	cr, cg, cb, ca := clampByte(c.R), clampByte(c.G), clampByte(c.B), clampByte(c.A)
	for y := y0; y < y1; y++ {
		dy := float64(y) + 0.5 - cy
		row := dst.Pix[y*dst.Stride:]
		for x := x0; x < x1; x++ {
			dx := float64(x) + 0.5 - cx
			if dx*dx+dy*dy > rr {
				continue
			}
			i := x * 4
			row[i] = cr
			row[i+1] = cg
			row[i+2] = cb
			row[i+3] = ca
		}
	}
}

func (raster) line(dst *Buffer, x1, y1, x2, y2 float64, style ResolvedStyle) {
	if dst.Format != FormatRGBA {
		return
	}
	c := styledColor(style.Fill, style.Opacity)
	cr, cg, cb, ca := clampByte(c.R), clampByte(c.G), clampByte(c.B), clampByte(c.A)
	// Bresenham on pixel centers.
	ix1, iy1 := int(math.Round(x1)), int(math.Round(y1))
	ix2, iy2 := int(math.Round(x2)), int(math.Round(y2))
	dx := abs(ix2 - ix1)
	dy := -abs(iy2 - iy1)
	sx, sy := 1, 1
	if ix1 > ix2 {
		sx = -1
	}
	if iy1 > iy2 {
		sy = -1
	}
	err := dx + dy
	for {
		if ix1 >= 0 && ix1 < dst.Width && iy1 >= 0 && iy1 < dst.Height {
			i := iy1*dst.Stride + ix1*4
			dst.Pix[i] = cr
			dst.Pix[i+1] = cg
			dst.Pix[i+2] = cb
			dst.Pix[i+3] = ca
		}
		if ix1 == ix2 && iy1 == iy2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			ix1 += sx
		}
		if e2 <= dx {
			err += dx
			iy1 += sy
		}
	}
}

// text draws one block per character, with block height varied by the
// character value. Real glyph rasterization lives outside the engine; this
// stand-in is deterministic in the text content, which is what cache and
// snapshot tests need.
func (raster) text(dst *Buffer, text string, r Rect, style ResolvedStyle) {
	c := styledColor(style.Fill, style.Opacity)
	adv := style.FontSize * 0.6
	if adv < 1 {
		adv = 1
	}
	total := adv * float64(len(text))
	x := r.X
	switch style.Align {
	case TextAlignCenter:
		x += (r.Width - total) / 2
	case TextAlignRight:
		x += r.Width - total
	}
	for _, ch := range []byte(text) {
		h := style.FontSize * (0.5 + float64(ch%32)/64)
		dst.FillRect(Rect{x, r.Y + (r.Height-h)/2, adv * 0.8, h}, c)
		x += adv
		if x > r.X+r.Width {
			break
		}
	}
}

// image fills the rect with a checker pattern seeded by the reference, so
// distinct refs render distinct pixels without an asset loader.
func (raster) image(dst *Buffer, ref string, r Rect, style ResolvedStyle) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ref))
	seed := h.Sum32()
	a := Color{
		R: float64(seed&0xff) / 255,
		G: float64(seed>>8&0xff) / 255,
		B: float64(seed>>16&0xff) / 255,
		A: style.Opacity,
	}
	b := Color{R: a.R * 0.5, G: a.G * 0.5, B: a.B * 0.5, A: style.Opacity}
	const cell = 8.0
	for y := 0.0; y < r.Height; y += cell {
		for x := 0.0; x < r.Width; x += cell {
			c := a
			if (int(x/cell)+int(y/cell))%2 == 1 {
				c = b
			}
			dst.FillRect(Rect{
				r.X + x, r.Y + y,
				math.Min(cell, r.Width-x), math.Min(cell, r.Height-y),
			}, c)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// --- Headless backend ---

// DrawCall records one backend invocation for inspection in tests.
type DrawCall struct {
	Op    string // "clear", "rect", "rects", "circle", "line", "text", "image", "present"
	Rect  Rect
	Count int
	Text  string
	Ref   string
	Style ResolvedStyle
}

// HeadlessBackend rasterizes into CPU buffers and records every call
// without presenting anything. It is the last link of the fallback chain
// and the workhorse for tests and server-side rendering.
type HeadlessBackend struct {
	raster  raster
	calls   []DrawCall
	queue   []Event
	running bool
	width   int
	height  int

	// drawErr, when set, is returned by every draw method. Tests use it to
	// exercise the per-node failure path.
	drawErr error
}

// NewHeadlessBackend creates an uninitialized headless backend.
func NewHeadlessBackend() *HeadlessBackend {
	return &HeadlessBackend{}
}

func (h *HeadlessBackend) Initialize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: headless surface %dx%d", ErrBackendInit, width, height)
	}
	h.width, h.height = width, height
	h.running = true
	return nil
}

func (h *HeadlessBackend) Clear(c Color) {
	h.calls = append(h.calls, DrawCall{Op: "clear"})
}

func (h *HeadlessBackend) DrawRect(dst *Buffer, r Rect, style ResolvedStyle) error {
	if h.drawErr != nil {
		return h.drawErr
	}
	h.raster.rect(dst, r, style)
	h.calls = append(h.calls, DrawCall{Op: "rect", Rect: r, Count: 1, Style: style})
	return nil
}

func (h *HeadlessBackend) DrawRects(dst *Buffer, rs []Rect, style ResolvedStyle) error {
	if h.drawErr != nil {
		return h.drawErr
	}
	for _, r := range rs {
		h.raster.rect(dst, r, style)
	}
	h.calls = append(h.calls, DrawCall{Op: "rects", Count: len(rs), Style: style})
	return nil
}

func (h *HeadlessBackend) DrawCircle(dst *Buffer, cx, cy, radius float64, style ResolvedStyle) error {
	if h.drawErr != nil {
		return h.drawErr
	}
	h.raster.circle(dst, cx, cy, radius, style)
	h.calls = append(h.calls, DrawCall{Op: "circle", Count: 1, Style: style})
	return nil
}

func (h *HeadlessBackend) DrawLine(dst *Buffer, x1, y1, x2, y2 float64, style ResolvedStyle) error {
	if h.drawErr != nil {
		return h.drawErr
	}
	h.raster.line(dst, x1, y1, x2, y2, style)
	h.calls = append(h.calls, DrawCall{Op: "line", Count: 1, Style: style})
	return nil
}

func (h *HeadlessBackend) DrawText(dst *Buffer, text string, r Rect, style ResolvedStyle) error {
	if h.drawErr != nil {
		return h.drawErr
	}
	h.raster.text(dst, text, r, style)
	h.calls = append(h.calls, DrawCall{Op: "text", Rect: r, Count: 1, Text: text, Style: style})
	return nil
}

func (h *HeadlessBackend) DrawImage(dst *Buffer, ref string, r Rect, style ResolvedStyle) error {
	if h.drawErr != nil {
		return h.drawErr
	}
	h.raster.image(dst, ref, r, style)
	h.calls = append(h.calls, DrawCall{Op: "image", Rect: r, Count: 1, Ref: ref, Style: style})
	return nil
}

func (h *HeadlessBackend) Present(frame *Buffer) error {
	h.calls = append(h.calls, DrawCall{Op: "present", Count: 1})
	return nil
}

// Inject queues an event for the next ProcessEvents poll.
func (h *HeadlessBackend) Inject(ev Event) {
	h.queue = append(h.queue, ev)
	if ev.Kind == EventQuit {
		h.running = false
	}
}

func (h *HeadlessBackend) ProcessEvents() []Event {
	if len(h.queue) == 0 {
		return nil
	}
	out := h.queue
	h.queue = nil
	return out
}

func (h *HeadlessBackend) IsRunning() bool {
	return h.running
}

func (h *HeadlessBackend) Shutdown() {
	h.running = false
}

// Calls returns the recorded draw calls. The slice MUST NOT be mutated.
func (h *HeadlessBackend) Calls() []DrawCall {
	return h.calls
}

// ResetCalls clears the recorded call list.
func (h *HeadlessBackend) ResetCalls() {
	h.calls = h.calls[:0]
}
