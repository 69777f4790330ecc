package rowan

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// EbitenBackend is the primary interactive backend. Rasterization goes
// through the shared software raster into CPU buffers (so the cache and
// pool see identical bytes in every backend); ebiten contributes the
// window, input polling, and presentation of the composited frame.
type EbitenBackend struct {
	raster  raster
	width   int
	height  int
	running bool

	frame      *Buffer // last presented frame, uploaded in flushTo
	compactPix []byte  // stride-compacted upload scratch
	events     []Event
}

// NewEbitenBackend creates an uninitialized ebiten backend.
func NewEbitenBackend() *EbitenBackend {
	return &EbitenBackend{}
}

func (b *EbitenBackend) Initialize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: ebiten surface %dx%d", ErrBackendInit, width, height)
	}
	b.width, b.height = width, height
	b.running = true
	return nil
}

func (b *EbitenBackend) Clear(c Color) {
	if b.frame != nil {
		b.frame.Fill(c)
	}
}

func (b *EbitenBackend) DrawRect(dst *Buffer, r Rect, style ResolvedStyle) error {
	b.raster.rect(dst, r, style)
	return nil
}

func (b *EbitenBackend) DrawRects(dst *Buffer, rs []Rect, style ResolvedStyle) error {
	for _, r := range rs {
		b.raster.rect(dst, r, style)
	}
	return nil
}

func (b *EbitenBackend) DrawCircle(dst *Buffer, cx, cy, radius float64, style ResolvedStyle) error {
	b.raster.circle(dst, cx, cy, radius, style)
	return nil
}

func (b *EbitenBackend) DrawLine(dst *Buffer, x1, y1, x2, y2 float64, style ResolvedStyle) error {
	b.raster.line(dst, x1, y1, x2, y2, style)
	return nil
}

func (b *EbitenBackend) DrawText(dst *Buffer, text string, r Rect, style ResolvedStyle) error {
	b.raster.text(dst, text, r, style)
	return nil
}

func (b *EbitenBackend) DrawImage(dst *Buffer, ref string, r Rect, style ResolvedStyle) error {
	b.raster.image(dst, ref, r, style)
	return nil
}

// Present records the frame for upload on the next ebiten draw tick.
func (b *EbitenBackend) Present(frame *Buffer) error {
	b.frame = frame
	return nil
}

// pollInput translates ebiten input state into engine events. Called from
// the game's Update.
func (b *EbitenBackend) pollInput() {
	x, y := ebiten.CursorPosition()
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		b.events = append(b.events, Event{Kind: EventPointerDown, X: float64(x), Y: float64(y)})
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		b.events = append(b.events, Event{Kind: EventPointerUp, X: float64(x), Y: float64(y)})
	}
	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		b.events = append(b.events, Event{Kind: EventKey, Key: k.String()})
	}
}

func (b *EbitenBackend) ProcessEvents() []Event {
	if len(b.events) == 0 {
		return nil
	}
	out := b.events
	b.events = nil
	return out
}

func (b *EbitenBackend) IsRunning() bool {
	return b.running
}

func (b *EbitenBackend) Shutdown() {
	b.running = false
}

// flushTo uploads the last presented frame to the screen image. Buffer rows
// are 4-byte aligned, so a compaction pass runs only when the stride
// actually carries padding.
func (b *EbitenBackend) flushTo(screen *ebiten.Image) {
	f := b.frame
	if f == nil || f.Format != FormatRGBA {
		return
	}
	pix := f.Pix
	if f.Stride != f.Width*4 {
		need := f.Width * f.Height * 4
		if cap(b.compactPix) < need {
			b.compactPix = make([]byte, need)
		}
		b.compactPix = b.compactPix[:need]
		for y := 0; y < f.Height; y++ {
			copy(b.compactPix[y*f.Width*4:], f.Pix[y*f.Stride:y*f.Stride+f.Width*4])
		}
		pix = b.compactPix
	}
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	if w == f.Width && h == f.Height {
		screen.WritePixels(pix)
	}
}

// RunConfig configures the Run game loop.
type RunConfig struct {
	Title  string
	Width  int
	Height int
	Debug  bool

	// OnFrame, when set, runs at the start of every update tick with the
	// events polled since the last tick. Mutate the store here.
	OnFrame func(store *Store, events []Event)
}

type game struct {
	engine  *Engine
	store   *Store
	root    NodeID
	theme   *Theme
	backend *EbitenBackend
	cfg     RunConfig
}

func (g *game) Update() error {
	g.backend.pollInput()
	if g.cfg.OnFrame != nil {
		g.cfg.OnFrame(g.store, g.backend.ProcessEvents())
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if err := g.engine.RenderFrame(g.store, g.root, g.theme, g.backend); err != nil {
		return
	}
	g.backend.flushTo(screen)
	if g.cfg.Debug {
		s := g.engine.GetStats()
		ebitenutil.DebugPrint(screen, fmt.Sprintf(
			"FPS: %.1f\nhit rate: %.0f%%  reuse: %.0f%%  q: %.2f",
			ebiten.ActualFPS(), s.HitRate*100, s.ReuseRate*100, s.QualityScale))
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}

// Run opens a window and drives the frame loop until the window closes:
// poll events, apply mutations, render the dirty subtree, flush batches,
// present, sleep to the target frame interval (ebiten's scheduler).
func Run(engine *Engine, store *Store, root NodeID, theme *Theme, cfg RunConfig) error {
	if cfg.Width <= 0 {
		cfg.Width = 640
	}
	if cfg.Height <= 0 {
		cfg.Height = 480
	}
	backend := NewEbitenBackend()
	if err := backend.Initialize(cfg.Width, cfg.Height); err != nil {
		return err
	}
	engine.Resize(cfg.Width, cfg.Height)
	engine.SetDebugMode(cfg.Debug)

	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)

	defer backend.Shutdown()
	return ebiten.RunGame(&game{
		engine:  engine,
		store:   store,
		root:    root,
		theme:   theme,
		backend: backend,
		cfg:     cfg,
	})
}
