package rowan

import "errors"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default fill (no tint).
var ColorWhite = Color{1, 1, 1, 1}

// ColorTransparent is fully transparent black.
var ColorTransparent = Color{}

// colorPlaceholder marks nodes whose backend draw failed. Magenta, so broken
// content is obvious on screen while the node retries next frame.
var colorPlaceholder = Color{1, 0, 1, 1}

// Rect is an axis-aligned rectangle in the virtual coordinate space. The
// origin is at the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// NodeKind distinguishes rendering behavior for a node. The set is closed:
// render dispatch switches over it exhaustively.
type NodeKind uint8

const (
	KindContainer NodeKind = iota // group node with no visual output
	KindText                      // renders a text string
	KindImage                     // renders a referenced image
	KindRect                      // solid/bordered rectangle (batchable)
	KindCircle                    // solid/bordered circle
	KindLine                      // line from layout top-left to bottom-right
	KindGrid                      // rows × cols cell grid
	KindButton                    // labeled rectangle
)

// numNodeKinds is the number of NodeKind values. Batch lists are indexed by kind.
const numNodeKinds = 8

// String returns the serialized name of the kind, as used by tree snapshots.
func (k NodeKind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindRect:
		return "rect"
	case KindCircle:
		return "circle"
	case KindLine:
		return "line"
	case KindGrid:
		return "grid"
	case KindButton:
		return "button"
	default:
		return "unknown"
	}
}

// kindFromString is the inverse of NodeKind.String. Returns KindContainer
// and false for unrecognized names.
func kindFromString(s string) (NodeKind, bool) {
	switch s {
	case "container":
		return KindContainer, true
	case "text":
		return KindText, true
	case "image":
		return KindImage, true
	case "rect":
		return KindRect, true
	case "circle":
		return KindCircle, true
	case "line":
		return KindLine, true
	case "grid":
		return KindGrid, true
	case "button":
		return KindButton, true
	default:
		return KindContainer, false
	}
}

// TextAlign controls horizontal text alignment.
type TextAlign uint8

const (
	TextAlignLeft   TextAlign = iota // align text to the left edge (default)
	TextAlignCenter                  // center text horizontally
	TextAlignRight                   // align text to the right edge
)

// EffectKind selects a frame transition effect.
type EffectKind uint8

const (
	EffectCrossFade EffectKind = iota // alpha-blend old and new frames by progress
	EffectSlide                       // new frame slides in from the right
	EffectZoom                        // new frame scales up from the center
)

// EventKind identifies a kind of backend input event.
type EventKind uint8

const (
	EventPointerDown EventKind = iota // pointer button pressed
	EventPointerUp                    // pointer button released
	EventPointerMove                  // pointer moved
	EventKey                          // key pressed
	EventQuit                         // backend close request
)

// Event is a single input event polled from a backend.
type Event struct {
	Kind EventKind
	X, Y float64
	Key  string
}

// Sentinel errors. Caller bugs in tree manipulation (nil IDs passed where a
// node is required, cycles) panic instead, matching the rest of the API.
var (
	// ErrNodeNotFound is returned by store operations that reference a stale
	// or unknown NodeID. The operation is a no-op.
	ErrNodeNotFound = errors.New("rowan: node not found")

	// ErrCacheEntryTooLarge is returned by ResultCache.Put when a single
	// buffer exceeds the cache's whole memory budget. The put is rejected;
	// rendering proceeds uncached for that node.
	ErrCacheEntryTooLarge = errors.New("rowan: cache entry exceeds memory budget")

	// ErrBackendInit is returned when a backend (or every backend in a
	// fallback chain) fails to initialize.
	ErrBackendInit = errors.New("rowan: backend initialization failed")

	// ErrBackendDraw is returned by backends for a failed primitive draw.
	// The renderer skips that primitive for the frame and leaves the node
	// dirty so it retries next frame.
	ErrBackendDraw = errors.New("rowan: backend draw failed")
)
