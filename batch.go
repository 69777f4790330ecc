package rowan

// batchItem is one node queued for dispatch this frame. It carries copies of
// the fields dispatch needs, so flushing never re-reads the store.
type batchItem struct {
	id     NodeID
	layout Rect
	style  ResolvedStyle
	text   string
	image  string
}

// rectGroup collects same-style rectangles for one combined draw call.
type rectGroup struct {
	style ResolvedStyle
	rects []Rect
	ids   []NodeID
}

// Batcher groups dirty nodes of the same primitive kind for combined
// dispatch. Rectangles sharing an exact resolved style are issued as one
// combined draw call; kinds with no combined form (text, images, lines,
// circles) are dispatched individually, but inside the same flush pass so
// their relative order is preserved.
//
// A batch never carries state across frames: Flush fully drains every
// pending list. If Flush is never called, the queued nodes simply do not
// render this frame; they stay dirty and are re-queued next frame.
type Batcher struct {
	pending [numNodeKinds][]batchItem

	// Flush scratch, reused across frames.
	groups []rectGroup
}

// NewBatcher creates an empty batcher.
func NewBatcher() *Batcher {
	return &Batcher{}
}

// Add queues a node for dispatch, keyed by its primitive kind.
func (b *Batcher) Add(kind NodeKind, item batchItem) {
	b.pending[kind] = append(b.pending[kind], item)
}

// PendingCount returns the number of queued nodes for a kind.
func (b *Batcher) PendingCount(kind NodeKind) int {
	return len(b.pending[kind])
}

// Flush dispatches every queued node to the backend, drawing into dst, and
// empties all pending lists. Nodes whose draw call failed are returned so
// the caller can leave them dirty for a retry next frame; failed nodes get
// a placeholder fill instead of their content.
func (b *Batcher) Flush(dst *Buffer, backend Backend) (failed []NodeID) {
	// Rectangles: group by exact style, preserving first-seen group order.
	b.groups = b.groups[:0]
	for i := range b.pending[KindRect] {
		it := &b.pending[KindRect][i]
		gi := -1
		for j := range b.groups {
			if b.groups[j].style == it.style {
				gi = j
				break
			}
		}
		if gi < 0 {
			b.groups = append(b.groups, rectGroup{style: it.style})
			gi = len(b.groups) - 1
		}
		b.groups[gi].rects = append(b.groups[gi].rects, it.layout)
		b.groups[gi].ids = append(b.groups[gi].ids, it.id)
	}
	for i := range b.groups {
		g := &b.groups[i]
		if err := backend.DrawRects(dst, g.rects, g.style); err != nil {
			for _, r := range g.rects {
				dst.FillRect(r, colorPlaceholder)
			}
			failed = append(failed, g.ids...)
		}
		g.rects = g.rects[:0]
		g.ids = g.ids[:0]
	}

	// Remaining kinds: individual dispatch in queue order.
	for kind := NodeKind(0); kind < numNodeKinds; kind++ {
		if kind == KindRect {
			b.pending[kind] = b.pending[kind][:0]
			continue
		}
		for i := range b.pending[kind] {
			it := &b.pending[kind][i]
			if err := dispatchOne(dst, backend, kind, it); err != nil {
				dst.FillRect(it.layout, colorPlaceholder)
				failed = append(failed, it.id)
			}
		}
		b.pending[kind] = b.pending[kind][:0]
	}
	return failed
}

// dispatchOne issues a single backend draw call for a non-combinable node.
func dispatchOne(dst *Buffer, backend Backend, kind NodeKind, it *batchItem) error {
	switch kind {
	case KindLine:
		return backend.DrawLine(dst,
			it.layout.X, it.layout.Y,
			it.layout.X+it.layout.Width, it.layout.Y+it.layout.Height,
			it.style)
	case KindCircle:
		r := min(it.layout.Width, it.layout.Height) / 2
		return backend.DrawCircle(dst,
			it.layout.X+it.layout.Width/2, it.layout.Y+it.layout.Height/2,
			r, it.style)
	case KindText, KindButton:
		return backend.DrawText(dst, it.text, it.layout, it.style)
	case KindImage:
		return backend.DrawImage(dst, it.image, it.layout, it.style)
	default:
		// Containers and grids are not routed through the batcher.
		return nil
	}
}
