package rowan

// Dirty propagation is upward-only: a mutation marks the changed node and
// every ancestor up to the root. Readers walk downward via NeedsRender.

// MarkDirty flags the node (and all ancestors) as needing re-render. Called
// internally by every store mutation that changes a value; exported for
// external invalidation (e.g. after an image asset reloads).
func (s *Store) MarkDirty(id NodeID) error {
	if s.lookup(id) == nil {
		return ErrNodeNotFound
	}
	s.markDirty(id)
	return nil
}

// markDirty clears the memoized render hash and sets the dirty flag, then
// recurses to the parent. An already-dirty node short-circuits the ancestor
// walk (its own ancestors were marked when it was), but the hash must be
// invalidated unconditionally first: hashes are memoized on dirty nodes too
// (every frame, and on the failed-draw retry path), so a mutation landing on
// an already-dirty node still has a memo to drop.
func (s *Store) markDirty(id NodeID) {
	n := s.lookup(id)
	if n == nil {
		return
	}
	n.fullHashValid = false
	if n.dirty {
		return
	}
	n.dirty = true
	if n.Parent != 0 {
		s.markDirty(n.Parent)
	}
}

// NeedsRender reports whether the node or any descendant is dirty. Read-only;
// unknown IDs report false.
func (s *Store) NeedsRender(id NodeID) bool {
	n := s.lookup(id)
	if n == nil {
		return false
	}
	if n.dirty {
		return true
	}
	for _, child := range n.children {
		if s.NeedsRender(child) {
			return true
		}
	}
	return false
}

// MarkClean clears only this node's dirty flag. The render walk cleans
// children independently, bottom-up, as each renders.
func (s *Store) MarkClean(id NodeID) {
	if n := s.lookup(id); n != nil {
		n.dirty = false
	}
}
