package rowan

// NodeID is a stable node identity. IDs are assigned by a Store, start at 1,
// and are never reused while the store is loaded. Zero is never a valid ID.
type NodeID uint32

// Props carries a node's semantic content. The fixed fields cover the closed
// set of node kinds; Extra is a side-table for genuinely dynamic extension
// data and participates in hashing with sorted keys.
type Props struct {
	Text     string
	ImageRef string
	GridCols int
	GridRows int
	Extra    map[string]string
}

// propsEqual reports whether two prop sets are identical, including Extra.
func propsEqual(a, b Props) bool {
	if a.Text != b.Text || a.ImageRef != b.ImageRef ||
		a.GridCols != b.GridCols || a.GridRows != b.GridRows {
		return false
	}
	if len(a.Extra) != len(b.Extra) {
		return false
	}
	for k, v := range a.Extra {
		if bv, ok := b.Extra[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// Node is a single scene graph element. A flat struct is used for all node
// kinds to avoid interface dispatch on the hot path; per-kind behavior
// switches on Kind.
//
// Nodes live in a Store's arena. Pointers returned by Store.Get are valid
// only until the next Create or Clear call and MUST NOT be used to mutate
// the node; mutation goes through the Store so dirty propagation runs.
type Node struct {
	ID     NodeID
	Kind   NodeKind
	Props  Props
	Style  Style
	Layout Rect

	Parent   NodeID // zero if detached or root
	children []NodeID

	// Dirty tracking and hash memoization.
	dirty            bool
	fullHashValid    bool
	fullHash         Hash
	contentHashValid bool
	contentHash      Hash
}

// Children returns the child ID list. The returned slice MUST NOT be mutated.
func (n *Node) Children() []NodeID {
	return n.children
}

// Dirty reports whether the node itself is flagged for re-render.
func (n *Node) Dirty() bool {
	return n.dirty
}

// Store owns all scene nodes in a flat arena and tracks parent/child edges.
// A Store is exclusively owned by the frame loop: it is not internally
// synchronized, unlike ResultCache and BufferPool.
type Store struct {
	nodes   []Node
	index   map[NodeID]int32
	nextID  NodeID
	scratch hashScratch
}

// NewStore creates an empty node store.
func NewStore() *Store {
	return &Store{index: make(map[NodeID]int32)}
}

// Len returns the number of live nodes.
func (s *Store) Len() int {
	return len(s.nodes)
}

// lookup returns a pointer into the arena, or nil for unknown IDs.
func (s *Store) lookup(id NodeID) *Node {
	i, ok := s.index[id]
	if !ok {
		return nil
	}
	return &s.nodes[i]
}

// Get returns the node for id, or nil if the ID is unknown. The pointer is
// valid only until the next Create or Clear call; see Node.
func (s *Store) Get(id NodeID) *Node {
	return s.lookup(id)
}

// Create adds a node to the store and returns its ID. New nodes start dirty.
func (s *Store) Create(kind NodeKind, props Props, style Style, layout Rect) NodeID {
	s.nextID++
	id := s.nextID
	s.nodes = append(s.nodes, Node{
		ID:     id,
		Kind:   kind,
		Props:  props,
		Style:  style,
		Layout: layout,
		dirty:  true,
	})
	s.index[id] = int32(len(s.nodes) - 1)
	return id
}

// SetProps replaces the node's props. The node is marked dirty only if at
// least one value actually differs, never on a write of the same value.
func (s *Store) SetProps(id NodeID, props Props) error {
	n := s.lookup(id)
	if n == nil {
		return ErrNodeNotFound
	}
	if propsEqual(n.Props, props) {
		return nil
	}
	n.Props = props
	n.contentHashValid = false
	s.markDirty(id)
	return nil
}

// SetStyle replaces the node's style. Marks dirty only on a real change.
func (s *Store) SetStyle(id NodeID, style Style) error {
	n := s.lookup(id)
	if n == nil {
		return ErrNodeNotFound
	}
	if n.Style == style {
		return nil
	}
	n.Style = style
	n.contentHashValid = false
	s.markDirty(id)
	return nil
}

// SetLayout replaces the node's layout rectangle. Marks dirty only on a real
// change. The content hash survives layout-only moves; only the full render
// hash is invalidated.
func (s *Store) SetLayout(id NodeID, layout Rect) error {
	n := s.lookup(id)
	if n == nil {
		return ErrNodeNotFound
	}
	if n.Layout == layout {
		return nil
	}
	n.Layout = layout
	s.markDirty(id)
	return nil
}

// AddChild appends child to parent's children. If child already has a
// parent, it is detached from that parent first. Panics if the edge would
// create a cycle; returns ErrNodeNotFound for unknown IDs.
func (s *Store) AddChild(parent, child NodeID) error {
	p := s.lookup(parent)
	c := s.lookup(child)
	if p == nil || c == nil {
		return ErrNodeNotFound
	}
	if s.isAncestor(child, parent) || parent == child {
		panic("rowan: adding child would create a cycle")
	}
	if c.Parent != 0 {
		s.detach(c.Parent, child)
	}
	c.Parent = parent
	p.children = append(p.children, child)
	s.markDirty(child)
	return nil
}

// RemoveChild detaches child from parent. Returns ErrNodeNotFound for
// unknown IDs or if child is not a child of parent. The detached subtree
// stays in the store; the parent is marked dirty so the region re-renders.
func (s *Store) RemoveChild(parent, child NodeID) error {
	p := s.lookup(parent)
	c := s.lookup(child)
	if p == nil || c == nil || c.Parent != parent {
		return ErrNodeNotFound
	}
	s.detach(parent, child)
	c.Parent = 0
	s.markDirty(parent)
	return nil
}

// Clear drops all nodes. Cache entries are keyed by content hash, not node
// identity, so the result cache is deliberately untouched: structurally
// identical nodes in the next tree build reuse the same cached output.
func (s *Store) Clear() {
	s.nodes = s.nodes[:0]
	clear(s.index)
}

// detach removes child from parent's child list without touching child.Parent.
func (s *Store) detach(parent, child NodeID) {
	p := s.lookup(parent)
	if p == nil {
		return
	}
	for i, id := range p.children {
		if id == child {
			p.children = append(p.children[:i], p.children[i+1:]...)
			return
		}
	}
}

// isAncestor reports whether candidate is an ancestor of node.
func (s *Store) isAncestor(candidate, node NodeID) bool {
	for id := node; id != 0; {
		if id == candidate {
			return true
		}
		n := s.lookup(id)
		if n == nil {
			return false
		}
		id = n.Parent
	}
	return false
}
