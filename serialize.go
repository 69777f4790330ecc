package rowan

import (
	"encoding/json"
	"fmt"
)

// NodeSnapshot is the serialized form of a node subtree, used for
// snapshotting and for the delta calculator's full-replace fallback.
type NodeSnapshot struct {
	ID       NodeID         `json:"id"`
	Kind     string         `json:"kind"`
	Props    Props          `json:"props"`
	Style    Style          `json:"style"`
	Layout   Rect           `json:"layout"`
	Children []NodeSnapshot `json:"children,omitempty"`
}

// Export builds a snapshot of the subtree rooted at id.
func (s *Store) Export(id NodeID) (*NodeSnapshot, error) {
	n := s.lookup(id)
	if n == nil {
		return nil, ErrNodeNotFound
	}
	snap := &NodeSnapshot{
		ID:     n.ID,
		Kind:   n.Kind.String(),
		Props:  n.Props,
		Style:  n.Style,
		Layout: n.Layout,
	}
	for _, child := range n.children {
		cs, err := s.Export(child)
		if err != nil {
			return nil, err
		}
		snap.Children = append(snap.Children, *cs)
	}
	return snap, nil
}

// ExportJSON serializes the subtree rooted at id to JSON.
func (s *Store) ExportJSON(id NodeID) ([]byte, error) {
	snap, err := s.Export(id)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(snap, "", "  ")
}

// Import reconstructs a snapshot as fresh nodes and returns the new root
// ID. Snapshot IDs are informational only: store IDs are never reused, so
// imported nodes always get new identities. Imported nodes start dirty;
// their cache entries are keyed by content hash, so identical content still
// hits the result cache.
func (s *Store) Import(snap *NodeSnapshot) (NodeID, error) {
	kind, ok := kindFromString(snap.Kind)
	if !ok {
		return 0, fmt.Errorf("rowan: unknown node kind %q", snap.Kind)
	}
	id := s.Create(kind, snap.Props, snap.Style, snap.Layout)
	for i := range snap.Children {
		childID, err := s.Import(&snap.Children[i])
		if err != nil {
			return 0, err
		}
		if err := s.AddChild(id, childID); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// ImportJSON reconstructs a JSON snapshot as fresh nodes.
func (s *Store) ImportJSON(data []byte) (NodeID, error) {
	var snap NodeSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, err
	}
	return s.Import(&snap)
}
