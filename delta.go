package rowan

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Path locates one changed leaf in a nested state value: map keys and
// sequence indices, outermost first.
type Path []string

// String returns the dotted form of the path.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Diff recursively compares two nested states built from maps
// (map[string]any), sequences ([]any), and comparable leaves, emitting one
// path per changed, added, or removed leaf. Map keys are visited in sorted
// order so output is deterministic.
//
// Sequences are compared element-wise only when their lengths match. On a
// length change the entire sequence is reported as one changed path: a
// reorder or insert is a full replace, not a minimal edit.
func Diff(old, new any) []Path {
	var out []Path
	diffValue(old, new, nil, &out)
	return out
}

func diffValue(old, new any, prefix Path, out *[]Path) {
	switch ov := old.(type) {
	case map[string]any:
		nv, ok := new.(map[string]any)
		if !ok {
			emit(prefix, out)
			return
		}
		diffMap(ov, nv, prefix, out)
	case []any:
		nv, ok := new.([]any)
		if !ok {
			emit(prefix, out)
			return
		}
		if len(ov) != len(nv) {
			emit(prefix, out)
			return
		}
		for i := range ov {
			diffValue(ov[i], nv[i], append(prefix, strconv.Itoa(i)), out)
		}
	default:
		if !leafEqual(old, new) {
			emit(prefix, out)
		}
	}
}

func diffMap(old, new map[string]any, prefix Path, out *[]Path) {
	keys := make([]string, 0, len(old)+len(new))
	for k := range old {
		keys = append(keys, k)
	}
	for k := range new {
		if _, ok := old[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		ov, inOld := old[k]
		nv, inNew := new[k]
		switch {
		case !inOld || !inNew: // added or removed
			emit(append(prefix, k), out)
		default:
			diffValue(ov, nv, append(prefix, k), out)
		}
	}
}

// leafEqual compares two leaves. Values of different dynamic types are
// unequal; uncomparable leaves (not expected in JSON-shaped state) are
// treated as changed.
func leafEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

func emit(p Path, out *[]Path) {
	cp := make(Path, len(p))
	copy(cp, p)
	*out = append(*out, cp)
}

// ValueAt returns the value at path inside a nested state, or false if any
// segment is missing.
func ValueAt(state any, path Path) (any, bool) {
	cur := state
	for _, seg := range path {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			cur = v[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// DeltaBinder translates changed state paths into node mutations, which
// re-enter dirty propagation through the store setters. Unbound paths are
// ignored, since not every piece of state maps to a visual node.
type DeltaBinder struct {
	bindings map[string]binding
}

type binding struct {
	node  NodeID
	apply func(s *Store, id NodeID, value any) error
}

// NewDeltaBinder creates an empty binder.
func NewDeltaBinder() *DeltaBinder {
	return &DeltaBinder{bindings: make(map[string]binding)}
}

// Bind routes changes at the dotted path to the node. With a nil apply
// function the new value is formatted into the node's Text prop.
func (d *DeltaBinder) Bind(path string, id NodeID, apply func(s *Store, id NodeID, value any) error) {
	if apply == nil {
		apply = applyText
	}
	d.bindings[path] = binding{node: id, apply: apply}
}

func applyText(s *Store, id NodeID, value any) error {
	n := s.Get(id)
	if n == nil {
		return ErrNodeNotFound
	}
	props := n.Props
	props.Text = fmt.Sprint(value)
	return s.SetProps(id, props)
}

// ApplyDiff diffs old against new state and applies every bound change,
// returning the number of node mutations performed.
func (d *DeltaBinder) ApplyDiff(s *Store, old, new any) (applied int, err error) {
	for _, p := range Diff(old, new) {
		b, ok := d.bindings[p.String()]
		if !ok {
			continue
		}
		value, ok := ValueAt(new, p)
		if !ok {
			// Removed leaf: bound nodes show their zero content.
			value = ""
		}
		if aerr := b.apply(s, b.node, value); aerr != nil {
			err = aerr
			continue
		}
		applied++
	}
	return applied, err
}
