package rowan

import (
	"reflect"
	"testing"
)

func paths(ps []Path) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

func TestDiffFlatMap(t *testing.T) {
	old := map[string]any{"score": 10, "lives": 3, "name": "ada"}
	new := map[string]any{"score": 11, "lives": 3, "name": "ada"}

	got := paths(Diff(old, new))
	want := []string{"score"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Diff = %v, want %v", got, want)
	}
}

func TestDiffNestedMap(t *testing.T) {
	old := map[string]any{
		"player": map[string]any{"hp": 100, "mp": 50},
		"level":  1,
	}
	new := map[string]any{
		"player": map[string]any{"hp": 90, "mp": 50},
		"level":  1,
	}
	got := paths(Diff(old, new))
	want := []string{"player.hp"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Diff = %v, want %v", got, want)
	}
}

func TestDiffAddedAndRemovedKeys(t *testing.T) {
	old := map[string]any{"a": 1, "b": 2}
	new := map[string]any{"b": 2, "c": 3}
	got := paths(Diff(old, new))
	// Sorted key order makes the output deterministic.
	want := []string{"a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Diff = %v, want %v", got, want)
	}
}

func TestDiffSequenceSameLength(t *testing.T) {
	old := map[string]any{"items": []any{"sword", "shield", "potion"}}
	new := map[string]any{"items": []any{"sword", "axe", "potion"}}
	got := paths(Diff(old, new))
	want := []string{"items.1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Diff = %v, want %v", got, want)
	}
}

func TestDiffSequenceLengthChangeIsWholePath(t *testing.T) {
	old := map[string]any{"items": []any{"sword", "shield"}}
	new := map[string]any{"items": []any{"sword", "shield", "potion"}}
	got := paths(Diff(old, new))
	want := []string{"items"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("length change should report the whole sequence: Diff = %v, want %v", got, want)
	}
}

func TestDiffTypeChange(t *testing.T) {
	old := map[string]any{"v": map[string]any{"x": 1}}
	new := map[string]any{"v": 7}
	got := paths(Diff(old, new))
	want := []string{"v"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Diff = %v, want %v", got, want)
	}
}

func TestDiffNoChanges(t *testing.T) {
	state := map[string]any{"a": 1, "b": []any{1, 2}, "c": map[string]any{"d": "x"}}
	if got := Diff(state, state); len(got) != 0 {
		t.Errorf("identical states should produce no paths, got %v", paths(got))
	}
}

func TestValueAt(t *testing.T) {
	state := map[string]any{
		"player": map[string]any{"inventory": []any{"sword", "shield"}},
	}
	tests := []struct {
		path   Path
		want   any
		wantOK bool
	}{
		{Path{"player", "inventory", "1"}, "shield", true},
		{Path{"player", "inventory", "5"}, nil, false},
		{Path{"player", "missing"}, nil, false},
		{Path{}, state, true},
	}
	for _, tt := range tests {
		t.Run(tt.path.String(), func(t *testing.T) {
			v, ok := ValueAt(state, tt.path)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if tt.wantOK && len(tt.path) > 0 && v != tt.want {
				t.Errorf("value = %v, want %v", v, tt.want)
			}
		})
	}
}

func TestBinderAppliesTextChange(t *testing.T) {
	s := NewStore()
	label := s.Create(KindText, Props{Text: "Score: 0"}, Style{}, Rect{})
	s.MarkClean(label)

	b := NewDeltaBinder()
	b.Bind("score", label, nil)

	old := map[string]any{"score": 0}
	new := map[string]any{"score": 42}
	applied, err := b.ApplyDiff(s, old, new)
	if err != nil {
		t.Fatal(err)
	}
	if applied != 1 {
		t.Fatalf("applied = %d, want 1", applied)
	}
	if got := s.Get(label).Props.Text; got != "42" {
		t.Errorf("Text = %q, want %q", got, "42")
	}
	if !s.Get(label).Dirty() {
		t.Error("bound mutation should have re-entered dirty propagation")
	}
}

func TestBinderIgnoresUnboundPaths(t *testing.T) {
	s := NewStore()
	b := NewDeltaBinder()

	applied, err := b.ApplyDiff(s,
		map[string]any{"x": 1},
		map[string]any{"x": 2})
	if err != nil {
		t.Fatal(err)
	}
	if applied != 0 {
		t.Errorf("applied = %d, want 0 for unbound paths", applied)
	}
}

func TestBinderCustomApply(t *testing.T) {
	s := NewStore()
	bar := s.Create(KindRect, Props{}, Style{}, Rect{0, 0, 100, 10})

	b := NewDeltaBinder()
	b.Bind("hp", bar, func(s *Store, id NodeID, value any) error {
		hp, _ := value.(int)
		n := s.Get(id)
		layout := n.Layout
		layout.Width = float64(hp)
		return s.SetLayout(id, layout)
	})

	_, err := b.ApplyDiff(s,
		map[string]any{"hp": 100},
		map[string]any{"hp": 60})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Get(bar).Layout.Width; got != 60 {
		t.Errorf("Width = %v, want 60", got)
	}
}

func TestBinderRemovedLeafAppliesZeroValue(t *testing.T) {
	s := NewStore()
	label := s.Create(KindText, Props{Text: "hi"}, Style{}, Rect{})
	b := NewDeltaBinder()
	b.Bind("msg", label, nil)

	_, err := b.ApplyDiff(s,
		map[string]any{"msg": "hi"},
		map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Get(label).Props.Text; got != "" {
		t.Errorf("Text = %q, want empty after leaf removal", got)
	}
}
