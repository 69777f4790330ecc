package rowan

// Style carries a node's visual keys. The zero value of a field means
// "unset": theme resolution substitutes the per-kind default. All fields are
// comparable, so styles can key batch groups directly.
type Style struct {
	Fill        Color
	Border      Color
	BorderWidth float64
	FontSize    float64
	Align       TextAlign
	Opacity     float64
}

// ResolvedStyle is a fully-resolved style: every field holds the effective
// value after theme defaults were applied. Comparable; the batcher groups
// combined dispatches by exact ResolvedStyle match.
type ResolvedStyle struct {
	Fill        Color
	Border      Color
	BorderWidth float64
	FontSize    float64
	Align       TextAlign
	Opacity     float64
}

// Theme is a style-resolution table mapping node kinds to default styles.
// It is passed by reference into each render call and never stored by the
// engine; there is no process-global theme state. Mutating a Theme between
// frames is the caller's business; mutating it mid-frame is not supported.
type Theme struct {
	defaults [numNodeKinds]Style
}

// DefaultTheme returns a theme with neutral defaults: white fill, no border,
// 14px font, left alignment, full opacity.
func DefaultTheme() *Theme {
	t := &Theme{}
	base := Style{
		Fill:     ColorWhite,
		FontSize: 14,
		Opacity:  1,
	}
	for k := range t.defaults {
		t.defaults[k] = base
	}
	// Containers have no visual output of their own.
	t.defaults[KindContainer] = Style{Opacity: 1}
	return t
}

// SetDefault replaces the default style for a node kind.
//
// Resolution treats zero-valued node style fields as unset, so a node cannot
// select a zero value (TextAlignLeft, Opacity 0, zero Color) over a non-zero
// default set here. Kinds whose default uses a non-zero value for such a
// field make the zero value unreachable from node styles.
func (t *Theme) SetDefault(kind NodeKind, s Style) {
	t.defaults[kind] = s
}

// Resolve overlays a node's style onto the theme default for its kind.
// Zero-valued fields fall back to the default.
func (t *Theme) Resolve(kind NodeKind, s Style) ResolvedStyle {
	d := t.defaults[kind]
	r := ResolvedStyle{
		Fill:        s.Fill,
		Border:      s.Border,
		BorderWidth: s.BorderWidth,
		FontSize:    s.FontSize,
		Align:       s.Align,
		Opacity:     s.Opacity,
	}
	if r.Fill == (Color{}) {
		r.Fill = d.Fill
	}
	if r.Border == (Color{}) {
		r.Border = d.Border
	}
	if r.BorderWidth == 0 {
		r.BorderWidth = d.BorderWidth
	}
	if r.FontSize == 0 {
		r.FontSize = d.FontSize
	}
	if r.Align == TextAlignLeft {
		r.Align = d.Align
	}
	if r.Opacity == 0 {
		r.Opacity = d.Opacity
	}
	return r
}
