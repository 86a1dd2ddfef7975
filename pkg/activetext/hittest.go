package activetext

// Point is a location in the coordinate space of the display area.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. Containment is half-open on both axes.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Inset shrinks r by dx on the left and right and dy on the top and bottom.
// Negative values grow it.
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// Layout answers glyph geometry questions about the laid out text. It is
// implemented by the display toolkit.
type Layout interface {
	// Bounds returns the area occupied by the laid out glyphs, in text
	// container coordinates (before vertical centering).
	Bounds() Rect
	// CharacterOffset returns the UTF-16 offset of the character nearest p.
	CharacterOffset(p Point) int
}

// HitTester maps points to the elements under them.
type HitTester struct {
	layout Layout
	index  *ElementIndex

	// FuzzyHeightMatching tests touches against the bounds grown by the
	// vertical centering correction instead of shifting the touch first,
	// so touches just above or below the text still hit.
	FuzzyHeightMatching bool

	viewHeight float64
}

// NewHitTester creates a hit tester over the given layout and index. The
// index is read at every query, so rebuilding it in place is enough to keep
// the tester current.
func NewHitTester(layout Layout, index *ElementIndex) *HitTester {
	return &HitTester{layout: layout, index: index}
}

// SetViewHeight records the height of the display area. Text shorter than
// the area is drawn vertically centered.
func (h *HitTester) SetViewHeight(height float64) {
	h.viewHeight = height
}

// HeightCorrection returns the vertical offset at which text is drawn.
func (h *HitTester) HeightCorrection() float64 {
	if h.layout == nil {
		return 0
	}
	if c := (h.viewHeight - h.layout.Bounds().H) / 2; c > 0 {
		return c
	}
	return 0
}

// ElementAt returns the element under p, if any.
func (h *HitTester) ElementAt(p Point) (ElementSpan, bool) {
	if h.layout == nil || h.index.Len() == 0 {
		return ElementSpan{}, false
	}

	bounds := h.layout.Bounds()
	correction := h.HeightCorrection()
	if h.FuzzyHeightMatching {
		bounds = bounds.Inset(0, -correction)
	} else {
		p.Y -= correction
	}

	if !bounds.Contains(p) {
		return ElementSpan{}, false
	}

	if h.FuzzyHeightMatching {
		p.Y -= correction
	}
	return h.index.SpanAt(h.layout.CharacterOffset(p))
}
