package termlayout

import (
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/spicery/activetext/pkg/activetext"
)

// Area is a rectangle of screen cells.
type Area struct {
	X, Y, W, H int
}

// redraw is posted to the event loop by RequestRedraw.
type redraw struct{ view *View }

// View draws laid out text onto a tcell screen, vertically centered in
// its area. It implements activetext.Display and activetext.ParagraphStyler.
type View struct {
	screen tcell.Screen
	layout *Layout
	area   Area

	styles    []tcell.Style // one per UTF-16 unit
	paragraph activetext.ParagraphStyle
	dirty     bool
}

// NewView creates a view over screen. The layout is owned by the view
// and shared with the label for hit testing.
func NewView(screen tcell.Screen, layout *Layout) *View {
	return &View{screen: screen, layout: layout}
}

// Layout returns the view's layout.
func (v *View) Layout() *Layout {
	return v.layout
}

// SetArea moves the view and rewraps the text to the new width.
func (v *View) SetArea(a Area) {
	v.area = a
	v.layout.SetWidth(a.W)
	v.dirty = true
}

// Area returns the cells the view draws into.
func (v *View) Area() Area {
	return v.area
}

// SetDisplayText implements activetext.Display.
func (v *View) SetDisplayText(text string) {
	v.layout.SetText(text)
	v.styles = make([]tcell.Style, v.layout.units)
	for i := range v.styles {
		v.styles[i] = tcell.StyleDefault
	}
	v.dirty = true
}

// ApplyStyle implements activetext.Display.
func (v *View) ApplyStyle(r activetext.Range, attrs activetext.Attributes) {
	st := StyleFor(attrs)
	for i := r.Offset; i < r.End() && i < len(v.styles); i++ {
		if i >= 0 {
			v.styles[i] = st
		}
	}
	v.dirty = true
}

// RequestRedraw implements activetext.Display. It asks the event loop to
// draw; the loop passes the event to HandleEvent.
func (v *View) RequestRedraw() {
	v.dirty = true
	if v.screen != nil {
		_ = v.screen.PostEvent(tcell.NewEventInterrupt(redraw{view: v}))
	}
}

// SetParagraphStyle implements activetext.ParagraphStyler. Line spacing
// and minimum line height are rounded to whole rows.
func (v *View) SetParagraphStyle(p activetext.ParagraphStyle) {
	v.paragraph = p
	rows := int(math.Max(1, math.Floor(p.MinimumLineHeight)))
	rows += int(math.Max(0, math.Round(p.LineSpacing)))
	v.layout.SetLinePitch(rows)
}

// Dirty reports whether the view changed since the last Draw.
func (v *View) Dirty() bool {
	return v.dirty
}

// HeightCorrection returns the rows left blank above the text.
func (v *View) HeightCorrection() float64 {
	c := (float64(v.area.H) - v.layout.Bounds().H) / 2
	if c < 0 {
		return 0
	}
	return c
}

// Draw paints the view. It does not call Show.
func (v *View) Draw() {
	v.dirty = false
	if v.screen == nil {
		return
	}
	for y := 0; y < v.area.H; y++ {
		for x := 0; x < v.area.W; x++ {
			v.screen.SetContent(v.area.X+x, v.area.Y+y, ' ', nil, tcell.StyleDefault)
		}
	}

	top := int(v.HeightCorrection())
	for _, g := range v.layout.glyphs {
		if g.r == '\n' {
			continue
		}
		row := top + g.y*v.layout.pitch
		if row >= v.area.H || g.x >= v.area.W {
			continue
		}
		st := tcell.StyleDefault
		if g.unit < len(v.styles) {
			st = v.styles[g.unit]
		}
		v.screen.SetContent(v.area.X+g.x, v.area.Y+row, g.r, g.comb, st)
	}
}

// PointAt converts a screen cell to a point in view coordinates. The
// point is the center of the cell.
func (v *View) PointAt(x, y int) activetext.Point {
	return activetext.Point{
		X: float64(x-v.area.X) + 0.5,
		Y: float64(y-v.area.Y) + 0.5,
	}
}

// HandleEvent draws the view when ev is a redraw it requested and runs
// tasks posted by a Scheduler. It reports whether ev was consumed.
func (v *View) HandleEvent(ev tcell.Event) bool {
	ei, ok := ev.(*tcell.EventInterrupt)
	if !ok {
		return false
	}
	switch data := ei.Data().(type) {
	case redraw:
		if data.view != v {
			return false
		}
		if v.dirty {
			v.Draw()
			v.screen.Show()
		}
		return true
	case Task:
		data()
		return true
	}
	return false
}

// StyleFor converts attributes to a cell style. Terminals cannot change
// fonts, so a font override is drawn bold.
func StyleFor(a activetext.Attributes) tcell.Style {
	return tcell.StyleDefault.
		Foreground(a.Foreground).
		Background(a.Background).
		Bold(a.Bold || !a.Font.IsZero()).
		Underline(a.Underline)
}
