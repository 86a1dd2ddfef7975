// Package termlayout lays out and draws active text in terminal cells with
// tcell. It provides the Layout, Display and Scheduler collaborators that
// an activetext.Label needs.
package termlayout

import (
	"math"
	"unicode"

	"github.com/mattn/go-runewidth"
	"github.com/spicery/activetext/pkg/activetext"
)

// glyph is one laid out character. Zero width runes ride along in comb.
type glyph struct {
	r     rune
	comb  []rune
	x, y  int // cell position; y is the line, not the row
	width int
	unit  int // UTF-16 offset of r
}

// Layout wraps text into lines of terminal cells. Words move to the next
// line when they do not fit; words longer than a line are split.
type Layout struct {
	width int // zero or less disables wrapping
	pitch int // rows per line

	text     string
	units    int
	glyphs   []glyph
	lines    int
	maxWidth int
}

// NewLayout creates a layout that wraps at width cells.
func NewLayout(width int) *Layout {
	return &Layout{width: width, pitch: 1}
}

// SetWidth changes the wrap width and lays the text out again.
func (l *Layout) SetWidth(width int) {
	if width == l.width {
		return
	}
	l.width = width
	l.layout()
}

// SetText replaces the text and lays it out.
func (l *Layout) SetText(text string) {
	l.text = text
	l.layout()
}

// SetLinePitch sets how many rows each line occupies.
func (l *Layout) SetLinePitch(rows int) {
	if rows < 1 {
		rows = 1
	}
	if rows == l.pitch {
		return
	}
	l.pitch = rows
	l.layout()
}

// Lines returns the number of laid out lines.
func (l *Layout) Lines() int {
	return l.lines
}

// Bounds returns the cells occupied by the text.
func (l *Layout) Bounds() activetext.Rect {
	if l.lines == 0 {
		return activetext.Rect{}
	}
	return activetext.Rect{W: float64(l.maxWidth), H: float64(l.rows())}
}

func (l *Layout) rows() int {
	if l.lines == 0 {
		return 0
	}
	return (l.lines-1)*l.pitch + 1
}

// CharacterOffset returns the UTF-16 offset of the character nearest p.
func (l *Layout) CharacterOffset(p activetext.Point) int {
	if len(l.glyphs) == 0 {
		return 0
	}
	row := int(math.Floor(p.Y))
	if row < 0 {
		return 0
	}
	line := row / l.pitch
	if line >= l.lines {
		return l.units
	}
	col := int(math.Floor(p.X))

	var last *glyph
	for i := range l.glyphs {
		g := &l.glyphs[i]
		if g.y != line {
			if g.y > line {
				break
			}
			continue
		}
		if g.r == '\n' {
			break
		}
		if col < g.x+g.width {
			return g.unit
		}
		last = g
	}
	if last == nil {
		// Empty line: nearest is the line break itself.
		for _, g := range l.glyphs {
			if g.y == line {
				return g.unit
			}
		}
		return l.units
	}
	return last.unit
}

func (l *Layout) layout() {
	l.glyphs = l.glyphs[:0]
	l.lines, l.maxWidth, l.units = 0, 0, 0
	if l.text == "" {
		return
	}

	runes := []rune(l.text)
	x, y, unit := 0, 0, 0
	place := func(r rune, w int) {
		if w == 0 && len(l.glyphs) > 0 && l.glyphs[len(l.glyphs)-1].y == y && l.glyphs[len(l.glyphs)-1].r != '\n' {
			prev := &l.glyphs[len(l.glyphs)-1]
			prev.comb = append(prev.comb, r)
		} else {
			if w == 0 {
				w = 1
			}
			if l.width > 0 && x > 0 && x+w > l.width {
				x, y = 0, y+1
			}
			l.glyphs = append(l.glyphs, glyph{r: r, x: x, y: y, width: w, unit: unit})
			x += w
			if x > l.maxWidth {
				l.maxWidth = x
			}
		}
		unit += runeUnits(r)
	}

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '\n':
			l.glyphs = append(l.glyphs, glyph{r: r, x: x, y: y, unit: unit})
			unit++
			x, y = 0, y+1
			i++
		case unicode.IsSpace(r):
			place(' ', 1)
			i++
		default:
			j, w := i, 0
			for j < len(runes) && runes[j] != '\n' && !unicode.IsSpace(runes[j]) {
				w += runewidth.RuneWidth(runes[j])
				j++
			}
			if l.width > 0 && x > 0 && x+w > l.width {
				x, y = 0, y+1
			}
			for ; i < j; i++ {
				place(runes[i], runewidth.RuneWidth(runes[i]))
			}
		}
	}
	l.units = unit
	l.lines = y + 1
}

func runeUnits(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}
