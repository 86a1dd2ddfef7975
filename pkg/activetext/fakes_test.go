package activetext

import (
	"math"
	"time"
)

type styleCall struct {
	r     Range
	attrs Attributes
}

// fakeView is a single line, one cell per UTF-16 unit display and layout.
type fakeView struct {
	text       string
	styles     []styleCall
	paragraphs []ParagraphStyle
	redraws    int
}

func (v *fakeView) SetDisplayText(text string) {
	v.text = text
	v.styles = nil
}

func (v *fakeView) ApplyStyle(r Range, attrs Attributes) {
	v.styles = append(v.styles, styleCall{r: r, attrs: attrs})
}

func (v *fakeView) RequestRedraw() {
	v.redraws++
}

func (v *fakeView) SetParagraphStyle(p ParagraphStyle) {
	v.paragraphs = append(v.paragraphs, p)
}

func (v *fakeView) Bounds() Rect {
	return Rect{W: float64(utf16Len(v.text)), H: 1}
}

func (v *fakeView) CharacterOffset(p Point) int {
	o := int(math.Floor(p.X))
	if o < 0 {
		return 0
	}
	if n := utf16Len(v.text); o > n {
		return n
	}
	return o
}

// styleAt returns the attributes last applied at offset.
func (v *fakeView) styleAt(offset int) (Attributes, bool) {
	for i := len(v.styles) - 1; i >= 0; i-- {
		if v.styles[i].r.Contains(offset) {
			return v.styles[i].attrs, true
		}
	}
	return Attributes{}, false
}

// at returns the center of the cell at offset.
func at(offset int) Point {
	return Point{X: float64(offset) + 0.5, Y: 0.5}
}

type fakeTimer struct {
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeScheduler records deferred actions and runs them on demand.
type fakeScheduler struct {
	timers []*fakeTimer
	delays []time.Duration
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{f: f}
	s.timers = append(s.timers, t)
	s.delays = append(s.delays, d)
	return t
}

// fire runs every pending action and returns how many ran.
func (s *fakeScheduler) fire() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			t.f()
			n++
		}
	}
	return n
}

// fireAll also runs stopped actions, as a timer that raced its Stop would.
func (s *fakeScheduler) fireAll() {
	for _, t := range s.timers {
		t.fired = true
		t.f()
	}
}

func (s *fakeScheduler) pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
