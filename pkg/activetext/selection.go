package activetext

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SelectionState represents the state of the press lifecycle.
type SelectionState int

const (
	// StateIdle means no element is pressed.
	StateIdle SelectionState = iota
	// StatePressed means an element is pressed, or was just released and
	// is still highlighted.
	StatePressed
)

func (s SelectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePressed:
		return "pressed"
	default:
		return fmt.Sprintf("SelectionState(%d)", int(s))
	}
}

// DefaultHighlightClearDelay is how long a released element stays highlighted.
const DefaultHighlightClearDelay = 250 * time.Millisecond

// Highlighter switches the selected look of a span on and off.
type Highlighter interface {
	SetHighlighted(span ElementSpan, on bool)
}

// HighlighterFunc adapts a function to a Highlighter.
type HighlighterFunc func(span ElementSpan, on bool)

func (f HighlighterFunc) SetHighlighted(span ElementSpan, on bool) { f(span, on) }

// Timer is a pending deferred action.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Hosts with an event loop should run f on
// the loop.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// TimeScheduler schedules with time.AfterFunc. f runs on its own goroutine.
type TimeScheduler struct{}

func (TimeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// selectionRef identifies a span by value. It is re-resolved against the
// live index on every use so a rebuild can never leave it dangling.
type selectionRef struct {
	Type  ActiveType
	Range Range
}

func refOf(span ElementSpan) selectionRef {
	return selectionRef{Type: span.Type, Range: span.Range}
}

// SelectionController tracks the pressed element across a pointer
// interaction and decides when a tap completes. It is safe for concurrent
// use: its methods and the deferred clear are serialized by one lock. The
// Highlighter is called with that lock held and must not call back into
// the controller.
type SelectionController struct {
	mu sync.Mutex

	state       SelectionState
	selected    selectionRef
	highlighted bool
	released    bool // released, waiting for the deferred clear

	hitTester   *HitTester
	index       *ElementIndex
	highlighter Highlighter
	scheduler   Scheduler

	clearDelay time.Duration

	pending    Timer
	generation uint64
}

// NewSelectionController creates a controller. A nil scheduler means
// TimeScheduler, which clears the highlight from a timer goroutine.
func NewSelectionController(hitTester *HitTester, index *ElementIndex, highlighter Highlighter, scheduler Scheduler) *SelectionController {
	if scheduler == nil {
		scheduler = TimeScheduler{}
	}
	return &SelectionController{
		state:       StateIdle,
		hitTester:   hitTester,
		index:       index,
		highlighter: highlighter,
		scheduler:   scheduler,
		clearDelay:  DefaultHighlightClearDelay,
	}
}

// State returns the current state.
func (c *SelectionController) State() SelectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsHighlighted reports whether the selected span is drawn as selected.
func (c *SelectionController) IsHighlighted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.highlighted
}

// Selected returns the selected span, resolved against the live index.
func (c *SelectionController) Selected() (ElementSpan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle {
		return ElementSpan{}, false
	}
	return c.index.Lookup(c.selected.Type, c.selected.Range)
}

// PressOrMove handles a touch down or a move to p. It reports whether the
// event landed on an element and should be consumed.
func (c *SelectionController) PressOrMove(p Point) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	span, ok := c.hitTester.ElementAt(p)
	if !ok {
		c.reset(true)
		return false
	}

	c.cancelPending()
	c.released = false
	if c.state == StatePressed && c.selected == refOf(span) {
		if !c.highlighted {
			c.setHighlighted(true)
		}
		return true
	}

	c.setHighlighted(false)
	c.state = StatePressed
	c.selected = refOf(span)
	c.setHighlighted(true)
	return true
}

// Release ends the interaction. When an element is pressed it is returned
// for dispatch; its highlight is cleared after the clear delay.
func (c *SelectionController) Release() (ElementSpan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePressed || c.released {
		return ElementSpan{}, false
	}
	span, ok := c.index.Lookup(c.selected.Type, c.selected.Range)
	if !ok {
		c.reset(false)
		return ElementSpan{}, false
	}
	c.released = true
	c.scheduleClear()
	return span, true
}

// Cancel aborts the interaction without a tap.
func (c *SelectionController) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset(true)
}

// Invalidate forgets the selection without touching styles. It is called
// after the index has been rebuilt and restyled.
func (c *SelectionController) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset(false)
}

func (c *SelectionController) reset(unhighlight bool) {
	c.cancelPending()
	if unhighlight {
		c.setHighlighted(false)
	}
	c.highlighted = false
	c.released = false
	c.state = StateIdle
	c.selected = selectionRef{}
}

// SetClearDelay sets how long the highlight outlives the release. Zero or
// less clears at once.
func (c *SelectionController) SetClearDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearDelay = d
}

func (c *SelectionController) scheduleClear() {
	if c.clearDelay <= 0 {
		c.reset(true)
		return
	}
	c.generation++
	gen := c.generation
	c.pending = c.scheduler.AfterFunc(c.clearDelay, func() {
		c.clearIfCurrent(gen)
	})
}

// clearIfCurrent runs the deferred clear unless a newer press took over.
func (c *SelectionController) clearIfCurrent(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || !c.released {
		slog.Debug("activetext: deferred highlight clear superseded", "generation", gen)
		return
	}
	c.pending = nil
	c.reset(true)
}

func (c *SelectionController) cancelPending() {
	c.generation++
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

func (c *SelectionController) setHighlighted(on bool) {
	if c.state != StatePressed || c.highlighted == on {
		return
	}
	c.highlighted = on
	if c.highlighter == nil {
		return
	}
	if span, ok := c.index.Lookup(c.selected.Type, c.selected.Range); ok {
		c.highlighter.SetHighlighted(span, on)
	}
}
