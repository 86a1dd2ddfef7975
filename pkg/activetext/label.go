package activetext

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
)

// Label renders text with active elements on a Display and turns pointer
// events into taps. All methods are safe for concurrent use. Tap handlers
// run after the internal lock is released, so they may call back into the
// label.
type Label struct {
	mu sync.Mutex

	display Display
	layout  Layout

	source string // text as set by the caller
	text   string // display text with URLs truncated
	opts   BuildOptions
	custom MatcherSet // set by SetCustomMatcher, kept across ApplyConfig

	index      *ElementIndex
	hitTester  *HitTester
	selection  *SelectionController
	dispatcher *Dispatcher
	styler     *Styler

	customizing  bool
	needsRebuild bool
	needsRestyle bool
}

// Option configures a Label at construction.
type Option func(*Label)

// WithScheduler sets the scheduler used for the deferred highlight clear.
func WithScheduler(s Scheduler) Option {
	return func(l *Label) {
		l.selection.scheduler = lockedScheduler{mu: &l.mu, next: s}
	}
}

// WithClearDelay sets how long a released element stays highlighted.
func WithClearDelay(d time.Duration) Option {
	return func(l *Label) {
		l.selection.SetClearDelay(d)
	}
}

// WithConfig applies a rules configuration.
func WithConfig(c *Config) Option {
	return func(l *Label) {
		l.applyConfig(c)
	}
}

// WithText sets the initial text.
func WithText(s string) Option {
	return func(l *Label) {
		l.source = s
	}
}

// NewLabel creates a label drawing on display and hit testing through
// layout.
func NewLabel(display Display, layout Layout, opts ...Option) *Label {
	l := &Label{
		display:    display,
		layout:     layout,
		opts:       BuildOptions{EnabledTypes: append([]ActiveType(nil), DefaultEnabledTypes...)},
		index:      NewElementIndex(),
		dispatcher: NewDispatcher(),
		styler:     NewStyler(),
	}
	l.hitTester = NewHitTester(layout, l.index)
	l.selection = NewSelectionController(l.hitTester, l.index, HighlighterFunc(l.highlight), nil)
	l.selection.scheduler = lockedScheduler{mu: &l.mu, next: TimeScheduler{}}

	for _, opt := range opts {
		opt(l)
	}

	l.mu.Lock()
	l.rebuild()
	l.mu.Unlock()
	return l
}

// lockedScheduler runs deferred actions under the label's lock.
type lockedScheduler struct {
	mu   *sync.Mutex
	next Scheduler
}

func (s lockedScheduler) AfterFunc(d time.Duration, f func()) Timer {
	next := s.next
	if next == nil {
		next = TimeScheduler{}
	}
	return next.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		f()
	})
}

func (l *Label) highlight(span ElementSpan, on bool) {
	l.styler.Highlight(l.display, span, on)
}

// SetText replaces the text and rebuilds.
func (l *Label) SetText(s string) {
	l.update(true, func() { l.source = s })
}

// Text returns the display text, with long URLs truncated.
func (l *Label) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text
}

// Source returns the text as it was set.
func (l *Label) Source() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.source
}

// Elements returns every element of the current text sorted by offset.
func (l *Label) Elements() []ElementSpan {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index.All()
}

// State returns the state of the press lifecycle.
func (l *Label) State() SelectionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selection.State()
}

// SetEnabledTypes sets the categories to extract, in precedence order.
func (l *Label) SetEnabledTypes(types ...ActiveType) {
	l.update(true, func() { l.opts.EnabledTypes = append([]ActiveType(nil), types...) })
}

// SetURLMaxLength truncates displayed URLs longer than n. Zero disables
// truncation.
func (l *Label) SetURLMaxLength(n int) {
	l.update(true, func() { l.opts.URLMaxLength = n })
}

// SetTruncation sets where long URLs are cut and the ellipsis used. An
// empty ellipsis means DefaultEllipsis.
func (l *Label) SetTruncation(mode TruncationMode, ellipsis string) {
	l.update(true, func() {
		l.opts.Truncation = mode
		l.opts.Ellipsis = ellipsis
	})
}

// SetFuzzyHeightMatching enables tolerant vertical hit testing.
func (l *Label) SetFuzzyHeightMatching(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hitTester.FuzzyHeightMatching = on
}

// SetViewHeight records the height of the display area.
func (l *Label) SetViewHeight(height float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hitTester.SetViewHeight(height)
}

// HeightCorrection returns the vertical offset at which text is drawn.
func (l *Label) HeightCorrection() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hitTester.HeightCorrection()
}

// SetCustomMatcher registers the matcher of custom category id. A nil
// matcher removes it. The category still has to be enabled. Matchers set
// here take precedence over custom rules of a later ApplyConfig.
func (l *Label) SetCustomMatcher(id string, m Matcher) {
	l.update(true, func() {
		if l.opts.Matchers == nil {
			l.opts.Matchers = make(MatcherSet)
		}
		if l.custom == nil {
			l.custom = make(MatcherSet)
		}
		if m == nil {
			delete(l.opts.Matchers, Custom(id))
			delete(l.custom, Custom(id))
			return
		}
		l.opts.Matchers[Custom(id)] = m
		l.custom[Custom(id)] = m
	})
}

// SetFilter installs a filter for category t. A nil filter removes it.
func (l *Label) SetFilter(t ActiveType, f FilterFunc) {
	l.update(true, func() {
		if f == nil {
			delete(l.opts.Filters, t)
			return
		}
		if l.opts.Filters == nil {
			l.opts.Filters = make(map[ActiveType]FilterFunc)
		}
		l.opts.Filters[t] = f
	})
}

// SetColor sets the color of category t.
func (l *Label) SetColor(t ActiveType, c tcell.Color) {
	l.update(false, func() { l.styler.Colors[t] = c })
}

// SetSelectedColor sets the color of a pressed element of category t.
func (l *Label) SetSelectedColor(t ActiveType, c tcell.Color) {
	l.update(false, func() { l.styler.SelectedColors[t] = c })
}

// SetHighlightFont sets the font of active elements.
func (l *Label) SetHighlightFont(f Font) {
	l.update(false, func() { l.styler.HighlightFont = f })
}

func (l *Label) SetLineSpacing(v float64) {
	l.update(false, func() { l.styler.Paragraph.LineSpacing = v })
}

func (l *Label) SetMinimumLineHeight(v float64) {
	l.update(false, func() { l.styler.Paragraph.MinimumLineHeight = v })
}

// SetTextAttributes sets the attributes of the plain text.
func (l *Label) SetTextAttributes(attrs Attributes) {
	l.update(false, func() { l.styler.Base = attrs })
}

// SetAttributeTransform installs a hook that adjusts element attributes.
func (l *Label) SetAttributeTransform(f AttributeTransform) {
	l.update(false, func() { l.styler.Transform = f })
}

// ApplyConfig applies a rules configuration and rebuilds. Filters and
// matchers set with SetFilter and SetCustomMatcher are kept.
func (l *Label) ApplyConfig(c *Config) {
	l.update(true, func() { l.applyConfig(c) })
}

func (l *Label) applyConfig(c *Config) {
	if c == nil {
		return
	}
	filters := l.opts.Filters
	l.opts = c.BuildOptions()
	l.opts.Filters = filters
	if len(l.custom) > 0 && l.opts.Matchers == nil {
		l.opts.Matchers = make(MatcherSet)
	}
	for t, m := range l.custom {
		l.opts.Matchers[t] = m
	}
	l.hitTester.FuzzyHeightMatching = c.FuzzyHeightMatching
	for t, col := range c.Colors {
		l.styler.Colors[t] = col
	}
	for t, col := range c.SelectedColors {
		l.styler.SelectedColors[t] = col
	}
	l.styler.HighlightFont = c.HighlightFont
	l.styler.Paragraph = c.Paragraph
}

// Customize runs f and rebuilds once afterwards, however many setters f
// calls.
func (l *Label) Customize(f func(*Label)) {
	l.mu.Lock()
	nested := l.customizing
	l.customizing = true
	l.mu.Unlock()

	f(l)

	if nested {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.customizing = false
	l.flush()
}

// Rebuild rescans the text.
func (l *Label) Rebuild() {
	l.update(true, func() {})
}

// Restyle reapplies attributes without rescanning.
func (l *Label) Restyle() {
	l.update(false, func() {})
}

func (l *Label) update(rebuild bool, mutate func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	mutate()
	if rebuild {
		l.needsRebuild = true
	} else {
		l.needsRestyle = true
	}
	if !l.customizing {
		l.flush()
	}
}

func (l *Label) flush() {
	switch {
	case l.needsRebuild:
		l.rebuild()
	case l.needsRestyle:
		l.restyle()
	}
}

// rebuild must be called with the lock held.
func (l *Label) rebuild() {
	l.needsRebuild, l.needsRestyle = false, false

	text, index := Build(l.source, l.opts)
	l.text = text
	l.index.Rebuild(index)
	if l.display != nil {
		l.display.SetDisplayText(text)
	}
	l.styler.Restyle(l.display, l.text, l.index)
	l.selection.Invalidate()
	slog.Debug("activetext: rebuilt", "elements", l.index.Len())
}

// restyle must be called with the lock held.
func (l *Label) restyle() {
	l.needsRestyle = false
	l.styler.Restyle(l.display, l.text, l.index)
	if span, ok := l.selection.Selected(); ok && l.selection.IsHighlighted() {
		l.styler.Highlight(l.display, span, true)
	}
}

// HandleMentionTap sets the handler for mention taps. It receives the
// handle without '@' and the element's range in the display text.
func (l *Label) HandleMentionTap(f TapHandler) {
	l.handle(Mention, f)
}

// HandleHashtagTap sets the handler for hashtag taps. It receives the tag
// without '#'.
func (l *Label) HandleHashtagTap(f TapHandler) {
	l.handle(Hashtag, f)
}

// HandleURLTap sets the handler for URL taps. It receives the full URL,
// even when the displayed one is truncated, and the range of the displayed
// one. URLs that do not parse go to the delegate.
func (l *Label) HandleURLTap(f TapHandler) {
	l.handle(URL, f)
}

// HandleParsedURLTap sets a handler that receives parsed URLs. It takes
// precedence over HandleURLTap; payloads that do not parse go to the
// delegate.
func (l *Label) HandleParsedURLTap(f URLTapHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dispatcher.HandleURL(f)
}

// HandleCustomTap sets the handler for taps on custom category id.
func (l *Label) HandleCustomTap(id string, f TapHandler) {
	l.handle(Custom(id), f)
}

func (l *Label) handle(t ActiveType, f TapHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dispatcher.Handle(t, f)
}

// RemoveHandle removes the handlers of category t.
func (l *Label) RemoveHandle(t ActiveType) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dispatcher.Remove(t)
}

// SetDelegate sets the receiver of taps without a category handler.
func (l *Label) SetDelegate(d Delegate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dispatcher.SetDelegate(d)
}

// OnPressOrMove handles a touch down or move. It reports whether the
// point is over an element.
func (l *Label) OnPressOrMove(p Point) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selection.PressOrMove(p)
}

// OnRelease completes a tap and fires its callback. It reports whether an
// element was pressed.
func (l *Label) OnRelease(p Point) bool {
	l.mu.Lock()
	span, ok := l.selection.Release()
	var fire func()
	if ok {
		fire = l.dispatcher.Resolve(span)
	}
	l.mu.Unlock()

	if fire != nil {
		fire()
	}
	return ok
}

// OnCancel aborts the interaction. It reports whether an element was
// pressed.
func (l *Label) OnCancel(p Point) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	pressed := l.selection.State() == StatePressed
	l.selection.Cancel()
	return pressed
}
