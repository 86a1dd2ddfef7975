package activetext

import (
	"net/url"
	"sync"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLabel(t *testing.T, text string, opts ...Option) (*Label, *fakeView, *fakeScheduler) {
	t.Helper()
	view := &fakeView{}
	scheduler := &fakeScheduler{}
	opts = append([]Option{WithScheduler(scheduler), WithText(text)}, opts...)
	return NewLabel(view, view, opts...), view, scheduler
}

func TestLabelBuildsOnCreation(t *testing.T) {
	l, view, _ := newTestLabel(t, sampleText, WithConfig(&Config{
		EnabledTypes: DefaultEnabledTypes,
		URLMaxLength: 20,
	}))

	assert.Equal(t, "Hello @jack, check #ios at http://ex...ong/path", l.Text())
	assert.Equal(t, sampleText, l.Source())
	assert.Equal(t, l.Text(), view.text)
	assert.Len(t, l.Elements(), 3)
	assert.Equal(t, StateIdle, l.State())

	attrs, ok := view.styleAt(7)
	require.True(t, ok)
	assert.Equal(t, DefaultActiveColor, attrs.Foreground)
}

func TestLabelTapDispatchesOnce(t *testing.T) {
	l, view, scheduler := newTestLabel(t, sampleText)

	var mentions []string
	var ranges []Range
	delegate := &recordingDelegate{}
	l.HandleMentionTap(func(handle string, r Range) {
		mentions = append(mentions, handle)
		ranges = append(ranges, r)
	})
	l.SetDelegate(delegate)

	require.True(t, l.OnPressOrMove(at(8)))
	attrs, _ := view.styleAt(8)
	assert.Equal(t, DefaultActiveColor, attrs.Foreground)

	require.True(t, l.OnRelease(at(8)))
	assert.Equal(t, []string{"jack"}, mentions)
	assert.Equal(t, []Range{{Offset: 6, Length: 5}}, ranges)
	assert.Empty(t, delegate.calls)

	assert.False(t, l.OnRelease(at(8)))
	assert.Equal(t, []string{"jack"}, mentions)

	assert.Equal(t, 1, scheduler.fire())
	assert.Equal(t, StateIdle, l.State())
}

func TestLabelDelegateReceivesUnhandledTaps(t *testing.T) {
	l, _, scheduler := newTestLabel(t, sampleText)
	delegate := &recordingDelegate{}
	l.SetDelegate(delegate)
	l.HandleMentionTap(func(string, Range) { t.Fatal("wrong handler") })

	require.True(t, l.OnPressOrMove(at(20)))
	require.True(t, l.OnRelease(at(20)))
	assert.Equal(t, []delegateCall{{"ios", Hashtag, Range{Offset: 19, Length: 4}}}, delegate.calls)
	scheduler.fire()
}

func TestLabelCancelFiresNothing(t *testing.T) {
	l, view, _ := newTestLabel(t, sampleText)
	l.SetSelectedColor(Mention, tcell.ColorRed)
	fired := false
	l.HandleMentionTap(func(string, Range) { fired = true })

	require.True(t, l.OnPressOrMove(at(7)))
	attrs, _ := view.styleAt(7)
	assert.Equal(t, tcell.ColorRed, attrs.Foreground)

	assert.True(t, l.OnCancel(at(7)))
	assert.Equal(t, StateIdle, l.State())
	attrs, _ = view.styleAt(7)
	assert.Equal(t, DefaultActiveColor, attrs.Foreground)

	assert.False(t, l.OnRelease(at(7)))
	assert.False(t, fired)
	assert.False(t, l.OnCancel(at(7)))
}

func TestLabelURLTapReceivesFullURL(t *testing.T) {
	l, _, _ := newTestLabel(t, sampleText)
	l.SetURLMaxLength(20)

	var got string
	var gotRange Range
	l.HandleURLTap(func(u string, r Range) { got, gotRange = u, r })
	require.True(t, l.OnPressOrMove(at(30)))
	require.True(t, l.OnRelease(at(30)))
	assert.Equal(t, "http://example.com/very/long/path", got)
	assert.Equal(t, Range{Offset: 27, Length: 20}, gotRange, "the range covers the displayed URL")
}

func TestLabelCustomTap(t *testing.T) {
	l, _, _ := newTestLabel(t, "try activetext now")
	m, err := NewPatternMatcher(`\bactivetext\b`)
	require.NoError(t, err)

	var got string
	var gotRange Range
	l.HandleCustomTap("brand", func(text string, r Range) { got, gotRange = text, r })
	l.Customize(func(l *Label) {
		l.SetCustomMatcher("brand", m)
		l.SetEnabledTypes(Mention, Hashtag, URL, Custom("brand"))
	})

	require.True(t, l.OnPressOrMove(at(5)))
	require.True(t, l.OnRelease(at(5)))
	assert.Equal(t, "activetext", got)
	assert.Equal(t, Range{Offset: 4, Length: 10}, gotRange)

	l.RemoveHandle(Custom("brand"))
	got = ""
	require.True(t, l.OnPressOrMove(at(5)))
	require.True(t, l.OnRelease(at(5)))
	assert.Empty(t, got)
}

func TestLabelCustomizeRebuildsOnce(t *testing.T) {
	l, view, _ := newTestLabel(t, "")
	redraws := view.redraws

	l.Customize(func(l *Label) {
		l.SetText("@a #b")
		l.SetEnabledTypes(Mention)
		l.SetColor(Mention, tcell.ColorGreen)
		l.SetURLMaxLength(10)
	})

	assert.Equal(t, redraws+1, view.redraws)
	require.Len(t, l.Elements(), 1)
	attrs, _ := view.styleAt(1)
	assert.Equal(t, tcell.ColorGreen, attrs.Foreground)
}

func TestLabelRestyleDoesNotRescan(t *testing.T) {
	l, view, _ := newTestLabel(t, "@a")
	calls := 0
	l.SetCustomMatcher("count", MatcherFunc(func(string) []Match {
		calls++
		return nil
	}))
	l.SetEnabledTypes(Mention, Custom("count"))
	require.Equal(t, 1, calls)

	l.SetColor(Mention, tcell.ColorYellow)
	l.SetHighlightFont(Font{Name: "Menlo"})
	l.SetLineSpacing(1)
	l.SetMinimumLineHeight(2)
	l.SetTextAttributes(Attributes{Foreground: tcell.ColorWhite})
	l.SetAttributeTransform(func(_ ActiveType, a Attributes, _ bool) Attributes {
		a.Underline = true
		return a
	})
	l.Restyle()
	assert.Equal(t, 1, calls)

	attrs, _ := view.styleAt(0)
	assert.Equal(t, tcell.ColorYellow, attrs.Foreground)
	assert.True(t, attrs.Underline)
	assert.Equal(t, ParagraphStyle{LineSpacing: 1, MinimumLineHeight: 2}, view.paragraphs[len(view.paragraphs)-1])

	l.Rebuild()
	assert.Equal(t, 2, calls)
}

func TestLabelRebuildClearsSelection(t *testing.T) {
	l, _, scheduler := newTestLabel(t, "@jack")
	fired := false
	l.HandleMentionTap(func(string, Range) { fired = true })

	require.True(t, l.OnPressOrMove(at(1)))
	l.SetText("no more elements")
	assert.Equal(t, StateIdle, l.State())
	assert.False(t, l.OnRelease(at(1)))
	assert.False(t, fired)
	assert.Zero(t, scheduler.pending())
}

func TestLabelFilter(t *testing.T) {
	l, _, _ := newTestLabel(t, "@jack @jill")
	l.SetFilter(Mention, func(handle string) bool { return handle != "jack" })
	require.Len(t, l.Elements(), 1)
	assert.Equal(t, "jill", l.Elements()[0].Element.Text)

	l.SetFilter(Mention, nil)
	assert.Len(t, l.Elements(), 2)
}

func TestLabelApplyConfigKeepsFilters(t *testing.T) {
	l, _, _ := newTestLabel(t, "@jack @jill #x")
	l.SetFilter(Mention, func(handle string) bool { return handle != "jack" })

	config, err := ApplyRulesToDefaults(&RulesFile{Enabled: []string{"mention"}, FuzzyHeightMatching: true})
	require.NoError(t, err)
	l.ApplyConfig(config)

	require.Len(t, l.Elements(), 1)
	assert.Equal(t, "jill", l.Elements()[0].Element.Text)
}

func TestLabelApplyConfigKeepsCustomMatchers(t *testing.T) {
	l, _, _ := newTestLabel(t, "try activetext with T-7")
	m, err := NewPatternMatcher(`\bactivetext\b`)
	require.NoError(t, err)
	l.SetCustomMatcher("brand", m)

	config, err := ApplyRulesToDefaults(&RulesFile{
		Custom: []CustomRule{{ID: "ticket", Pattern: `T-\d+`}},
	})
	require.NoError(t, err)
	config.EnabledTypes = []ActiveType{Custom("brand"), Custom("ticket")}
	l.ApplyConfig(config)

	elements := l.Elements()
	require.Len(t, elements, 2)
	assert.Equal(t, Custom("brand"), elements[0].Type)
	assert.Equal(t, "activetext", elements[0].Element.Text)
	assert.Equal(t, Custom("ticket"), elements[1].Type)

	// Removing the matcher also keeps it out of later configurations.
	l.SetCustomMatcher("brand", nil)
	l.ApplyConfig(config)
	require.Len(t, l.Elements(), 1)
	assert.Equal(t, Custom("ticket"), l.Elements()[0].Type)
}

func TestLabelFuzzyHeightMatching(t *testing.T) {
	l, _, _ := newTestLabel(t, "@jack")
	l.SetViewHeight(5)
	assert.Equal(t, 2.0, l.HeightCorrection())

	near := Point{X: 1.5, Y: 1.5}
	assert.False(t, l.OnPressOrMove(near))
	l.SetFuzzyHeightMatching(true)
	assert.True(t, l.OnPressOrMove(near))
}

func TestLabelHandlersMayReenter(t *testing.T) {
	l, _, _ := newTestLabel(t, "@jack")
	l.HandleMentionTap(func(handle string, _ Range) {
		l.SetText("tapped @" + handle)
	})

	require.True(t, l.OnPressOrMove(at(1)))
	require.True(t, l.OnRelease(at(1)))
	assert.Equal(t, "tapped @jack", l.Text())
}

func TestLabelConcurrentUse(t *testing.T) {
	view := &fakeView{}
	l := NewLabel(view, view, WithText(sampleText), WithClearDelay(0))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.OnPressOrMove(at(7))
				l.OnRelease(at(7))
				if j%10 == i {
					l.SetURLMaxLength(j)
				}
				_ = l.Elements()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, StateIdle, l.State())
}

func TestLabelParsedURLTap(t *testing.T) {
	l, _, _ := newTestLabel(t, "go to https://go.dev/doc")
	var host string
	l.HandleParsedURLTap(func(u *url.URL, _ Range) { host = u.Host })

	require.True(t, l.OnPressOrMove(at(8)))
	require.True(t, l.OnRelease(at(8)))
	assert.Equal(t, "go.dev", host)
}
