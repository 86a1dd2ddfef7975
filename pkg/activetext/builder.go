package activetext

import (
	"log/slog"
	"strings"
)

// FilterFunc decides whether a match becomes an element. It receives the
// element payload: the handle without '@', the tag without '#', the full
// URL or the custom match.
type FilterFunc func(payload string) bool

// BuildOptions configures one build.
type BuildOptions struct {
	// EnabledTypes lists the categories to extract. URL always runs first;
	// the others run in this order and earlier ones win overlaps.
	EnabledTypes []ActiveType
	// URLMaxLength truncates displayed URLs longer than this many UTF-16
	// code units. Zero disables truncation.
	URLMaxLength int
	Truncation   TruncationMode
	// Ellipsis replaces the elided part of a URL. Empty means DefaultEllipsis.
	Ellipsis string
	Filters  map[ActiveType]FilterFunc
	// Matchers overrides or extends the built-in matchers. Custom
	// categories without a matcher are skipped.
	Matchers MatcherSet
}

// DefaultEnabledTypes are the categories enabled when nothing else is set.
var DefaultEnabledTypes = []ActiveType{Mention, Hashtag, URL}

func (o BuildOptions) ellipsis() string {
	if o.Ellipsis == "" {
		return DefaultEllipsis
	}
	return o.Ellipsis
}

func (o BuildOptions) matchers() MatcherSet {
	ms := DefaultMatchers()
	for t, m := range o.Matchers {
		ms[t] = m
	}
	return ms
}

func (o BuildOptions) accept(t ActiveType, payload string) bool {
	filter, ok := o.Filters[t]
	return !ok || filter == nil || filter(payload)
}

// enabled returns EnabledTypes without duplicates, preserving order.
func (o BuildOptions) enabled() []ActiveType {
	seen := make(map[ActiveType]bool, len(o.EnabledTypes))
	var out []ActiveType
	for _, t := range o.EnabledTypes {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Build scans text and returns the display text together with the index of
// its active elements. Long URLs are replaced by their truncated form and
// every offset refers to the returned text.
func Build(text string, opts BuildOptions) (string, *ElementIndex) {
	index := NewElementIndex()
	if text == "" {
		return "", index
	}

	matchers := opts.matchers()
	enabled := opts.enabled()

	for _, t := range enabled {
		if t == URL {
			text = buildURLs(text, matchers, opts, index)
			break
		}
	}

	for _, t := range enabled {
		if t == URL {
			continue
		}
		if m, ok := matchers[t]; !ok || m == nil {
			slog.Debug("activetext: no matcher configured, skipping category", "type", t)
			continue
		}
		index.ensure(t)
		for _, m := range matchers.Find(t, text) {
			el := newElement(t, m.Text)
			if !opts.accept(t, el.Payload()) {
				continue
			}
			// URLs and earlier categories keep the text they claimed.
			if index.overlaps(m.Range()) {
				continue
			}
			index.add(ElementSpan{Range: m.Range(), Element: el, Type: t})
		}
	}

	index.sortSpans()
	slog.Debug("activetext: built element index", "elements", index.Len(), "types", len(enabled))
	return text, index
}

// buildURLs extracts URLs from text, writes the display form of each one
// into a copy of the text and records their spans against that copy.
func buildURLs(text string, matchers MatcherSet, opts BuildOptions, index *ElementIndex) string {
	index.ensure(URL)
	matches := matchers.Find(URL, text)
	if len(matches) == 0 {
		return text
	}

	var out strings.Builder
	out.Grow(len(text))
	pos, unit, outUnit := 0, 0, 0
	for _, m := range matches {
		if !opts.accept(URL, m.Text) {
			continue
		}
		start := pos + unitToByte(text[pos:], m.Offset-unit)
		out.WriteString(text[pos:start])
		outUnit += m.Offset - unit

		display := Truncate(m.Text, opts.URLMaxLength, opts.Truncation, opts.ellipsis())
		length := utf16Len(display)
		index.add(ElementSpan{
			Range:   Range{Offset: outUnit, Length: length},
			Element: NewURLElement(display, m.Text),
			Type:    URL,
		})
		out.WriteString(display)
		outUnit += length

		pos = start + len(m.Text)
		unit = m.Offset + m.Length
	}
	out.WriteString(text[pos:])
	return out.String()
}

// newElement builds the element for a match of category t.
func newElement(t ActiveType, matched string) Element {
	switch t {
	case Mention:
		return NewMentionElement(strings.TrimPrefix(matched, "@"))
	case Hashtag:
		return NewHashtagElement(strings.TrimPrefix(matched, "#"))
	case URL:
		return NewURLElement(matched, matched)
	default:
		return NewCustomElement(t, matched)
	}
}
