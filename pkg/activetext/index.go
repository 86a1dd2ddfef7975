package activetext

import "sort"

// ElementIndex holds the spans of one build, grouped by category. It is
// rebuilt whenever the text or the enabled categories change and never
// patched in place.
type ElementIndex struct {
	order []ActiveType // categories in insertion order
	spans map[ActiveType][]ElementSpan
}

// NewElementIndex returns an empty index.
func NewElementIndex() *ElementIndex {
	return &ElementIndex{spans: make(map[ActiveType][]ElementSpan)}
}

// add appends a span. Callers sort once the build is complete.
func (ix *ElementIndex) add(span ElementSpan) {
	if _, ok := ix.spans[span.Type]; !ok {
		ix.order = append(ix.order, span.Type)
	}
	ix.spans[span.Type] = append(ix.spans[span.Type], span)
}

// ensure registers t so it keeps its place in the scan order even when it
// has no spans.
func (ix *ElementIndex) ensure(t ActiveType) {
	if _, ok := ix.spans[t]; !ok {
		ix.order = append(ix.order, t)
		ix.spans[t] = nil
	}
}

func (ix *ElementIndex) sortSpans() {
	for _, spans := range ix.spans {
		sort.Slice(spans, func(i, j int) bool {
			return spans[i].Range.Offset < spans[j].Range.Offset
		})
	}
}

// SpanAt returns the span whose range contains offset. Categories are
// scanned in insertion order: URL first, then the enabled order.
func (ix *ElementIndex) SpanAt(offset int) (ElementSpan, bool) {
	if ix == nil {
		return ElementSpan{}, false
	}
	for _, t := range ix.order {
		spans := ix.spans[t]
		i := sort.Search(len(spans), func(i int) bool {
			return spans[i].Range.End() > offset
		})
		if i < len(spans) && spans[i].Range.Contains(offset) {
			return spans[i], true
		}
	}
	return ElementSpan{}, false
}

// Lookup re-resolves a stored (type, range) pair against the current
// contents.
func (ix *ElementIndex) Lookup(t ActiveType, r Range) (ElementSpan, bool) {
	if ix == nil {
		return ElementSpan{}, false
	}
	spans := ix.spans[t]
	i := sort.Search(len(spans), func(i int) bool {
		return spans[i].Range.Offset >= r.Offset
	})
	if i < len(spans) && spans[i].Range == r {
		return spans[i], true
	}
	return ElementSpan{}, false
}

// overlaps reports whether r intersects any span already in the index.
func (ix *ElementIndex) overlaps(r Range) bool {
	for _, spans := range ix.spans {
		for _, s := range spans {
			if s.Range.Overlaps(r) {
				return true
			}
		}
	}
	return false
}

// Clear removes every span.
func (ix *ElementIndex) Clear() {
	ix.order = nil
	ix.spans = make(map[ActiveType][]ElementSpan)
}

// Rebuild replaces the contents with those of other. The two indexes do
// not share storage afterwards.
func (ix *ElementIndex) Rebuild(other *ElementIndex) {
	ix.Clear()
	if other == nil {
		return
	}
	for _, t := range other.order {
		ix.order = append(ix.order, t)
		ix.spans[t] = append([]ElementSpan(nil), other.spans[t]...)
	}
}

// Spans returns a copy of the spans of t, sorted by offset.
func (ix *ElementIndex) Spans(t ActiveType) []ElementSpan {
	if ix == nil {
		return nil
	}
	return append([]ElementSpan(nil), ix.spans[t]...)
}

// Types returns the categories in scan order.
func (ix *ElementIndex) Types() []ActiveType {
	if ix == nil {
		return nil
	}
	return append([]ActiveType(nil), ix.order...)
}

// All returns every span sorted by offset.
func (ix *ElementIndex) All() []ElementSpan {
	if ix == nil {
		return nil
	}
	var all []ElementSpan
	for _, t := range ix.order {
		all = append(all, ix.spans[t]...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Range.Offset < all[j].Range.Offset
	})
	return all
}

// Len returns the number of spans.
func (ix *ElementIndex) Len() int {
	if ix == nil {
		return 0
	}
	n := 0
	for _, spans := range ix.spans {
		n += len(spans)
	}
	return n
}
