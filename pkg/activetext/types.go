package activetext

import (
	"errors"
	"fmt"
	"strings"
)

// ActiveType is the category of an active element.
type ActiveType string

const (
	Mention ActiveType = "mention" // @handle
	Hashtag ActiveType = "hashtag" // #tag
	URL     ActiveType = "url"     // links, with or without a scheme

	customPrefix = "custom:"
)

// ErrUnknownType is returned when a category name cannot be parsed.
var ErrUnknownType = errors.New("unknown active type")

// Custom returns the ActiveType for an independently configured custom
// pattern. Each id is a distinct type.
func Custom(id string) ActiveType {
	return ActiveType(customPrefix + id)
}

// IsCustom reports whether t was created by Custom.
func (t ActiveType) IsCustom() bool {
	return strings.HasPrefix(string(t), customPrefix)
}

// CustomID returns the id of a custom type, or "" for the built-in types.
func (t ActiveType) CustomID() string {
	if !t.IsCustom() {
		return ""
	}
	return string(t)[len(customPrefix):]
}

func (t ActiveType) String() string {
	return string(t)
}

// ParseActiveType parses "mention", "hashtag", "url" or "custom:<id>".
func ParseActiveType(s string) (ActiveType, error) {
	switch t := ActiveType(strings.TrimSpace(s)); {
	case t == Mention, t == Hashtag, t == URL:
		return t, nil
	case t.IsCustom() && t.CustomID() != "":
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// Range is a half-open range of UTF-16 code units.
type Range struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// End returns the first offset past the range.
func (r Range) End() int {
	return r.Offset + r.Length
}

// Contains reports whether offset falls inside [Offset, End).
func (r Range) Contains(offset int) bool {
	return offset >= r.Offset && offset < r.End()
}

// Overlaps reports whether the two ranges share at least one code unit.
func (r Range) Overlaps(o Range) bool {
	return r.Offset < o.End() && o.Offset < r.End()
}

func (r Range) String() string {
	return fmt.Sprintf("{%d, %d}", r.Offset, r.Length)
}

// Element is the semantic payload of a match.
type Element struct {
	Type ActiveType `json:"type"`
	// Text is the handle, tag, displayed URL or custom match.
	Text string `json:"text"`
	// Original is the untruncated URL. For every other type it equals Text.
	Original string `json:"original,omitempty"`
}

// NewMentionElement creates a mention element for a handle without its '@'.
func NewMentionElement(handle string) Element {
	return Element{Type: Mention, Text: handle, Original: handle}
}

// NewHashtagElement creates a hashtag element for a tag without its '#'.
func NewHashtagElement(tag string) Element {
	return Element{Type: Hashtag, Text: tag, Original: tag}
}

// NewURLElement creates a URL element. display is what the text shows,
// original is the full URL as it appeared in the source text.
func NewURLElement(display, original string) Element {
	return Element{Type: URL, Text: display, Original: original}
}

// NewCustomElement creates an element for a custom type.
func NewCustomElement(t ActiveType, text string) Element {
	return Element{Type: t, Text: text, Original: text}
}

// Payload returns the string handed to tap handlers and filters.
func (e Element) Payload() string {
	if e.Type == URL {
		return e.Original
	}
	return e.Text
}

// Truncated reports whether a URL element displays a shortened form.
func (e Element) Truncated() bool {
	return e.Type == URL && e.Text != e.Original
}

// ElementSpan is an element located in the final text.
type ElementSpan struct {
	Range   Range      `json:"range"`
	Element Element    `json:"element"`
	Type    ActiveType `json:"type"`
}

// utf16Len returns the length of s in UTF-16 code units.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

// runeUnits returns how many UTF-16 code units r occupies.
func runeUnits(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}

// unitToByte converts a UTF-16 offset into a byte offset in s. Offsets past
// the end clamp to len(s); an offset inside a surrogate pair rounds down.
func unitToByte(s string, unit int) int {
	u := 0
	for i, r := range s {
		if u >= unit {
			return i
		}
		n := runeUnits(r)
		if u+n > unit {
			return i
		}
		u += n
	}
	return len(s)
}

// Substring returns the part of s covered by r.
func (r Range) Substring(s string) string {
	start := unitToByte(s, r.Offset)
	end := unitToByte(s, r.End())
	if end < start {
		return ""
	}
	return s[start:end]
}
