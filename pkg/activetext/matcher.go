package activetext

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Match is a raw match produced by a Matcher. Offsets are UTF-16 code units.
type Match struct {
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Text   string `json:"text"`
}

// Range returns the range covered by the match.
func (m Match) Range() Range {
	return Range{Offset: m.Offset, Length: m.Length}
}

// Matcher finds the spans of one category in a text. Results are sorted by
// offset and do not overlap. Implementations must be stateless across calls.
type Matcher interface {
	FindAll(text string) []Match
}

// MatcherFunc adapts a plain function to a Matcher. Its results are
// normalized, so the function may return matches in any order.
type MatcherFunc func(text string) []Match

func (f MatcherFunc) FindAll(text string) []Match {
	return normalizeMatches(f(text))
}

// Regular expressions for the URL category. The host part must not run into
// an identifier or an '@', so e-mail addresses and dotted words are left alone.
var (
	urlPattern = `(?<=^|[\s(\[{<>"'“‘:;,!?*|])` +
		`(?:` +
		`[a-zA-Z][a-zA-Z0-9+.\-]*://[^\s/?#<>"]+` +
		`|` +
		`(?:[\p{L}\p{N}](?:[\p{L}\p{N}\-]*[\p{L}\p{N}])?\.)+\p{Ll}{2,63}(?::\d{1,5})?` +
		`)` +
		`(?![\p{L}\p{N}_\-@])` +
		`(?:[/?#][^\s<>"]*)?`
	urlRegex = regexp2.MustCompile(urlPattern, regexp2.None)

	// trailingPunctuation is never the last character of a URL.
	trailingPunctuation = ".,;:!?'\"*“”‘’"

	// bareTLDs are the top level domains accepted on hosts written without
	// a scheme or "www.", so prose like "hello.world" stays plain text.
	bareTLDs = map[string]bool{
		"com": true, "net": true, "org": true, "edu": true, "gov": true,
		"io": true, "dev": true, "app": true, "co": true, "me": true,
		"info": true, "biz": true, "ai": true, "tv": true, "ly": true,
		"gg": true, "xyz": true, "eu": true, "us": true, "uk": true,
		"de": true, "fr": true, "es": true, "it": true, "nl": true,
		"be": true, "ch": true, "at": true, "se": true, "no": true,
		"pl": true, "ru": true, "jp": true, "cn": true, "kr": true,
		"in": true, "au": true, "nz": true, "ca": true, "br": true,
	}
)

// SigilMatcher matches a sigil followed by identifier characters, such as
// "@jack" or "#golang". The sigil must not follow an identifier character.
type SigilMatcher struct {
	Sigil rune
}

var (
	MentionMatcher Matcher = SigilMatcher{Sigil: '@'}
	HashtagMatcher Matcher = SigilMatcher{Sigil: '#'}
	URLMatcher     Matcher = urlMatcher{}
)

// isIdentifierChar reports whether r may appear in a handle or a tag.
func isIdentifierChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func (m SigilMatcher) FindAll(text string) []Match {
	var matches []Match
	s := newScanner(text)
	for s.hasMoreInput() {
		r, _ := s.peek()
		if r != m.Sigil || isIdentifierChar(s.last) {
			s.consume()
			continue
		}
		s.markPosition()
		s.consume() // the sigil
		if s.takeWhile(isIdentifierChar) == 0 {
			s.popMark()
			continue
		}
		start, startUnit := s.popMark()
		matches = append(matches, Match{
			Offset: startUnit,
			Length: s.unit - startUnit,
			Text:   text[start:s.position],
		})
	}
	return matches
}

type urlMatcher struct{}

func (urlMatcher) FindAll(text string) []Match {
	var matches []Match
	for _, m := range findRegexp2(urlRegex, text) {
		trimmed := trimURL(m.Text)
		if trimmed == "" || strings.HasSuffix(trimmed, "://") || !knownHost(trimmed) {
			continue
		}
		m.Length = utf16Len(trimmed)
		m.Text = trimmed
		matches = append(matches, m)
	}
	return matches
}

// knownHost reports whether u names a scheme, starts with "www." or ends
// its host in one of bareTLDs.
func knownHost(u string) bool {
	if strings.Contains(u, "://") || strings.HasPrefix(strings.ToLower(u), "www.") {
		return true
	}
	host := u
	if i := strings.IndexAny(host, ":/?#"); i >= 0 {
		host = host[:i]
	}
	return bareTLDs[host[strings.LastIndexByte(host, '.')+1:]]
}

// trimURL strips trailing sentence punctuation and closing brackets that
// have no opening partner inside the URL.
func trimURL(u string) string {
	for u != "" {
		r, size := utf8.DecodeLastRuneInString(u)
		switch {
		case strings.ContainsRune(trailingPunctuation, r):
		case r == ')' && strings.Count(u, "(") < strings.Count(u, ")"):
		case r == ']' && strings.Count(u, "[") < strings.Count(u, "]"):
		case r == '}' && strings.Count(u, "{") < strings.Count(u, "}"):
		default:
			return u
		}
		u = u[:len(u)-size]
	}
	return u
}

// Regexp2Matcher matches a regexp2 expression. regexp2 supports lookaround,
// which the boundary rules of most custom patterns need.
type Regexp2Matcher struct {
	re *regexp2.Regexp
}

// NewPatternMatcher compiles a fixed pattern for a custom category.
func NewPatternMatcher(pattern string) (*Regexp2Matcher, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &Regexp2Matcher{re: re}, nil
}

// NewRegexp2Matcher wraps an externally compiled regexp2 expression.
func NewRegexp2Matcher(re *regexp2.Regexp) *Regexp2Matcher {
	return &Regexp2Matcher{re: re}
}

func (m *Regexp2Matcher) FindAll(text string) []Match {
	if m == nil || m.re == nil {
		return nil
	}
	return findRegexp2(m.re, text)
}

func (m *Regexp2Matcher) String() string {
	return m.re.String()
}

// findRegexp2 runs re over text. regexp2 reports rune indexes, which are
// translated to UTF-16 offsets here.
func findRegexp2(re *regexp2.Regexp, text string) []Match {
	var matches []Match
	idx := newRuneIndex(text)
	m, err := re.FindStringMatch(text)
	for err == nil && m != nil {
		if m.Length > 0 {
			start := idx.units[m.Index]
			end := idx.units[m.Index+m.Length]
			matches = append(matches, Match{
				Offset: start,
				Length: end - start,
				Text:   text[idx.bytes[m.Index]:idx.bytes[m.Index+m.Length]],
			})
		}
		m, err = re.FindNextMatch(m)
	}
	return matches
}

// RegexpMatcher matches a standard library (RE2) expression.
type RegexpMatcher struct {
	re *regexp.Regexp
}

// NewRegexpMatcher wraps a compiled RE2 expression.
func NewRegexpMatcher(re *regexp.Regexp) *RegexpMatcher {
	return &RegexpMatcher{re: re}
}

func (m *RegexpMatcher) FindAll(text string) []Match {
	if m == nil || m.re == nil {
		return nil
	}
	var matches []Match
	pos, unit := 0, 0
	for _, loc := range m.re.FindAllStringIndex(text, -1) {
		if loc[1] == loc[0] {
			continue
		}
		unit += utf16Len(text[pos:loc[0]])
		length := utf16Len(text[loc[0]:loc[1]])
		matches = append(matches, Match{Offset: unit, Length: length, Text: text[loc[0]:loc[1]]})
		unit += length
		pos = loc[1]
	}
	return matches
}

func (m *RegexpMatcher) String() string {
	return m.re.String()
}

// MatcherSet maps categories to their matchers.
type MatcherSet map[ActiveType]Matcher

// DefaultMatchers returns a set holding the built-in mention, hashtag and
// URL matchers.
func DefaultMatchers() MatcherSet {
	return MatcherSet{
		Mention: MentionMatcher,
		Hashtag: HashtagMatcher,
		URL:     URLMatcher,
	}
}

// Find runs the matcher registered for t over text. A category without a
// matcher yields no matches.
func (ms MatcherSet) Find(t ActiveType, text string) []Match {
	m, ok := ms[t]
	if !ok || m == nil || text == "" {
		return nil
	}
	return m.FindAll(text)
}

// Clone returns a shallow copy of the set.
func (ms MatcherSet) Clone() MatcherSet {
	out := make(MatcherSet, len(ms))
	for t, m := range ms {
		out[t] = m
	}
	return out
}

// normalizeMatches sorts matches by offset and drops empty or overlapping
// ones, keeping the earliest (and longest, on ties).
func normalizeMatches(matches []Match) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Offset != matches[j].Offset {
			return matches[i].Offset < matches[j].Offset
		}
		return matches[i].Length > matches[j].Length
	})
	out := matches[:0]
	end := -1
	for _, m := range matches {
		if m.Length <= 0 || m.Offset < end {
			continue
		}
		out = append(out, m)
		end = m.Offset + m.Length
	}
	return out
}

// runeIndex maps rune indexes to byte and UTF-16 offsets. Both slices hold
// one extra entry for the end of the text.
type runeIndex struct {
	bytes []int
	units []int
}

func newRuneIndex(text string) runeIndex {
	n := utf8.RuneCountInString(text)
	idx := runeIndex{bytes: make([]int, 0, n+1), units: make([]int, 0, n+1)}
	unit := 0
	for i, r := range text {
		idx.bytes = append(idx.bytes, i)
		idx.units = append(idx.units, unit)
		unit += runeUnits(r)
	}
	idx.bytes = append(idx.bytes, len(text))
	idx.units = append(idx.units, unit)
	return idx
}

// scanner walks a text rune by rune, tracking byte and UTF-16 positions.
type scanner struct {
	input     string
	position  int  // byte offset
	unit      int  // UTF-16 offset
	last      rune // last consumed rune, 0 at the start
	markStack [][2]int
}

func newScanner(input string) *scanner {
	return &scanner{input: input}
}

func (s *scanner) hasMoreInput() bool {
	return s.position < len(s.input)
}

func (s *scanner) peek() (rune, bool) {
	if s.position >= len(s.input) {
		return rune(0), false
	}
	r, size := utf8.DecodeRuneInString(s.input[s.position:])
	return r, size > 0
}

func (s *scanner) consume() rune {
	r, size := utf8.DecodeRuneInString(s.input[s.position:])
	if size == 0 {
		return r
	}
	s.position += size
	s.unit += runeUnits(r)
	s.last = r
	return r
}

// takeWhile consumes runes while accept holds and returns how many it took.
func (s *scanner) takeWhile(accept func(rune) bool) int {
	n := 0
	for {
		r, ok := s.peek()
		if !ok || !accept(r) {
			return n
		}
		s.consume()
		n++
	}
}

func (s *scanner) markPosition() {
	s.markStack = append(s.markStack, [2]int{s.position, s.unit})
}

// popMark removes the latest mark and returns its byte and UTF-16 offsets.
func (s *scanner) popMark() (int, int) {
	if len(s.markStack) == 0 {
		return 0, 0
	}
	m := s.markStack[len(s.markStack)-1]
	s.markStack = s.markStack[:len(s.markStack)-1]
	return m[0], m[1]
}
