package activetext

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

// TruncationMode selects which part of a long URL stays visible.
type TruncationMode int

const (
	// TruncateMiddle keeps the start and the end of the URL around the ellipsis.
	TruncateMiddle TruncationMode = iota
	// TruncateEnd keeps the start of the URL followed by the ellipsis.
	TruncateEnd
)

// DefaultEllipsis marks the elided part of a shortened URL.
const DefaultEllipsis = "..."

func (m TruncationMode) String() string {
	switch m {
	case TruncateMiddle:
		return "middle"
	case TruncateEnd:
		return "end"
	default:
		return fmt.Sprintf("TruncationMode(%d)", int(m))
	}
}

// ParseTruncationMode parses "middle" or "end". The empty string means middle.
func ParseTruncationMode(s string) (TruncationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "middle":
		return TruncateMiddle, nil
	case "end":
		return TruncateEnd, nil
	default:
		return TruncateMiddle, fmt.Errorf("unknown truncation mode %q", s)
	}
}

// Truncate shortens s to at most max UTF-16 code units. Cuts only happen on
// grapheme cluster boundaries. When max leaves no room next to the ellipsis,
// only a prefix is kept. A max of zero or less disables truncation.
func Truncate(s string, max int, mode TruncationMode, ellipsis string) string {
	if max <= 0 || utf16Len(s) <= max {
		return s
	}
	clusters := graphemeClusters(s)
	el := utf16Len(ellipsis)
	if max <= el {
		return takePrefix(clusters, max)
	}
	budget := max - el
	if mode == TruncateEnd {
		return takePrefix(clusters, budget) + ellipsis
	}
	head := takePrefix(clusters, (budget+1)/2)
	tail := takeSuffix(clusters, budget-utf16Len(head))
	return head + ellipsis + tail
}

func graphemeClusters(s string) []string {
	var clusters []string
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		clusters = append(clusters, gr.Str())
	}
	return clusters
}

// takePrefix joins leading clusters while they fit in budget units.
func takePrefix(clusters []string, budget int) string {
	var b strings.Builder
	used := 0
	for _, c := range clusters {
		n := utf16Len(c)
		if used+n > budget {
			break
		}
		b.WriteString(c)
		used += n
	}
	return b.String()
}

// takeSuffix joins trailing clusters while they fit in budget units.
func takeSuffix(clusters []string, budget int) string {
	used := 0
	i := len(clusters)
	for i > 0 {
		n := utf16Len(clusters[i-1])
		if used+n > budget {
			break
		}
		used += n
		i--
	}
	return strings.Join(clusters[i:], "")
}
