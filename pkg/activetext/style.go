package activetext

import "github.com/gdamore/tcell/v2"

// Font names a font override. The zero value means "keep the current font".
type Font struct {
	Name string  `yaml:"name"`
	Size float64 `yaml:"size"`
}

// IsZero reports whether f overrides nothing.
func (f Font) IsZero() bool {
	return f.Name == "" && f.Size == 0
}

// Attributes are the visual attributes applied to a range of text.
type Attributes struct {
	Foreground tcell.Color
	Background tcell.Color
	Font       Font
	Bold       bool
	Underline  bool
}

// ParagraphStyle carries line metrics for the whole text.
type ParagraphStyle struct {
	LineSpacing       float64
	MinimumLineHeight float64
}

// AttributeTransform lets callers adjust the attributes of a category,
// selected or not, after the defaults have been applied.
type AttributeTransform func(t ActiveType, base Attributes, selected bool) Attributes

// Display is the drawing side of the host toolkit.
type Display interface {
	SetDisplayText(text string)
	ApplyStyle(r Range, attrs Attributes)
	RequestRedraw()
}

// ParagraphStyler is implemented by displays that support line metrics.
type ParagraphStyler interface {
	SetParagraphStyle(p ParagraphStyle)
}

// Default colors.
var (
	DefaultActiveColor = tcell.ColorBlue
	DefaultCustomColor = tcell.ColorBlack
)

// minimumLineHeightFactor derives a line height from the font size when no
// minimum is configured.
const minimumLineHeightFactor = 1.14

// Styler computes and applies the attributes of active elements.
type Styler struct {
	Base           Attributes
	Colors         map[ActiveType]tcell.Color
	SelectedColors map[ActiveType]tcell.Color
	HighlightFont  Font
	Paragraph      ParagraphStyle
	Transform      AttributeTransform
}

// NewStyler returns a styler with blue mentions, hashtags and URLs.
func NewStyler() *Styler {
	return &Styler{
		Base: Attributes{Foreground: tcell.ColorDefault, Background: tcell.ColorDefault},
		Colors: map[ActiveType]tcell.Color{
			Mention: DefaultActiveColor,
			Hashtag: DefaultActiveColor,
			URL:     DefaultActiveColor,
		},
		SelectedColors: make(map[ActiveType]tcell.Color),
	}
}

// Color returns the color of category t.
func (s *Styler) Color(t ActiveType) tcell.Color {
	if c, ok := s.Colors[t]; ok {
		return c
	}
	if t.IsCustom() {
		return DefaultCustomColor
	}
	return DefaultActiveColor
}

// SelectedColor returns the color of a pressed element of category t,
// falling back to its normal color.
func (s *Styler) SelectedColor(t ActiveType) tcell.Color {
	if c, ok := s.SelectedColors[t]; ok {
		return c
	}
	return s.Color(t)
}

// Attributes returns the attributes of an element of category t.
func (s *Styler) Attributes(t ActiveType, selected bool) Attributes {
	attrs := s.Base
	if selected {
		attrs.Foreground = s.SelectedColor(t)
	} else {
		attrs.Foreground = s.Color(t)
	}
	if !s.HighlightFont.IsZero() {
		attrs.Font = s.HighlightFont
	}
	if s.Transform != nil {
		attrs = s.Transform(t, attrs, selected)
	}
	return attrs
}

// ParagraphStyle returns the paragraph style with the minimum line height
// derived from the base font when none is set.
func (s *Styler) ParagraphStyle() ParagraphStyle {
	p := s.Paragraph
	if p.MinimumLineHeight <= 0 && s.Base.Font.Size > 0 {
		p.MinimumLineHeight = s.Base.Font.Size * minimumLineHeightFactor
	}
	return p
}

// Restyle applies the base attributes to the whole text and the category
// attributes to every span of index. It never rescans the text.
func (s *Styler) Restyle(d Display, text string, index *ElementIndex) {
	if d == nil {
		return
	}
	if ps, ok := d.(ParagraphStyler); ok {
		ps.SetParagraphStyle(s.ParagraphStyle())
	}
	if n := utf16Len(text); n > 0 {
		d.ApplyStyle(Range{Offset: 0, Length: n}, s.Base)
	}
	for _, t := range index.Types() {
		attrs := s.Attributes(t, false)
		for _, span := range index.Spans(t) {
			d.ApplyStyle(span.Range, attrs)
		}
	}
	d.RequestRedraw()
}

// Highlight switches the selected look of span on or off.
func (s *Styler) Highlight(d Display, span ElementSpan, on bool) {
	if d == nil {
		return
	}
	d.ApplyStyle(span.Range, s.Attributes(span.Type, on))
	d.RequestRedraw()
}
