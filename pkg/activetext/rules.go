package activetext

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"gopkg.in/yaml.v3"
)

// RulesFile represents the structure of a YAML rules file
type RulesFile struct {
	Enabled             []string             `yaml:"enabled,omitempty"`
	URL                 URLRule              `yaml:"url"`
	FuzzyHeightMatching bool                 `yaml:"fuzzy_height_matching"`
	Colors              map[string]ColorRule `yaml:"colors,omitempty"`
	Custom              []CustomRule         `yaml:"custom,omitempty"`
	HighlightFont       *Font                `yaml:"highlight_font,omitempty"`
	LineSpacing         float64              `yaml:"line_spacing"`
	MinimumLineHeight   float64              `yaml:"minimum_line_height"`
}

// URLRule configures URL truncation
type URLRule struct {
	MaxLength  int    `yaml:"max_length"`
	Truncation string `yaml:"truncation,omitempty"`
	Ellipsis   string `yaml:"ellipsis,omitempty"`
}

// ColorRule holds the normal and pressed colors of a category
type ColorRule struct {
	Color    string `yaml:"color,omitempty"`
	Selected string `yaml:"selected,omitempty"`
}

// CustomRule represents a custom pattern category
type CustomRule struct {
	ID       string `yaml:"id"`
	Pattern  string `yaml:"pattern"`
	Engine   string `yaml:"engine,omitempty"` // regexp2 (default) or re2
	Color    string `yaml:"color,omitempty"`
	Selected string `yaml:"selected,omitempty"`
}

// Pattern engines for custom rules.
const (
	EngineRegexp2 = "regexp2"
	EngineRE2     = "re2"
)

// Config is a validated rules file, ready to apply to a Label.
type Config struct {
	EnabledTypes        []ActiveType
	URLMaxLength        int
	Truncation          TruncationMode
	Ellipsis            string
	FuzzyHeightMatching bool
	Colors              map[ActiveType]tcell.Color
	SelectedColors      map[ActiveType]tcell.Color
	Matchers            MatcherSet // custom categories only
	HighlightFont       Font
	Paragraph           ParagraphStyle

	customRules []CustomRule
}

// DefaultRules returns the default configuration
func DefaultRules() *Config {
	return &Config{
		EnabledTypes: append([]ActiveType(nil), DefaultEnabledTypes...),
		Truncation:   TruncateMiddle,
		Ellipsis:     DefaultEllipsis,
		Colors: map[ActiveType]tcell.Color{
			Mention: DefaultActiveColor,
			Hashtag: DefaultActiveColor,
			URL:     DefaultActiveColor,
		},
		SelectedColors: make(map[ActiveType]tcell.Color),
		Matchers:       make(MatcherSet),
	}
}

// LoadRulesFile reads a YAML rules file: the enabled categories, URL
// truncation, per category colors, custom patterns and text metrics. The
// result is not validated; pass it to ApplyRulesToDefaults.
func LoadRulesFile(filename string) (*RulesFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file '%s': %w", filename, err)
	}
	rules := new(RulesFile)
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("invalid YAML in rules file '%s': %w", filename, err)
	}
	return rules, nil
}

// ApplyRulesToDefaults applies the rules from a RulesFile on top of
// DefaultRules. Returns an error for unknown categories, duplicate custom
// ids, bad colors or patterns.
func ApplyRulesToDefaults(rules *RulesFile) (*Config, error) {
	config := DefaultRules()
	if rules == nil {
		return config, nil
	}

	// Apply custom rules first so enabled and colors can refer to them
	for _, rule := range rules.Custom {
		if rule.ID == "" {
			return nil, fmt.Errorf("custom rule with pattern '%s' has no id", rule.Pattern)
		}
		t := Custom(rule.ID)
		if _, exists := config.Matchers[t]; exists {
			return nil, fmt.Errorf("custom pattern '%s' is defined more than once", rule.ID)
		}
		matcher, err := compileCustomRule(rule)
		if err != nil {
			return nil, err
		}
		config.Matchers[t] = matcher
		config.customRules = append(config.customRules, rule)

		if err := applyColorRule(config, t, ColorRule{Color: rule.Color, Selected: rule.Selected}); err != nil {
			return nil, err
		}
	}

	// Apply enabled categories
	if len(rules.Enabled) > 0 {
		config.EnabledTypes = nil
		for _, name := range rules.Enabled {
			t, err := ParseActiveType(name)
			if err != nil {
				return nil, err
			}
			if _, ok := config.Matchers[t]; t.IsCustom() && !ok {
				return nil, fmt.Errorf("custom type '%s' is enabled but has no pattern", t.CustomID())
			}
			config.EnabledTypes = append(config.EnabledTypes, t)
		}
	} else {
		for _, rule := range config.customRules {
			config.EnabledTypes = append(config.EnabledTypes, Custom(rule.ID))
		}
	}

	// Apply URL rules
	if rules.URL.MaxLength < 0 {
		return nil, fmt.Errorf("url max_length must not be negative, got %d", rules.URL.MaxLength)
	}
	config.URLMaxLength = rules.URL.MaxLength
	mode, err := ParseTruncationMode(rules.URL.Truncation)
	if err != nil {
		return nil, err
	}
	config.Truncation = mode
	if rules.URL.Ellipsis != "" {
		config.Ellipsis = rules.URL.Ellipsis
	}

	// Apply color rules
	for name, rule := range rules.Colors {
		t, err := ParseActiveType(name)
		if err != nil {
			return nil, err
		}
		if err := applyColorRule(config, t, rule); err != nil {
			return nil, err
		}
	}

	config.FuzzyHeightMatching = rules.FuzzyHeightMatching
	if rules.HighlightFont != nil {
		config.HighlightFont = *rules.HighlightFont
	}
	config.Paragraph = ParagraphStyle{
		LineSpacing:       rules.LineSpacing,
		MinimumLineHeight: rules.MinimumLineHeight,
	}

	return config, nil
}

func compileCustomRule(rule CustomRule) (Matcher, error) {
	switch strings.ToLower(rule.Engine) {
	case "", EngineRegexp2:
		m, err := NewPatternMatcher(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("custom pattern '%s': %w", rule.ID, err)
		}
		return m, nil
	case EngineRE2:
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("custom pattern '%s': invalid pattern %q: %w", rule.ID, rule.Pattern, err)
		}
		return NewRegexpMatcher(re), nil
	default:
		return nil, fmt.Errorf("custom pattern '%s': unknown engine '%s'", rule.ID, rule.Engine)
	}
}

func applyColorRule(config *Config, t ActiveType, rule ColorRule) error {
	if rule.Color != "" {
		c, err := ParseColor(rule.Color)
		if err != nil {
			return fmt.Errorf("color for '%s': %w", t, err)
		}
		config.Colors[t] = c
	}
	if rule.Selected != "" {
		c, err := ParseColor(rule.Selected)
		if err != nil {
			return fmt.Errorf("selected color for '%s': %w", t, err)
		}
		config.SelectedColors[t] = c
	}
	return nil
}

// ParseColor parses a color name ("blue", "navy") or a "#rrggbb" value.
func ParseColor(s string) (tcell.Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	c := tcell.GetColor(name)
	if c == tcell.ColorDefault && name != "default" {
		return c, fmt.Errorf("unknown color '%s'", s)
	}
	return c, nil
}

// ColorName formats c so that ParseColor reads it back.
func ColorName(c tcell.Color) string {
	if c == tcell.ColorDefault {
		return "default"
	}
	var names []string
	for name, named := range tcell.ColorNames {
		if named == c {
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		sort.Strings(names)
		return names[0]
	}
	return fmt.Sprintf("#%06x", c.Hex())
}

// BuildOptions returns the build options described by the configuration.
func (c *Config) BuildOptions() BuildOptions {
	return BuildOptions{
		EnabledTypes: append([]ActiveType(nil), c.EnabledTypes...),
		URLMaxLength: c.URLMaxLength,
		Truncation:   c.Truncation,
		Ellipsis:     c.Ellipsis,
		Matchers:     c.Matchers.Clone(),
	}
}

// RulesFile converts the configuration back to its YAML form.
func (c *Config) RulesFile() *RulesFile {
	rules := &RulesFile{
		URL: URLRule{
			MaxLength:  c.URLMaxLength,
			Truncation: c.Truncation.String(),
			Ellipsis:   c.Ellipsis,
		},
		FuzzyHeightMatching: c.FuzzyHeightMatching,
		Colors:              make(map[string]ColorRule),
		LineSpacing:         c.Paragraph.LineSpacing,
		MinimumLineHeight:   c.Paragraph.MinimumLineHeight,
	}

	for _, t := range c.EnabledTypes {
		rules.Enabled = append(rules.Enabled, t.String())
	}

	// Convert custom rules, carrying their colors along
	customs := make(map[ActiveType]bool)
	for _, rule := range c.customRules {
		t := Custom(rule.ID)
		customs[t] = true
		rule.Color, rule.Selected = "", ""
		if col, ok := c.Colors[t]; ok {
			rule.Color = ColorName(col)
		}
		if col, ok := c.SelectedColors[t]; ok {
			rule.Selected = ColorName(col)
		}
		rules.Custom = append(rules.Custom, rule)
	}

	// Convert color rules for the remaining categories
	for t, col := range c.Colors {
		if customs[t] {
			continue
		}
		rule := rules.Colors[t.String()]
		rule.Color = ColorName(col)
		rules.Colors[t.String()] = rule
	}
	for t, col := range c.SelectedColors {
		if customs[t] {
			continue
		}
		rule := rules.Colors[t.String()]
		rule.Selected = ColorName(col)
		rules.Colors[t.String()] = rule
	}

	if !c.HighlightFont.IsZero() {
		font := c.HighlightFont
		rules.HighlightFont = &font
	}
	return rules
}

// MarshalYAML renders the configuration as a rules file.
func (c *Config) MarshalYAML() (interface{}, error) {
	return c.RulesFile(), nil
}
