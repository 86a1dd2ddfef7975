package activetext

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleRules = `
enabled: [mention, url, "custom:brand"]
url:
  max_length: 20
  truncation: end
  ellipsis: "…"
fuzzy_height_matching: true
colors:
  mention: {color: red, selected: navy}
custom:
  - id: brand
    pattern: '\bactivetext\b'
    color: green
    selected: "#00ff00"
  - id: ticket
    pattern: 'T-\d+'
    engine: re2
highlight_font: {name: Menlo, size: 14}
line_spacing: 1
minimum_line_height: 2
`

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndApplyRules(t *testing.T) {
	rules, err := LoadRulesFile(writeRules(t, sampleRules))
	require.NoError(t, err)

	config, err := ApplyRulesToDefaults(rules)
	require.NoError(t, err)

	brand := Custom("brand")
	assert.Equal(t, []ActiveType{Mention, URL, brand}, config.EnabledTypes)
	assert.Equal(t, 20, config.URLMaxLength)
	assert.Equal(t, TruncateEnd, config.Truncation)
	assert.Equal(t, "…", config.Ellipsis)
	assert.True(t, config.FuzzyHeightMatching)
	assert.Equal(t, tcell.ColorRed, config.Colors[Mention])
	assert.Equal(t, tcell.ColorNavy, config.SelectedColors[Mention])
	assert.Equal(t, tcell.ColorGreen, config.Colors[brand])
	assert.Equal(t, tcell.NewHexColor(0x00ff00), config.SelectedColors[brand])
	assert.Equal(t, tcell.ColorBlue, config.Colors[Hashtag], "defaults are kept")
	assert.Equal(t, Font{Name: "Menlo", Size: 14}, config.HighlightFont)
	assert.Equal(t, ParagraphStyle{LineSpacing: 1, MinimumLineHeight: 2}, config.Paragraph)
	assert.Len(t, config.Matchers, 2)

	// The ticket pattern is compiled but not enabled.
	_, index := Build("activetext T-12 @jack #tag", config.BuildOptions())
	assert.Len(t, index.Spans(brand), 1)
	assert.Empty(t, index.Spans(Custom("ticket")))
	assert.Empty(t, index.Spans(Hashtag))
	assert.Len(t, index.Spans(Mention), 1)
}

func TestApplyRulesEnablesCustomByDefault(t *testing.T) {
	config, err := ApplyRulesToDefaults(&RulesFile{
		Custom: []CustomRule{{ID: "ticket", Pattern: `T-\d+`, Engine: EngineRE2}},
	})
	require.NoError(t, err)
	assert.Equal(t, []ActiveType{Mention, Hashtag, URL, Custom("ticket")}, config.EnabledTypes)
	assert.Equal(t, DefaultCustomColor, NewStyler().Color(Custom("ticket")))

	_, index := Build("see T-42", config.BuildOptions())
	spans := index.Spans(Custom("ticket"))
	require.Len(t, spans, 1)
	assert.Equal(t, "T-42", spans[0].Element.Text)
}

func TestApplyRulesNil(t *testing.T) {
	config, err := ApplyRulesToDefaults(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), config)
}

func TestApplyRulesErrors(t *testing.T) {
	tests := []struct {
		name  string
		rules RulesFile
	}{
		{"Unknown enabled type", RulesFile{Enabled: []string{"email"}}},
		{"Unknown color type", RulesFile{Colors: map[string]ColorRule{"email": {Color: "red"}}}},
		{"Bad color", RulesFile{Colors: map[string]ColorRule{"mention": {Color: "blurple"}}}},
		{"Bad selected color", RulesFile{Colors: map[string]ColorRule{"mention": {Selected: "#zzzzzz"}}}},
		{"Duplicate custom id", RulesFile{Custom: []CustomRule{{ID: "a", Pattern: "a"}, {ID: "a", Pattern: "b"}}}},
		{"Missing custom id", RulesFile{Custom: []CustomRule{{Pattern: "a"}}}},
		{"Bad regexp2 pattern", RulesFile{Custom: []CustomRule{{ID: "a", Pattern: "("}}}},
		{"Bad re2 pattern", RulesFile{Custom: []CustomRule{{ID: "a", Pattern: `(?<=x)a`, Engine: EngineRE2}}}},
		{"Unknown engine", RulesFile{Custom: []CustomRule{{ID: "a", Pattern: "a", Engine: "pcre"}}}},
		{"Bad custom color", RulesFile{Custom: []CustomRule{{ID: "a", Pattern: "a", Color: "nope"}}}},
		{"Enabled custom without pattern", RulesFile{Enabled: []string{"custom:missing"}}},
		{"Negative max length", RulesFile{URL: URLRule{MaxLength: -1}}},
		{"Bad truncation", RulesFile{URL: URLRule{Truncation: "start"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplyRulesToDefaults(&tt.rules)
			assert.Error(t, err)
		})
	}
}

func TestApplyRulesUnknownTypeIsWrapped(t *testing.T) {
	_, err := ApplyRulesToDefaults(&RulesFile{Enabled: []string{"email"}})
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestLoadRulesFileErrors(t *testing.T) {
	_, err := LoadRulesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadRulesFile(writeRules(t, "enabled: [unterminated"))
	assert.Error(t, err)
}

func TestRulesFileRoundTrip(t *testing.T) {
	rules, err := LoadRulesFile(writeRules(t, sampleRules))
	require.NoError(t, err)
	config, err := ApplyRulesToDefaults(rules)
	require.NoError(t, err)

	data, err := yaml.Marshal(config)
	require.NoError(t, err)

	reloaded, err := LoadRulesFile(writeRules(t, string(data)))
	require.NoError(t, err)
	again, err := ApplyRulesToDefaults(reloaded)
	require.NoError(t, err)

	assert.Equal(t, config.EnabledTypes, again.EnabledTypes)
	assert.Equal(t, config.URLMaxLength, again.URLMaxLength)
	assert.Equal(t, config.Truncation, again.Truncation)
	assert.Equal(t, config.Ellipsis, again.Ellipsis)
	assert.Equal(t, config.FuzzyHeightMatching, again.FuzzyHeightMatching)
	assert.Equal(t, config.Colors, again.Colors)
	assert.Equal(t, config.SelectedColors, again.SelectedColors)
	assert.Equal(t, config.HighlightFont, again.HighlightFont)
	assert.Equal(t, config.Paragraph, again.Paragraph)
	assert.Equal(t, config.RulesFile().Custom, again.RulesFile().Custom)
}

func TestDefaultRulesRoundTrip(t *testing.T) {
	data, err := yaml.Marshal(DefaultRules().RulesFile())
	require.NoError(t, err)

	var rules RulesFile
	require.NoError(t, yaml.Unmarshal(data, &rules))
	config, err := ApplyRulesToDefaults(&rules)
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), config)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		input    string
		expected tcell.Color
		wantErr  bool
	}{
		{"blue", tcell.ColorBlue, false},
		{" Navy ", tcell.ColorNavy, false},
		{"#ff0000", tcell.NewHexColor(0xff0000), false},
		{"default", tcell.ColorDefault, false},
		{"blurple", tcell.ColorDefault, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestColorNameRoundTrip(t *testing.T) {
	colors := []tcell.Color{
		tcell.ColorDefault,
		tcell.ColorBlue,
		tcell.ColorNavy,
		tcell.ColorGreen,
		tcell.NewRGBColor(1, 2, 3),
	}

	for _, c := range colors {
		name := ColorName(c)
		got, err := ParseColor(name)
		require.NoError(t, err, name)
		assert.Equal(t, c, got, name)
	}
	assert.Equal(t, "#010203", ColorName(tcell.NewRGBColor(1, 2, 3)))
}
