package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spicery/activetext/pkg/activetext"
	"gopkg.in/yaml.v3"
)

const (
	version = "0.1.0"
	usage   = `activetext - Find mentions, hashtags, URLs and custom patterns in text

Usage:
  activetext [options]

Options:
  -h, --help            Show this help message
  --version             Show version information
  --input <file>        Input file (defaults to stdin)
  --output <file>       Output file (defaults to stdout)
  --rules <file>        YAML rules file (optional)
  --max-url <n>         Truncate displayed URLs longer than n (overrides the rules file)
  --make-rules          Generate default rules YAML to stdout
  --view                Show the text in an interactive terminal viewer
  -v, -vv, -q           Log at info, debug or error level (default warn)

Examples:
  activetext                                        # Read from stdin, write to stdout
  activetext --input post.txt                       # Read from file, write to stdout
  activetext --input post.txt --output post.jsonl   # Read from file, write to file
  activetext --rules custom.yaml --input post.txt   # Use custom rules
  activetext --make-rules                           # Generate default rules configuration
  activetext --view --input post.txt                # Click on elements in a terminal
  echo "hi @ana #go https://go.dev" | activetext

The scanner outputs one JSON element object per line, followed by a final
object holding the display text.
`
)

// elementRecord is the JSON form of one element.
type elementRecord struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Original string `json:"original,omitempty"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
}

type textRecord struct {
	Text string `json:"text"`
}

func main() {
	var showHelp, showVersion, makeRules, view bool
	var verbose, debug, quiet bool
	var inputFile, outputFile, rulesFile string
	var maxURL int

	flag.BoolVar(&showHelp, "h", false, "Show help")
	flag.BoolVar(&showHelp, "help", false, "Show help")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&makeRules, "make-rules", false, "Generate default rules YAML")
	flag.BoolVar(&view, "view", false, "Interactive terminal viewer")
	flag.BoolVar(&verbose, "v", false, "Log at info level")
	flag.BoolVar(&debug, "vv", false, "Log at debug level")
	flag.BoolVar(&quiet, "q", false, "Log errors only")
	flag.StringVar(&inputFile, "input", "", "Input file (defaults to stdin)")
	flag.StringVar(&outputFile, "output", "", "Output file (defaults to stdout)")
	flag.StringVar(&rulesFile, "rules", "", "YAML rules file (optional)")
	flag.IntVar(&maxURL, "max-url", -1, "Maximum displayed URL length")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
	}

	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelFromFlags(debug, verbose, quiet),
	})))

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("activetext version %s\n", version)
		os.Exit(0)
	}

	if makeRules {
		err := generateDefaultConfig(os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating default rules: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Reject any positional arguments
	if len(flag.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "Error: Unexpected positional arguments. Use --input and --output flags instead.\n\n")
		flag.Usage()
		os.Exit(1)
	}

	input, err := readInput(os.Stdin, inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}

	config, err := loadConfig(rulesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rules file '%s': %v\n", rulesFile, err)
		os.Exit(1)
	}
	if maxURL >= 0 {
		config.URLMaxLength = maxURL
	}

	if view {
		if err := runViewer(input, config); err != nil {
			fmt.Fprintf(os.Stderr, "Error running viewer: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Prepare output destination
	var output io.Writer
	var outputCloser io.Closer

	if outputFile == "" {
		output = os.Stdout
	} else {
		file, err := os.Create(outputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output file '%s': %v\n", outputFile, err)
			os.Exit(1)
		}
		output = file
		outputCloser = file
	}

	text, index := activetext.Build(input, config.BuildOptions())
	slog.Info("scanned input", "elements", index.Len(), "bytes", len(input))

	if err := writeElements(output, text, index.All()); err != nil {
		fmt.Fprintf(os.Stderr, "JSON encoding error: %v\n", err)
		os.Exit(1)
	}

	// Close output file if we opened one
	if outputCloser != nil {
		if err := outputCloser.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing output file '%s': %v\n", outputFile, err)
			os.Exit(1)
		}
	}
}

// levelFromFlags maps the verbosity flags to a log level. Earlier flags
// win: -vv beats -v beats -q.
func levelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// loadConfig returns the default rules, or those of filename applied on
// top of them.
func loadConfig(filename string) (*activetext.Config, error) {
	if filename == "" {
		return activetext.DefaultRules(), nil
	}
	rules, err := activetext.LoadRulesFile(filename)
	if err != nil {
		return nil, err
	}
	config, err := activetext.ApplyRulesToDefaults(rules)
	if err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	return config, nil
}

// writeElements writes one JSON object per element, then the display text.
func writeElements(w io.Writer, text string, spans []activetext.ElementSpan) error {
	for _, span := range spans {
		record := elementRecord{
			Type:   span.Type.String(),
			Text:   span.Element.Text,
			Offset: span.Range.Offset,
			Length: span.Range.Length,
		}
		if span.Type == activetext.URL {
			record.Original = span.Element.Original
		}
		jsonBytes, err := json.Marshal(record)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(jsonBytes))
	}
	jsonBytes, err := json.Marshal(textRecord{Text: text})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(jsonBytes))
	return err
}

// readInput returns the text to scan: the contents of filename, or all of
// stdin when no file is given.
func readInput(stdin io.Reader, filename string) (string, error) {
	if filename == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("input file '%s': %w", filename, err)
	}
	return string(data), nil
}

// generateDefaultConfig writes the default configuration in YAML format.
func generateDefaultConfig(w io.Writer) error {
	yamlBytes, err := yaml.Marshal(activetext.DefaultRules().RulesFile())
	if err != nil {
		return fmt.Errorf("failed to marshal rules to YAML: %w", err)
	}
	_, err = w.Write(yamlBytes)
	return err
}
