package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/pexe"
	"github.com/wippyai/pexe/bitcode"
	"github.com/wippyai/pexe/dump"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// settings is the merged result of the config file and command-line flags.
type settings struct {
	names       dump.Names
	location    string
	format      string
	maxDepth    int
	maxValues   int
	verbose     bool
	checkLength bool
	showText    bool
	interactive bool
}

func parseArgs(args []string, stderr io.Writer) (settings, error) {
	fs := flag.NewFlagSet("pexedump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		jsonOut     = fs.Bool("json", false, "Print the document as JSON")
		format      = fs.String("format", "", "Output format: text, json or cbor")
		interactive = fs.Bool("i", false, "Interactive mode with TUI")
		configFile  = fs.String("config", "", "YAML or TOML config file")
		verbose     = fs.Bool("v", false, "Verbose decode logging")
		maxDepth    = fs.Int("max-depth", 0, "Maximum block nesting (0 = default)")
		maxValues   = fs.Int("max-values", 0, "Truncate record values in text output (0 = all)")
		checkLength = fs.Bool("check-length", false, "Validate declared block lengths")
		showText    = fs.Bool("strings", false, "Show printable record values as strings")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: pexedump [flags] <file.pexe|url>")
		fmt.Fprintln(stderr, "       pexedump -i <file.pexe|url>  (interactive mode)")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return settings{}, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return settings{}, fmt.Errorf("expected one input, got %d", fs.NArg())
	}

	var cfg config
	if *configFile != "" {
		var err error
		if cfg, err = loadConfig(*configFile); err != nil {
			return settings{}, err
		}
	}
	names, err := cfg.names()
	if err != nil {
		return settings{}, err
	}

	s := settings{
		names:       names,
		location:    fs.Arg(0),
		format:      cfg.Format,
		maxDepth:    cfg.MaxDepth,
		maxValues:   cfg.MaxValues,
		verbose:     cfg.Verbose,
		checkLength: cfg.CheckBlockLength,
		showText:    cfg.ShowText,
		interactive: *interactive,
	}
	// Flags given explicitly override the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "json":
			if *jsonOut {
				s.format = formatJSON
			}
		case "format":
			s.format = *format
		case "v":
			s.verbose = *verbose
		case "max-depth":
			s.maxDepth = *maxDepth
		case "max-values":
			s.maxValues = *maxValues
		case "check-length":
			s.checkLength = *checkLength
		case "strings":
			s.showText = *showText
		}
	})
	if s.format == "" {
		s.format = formatText
	}
	if err := (config{Format: s.format, MaxDepth: s.maxDepth}).validate(); err != nil {
		return settings{}, err
	}
	return s, nil
}

func newLogger(verbose bool, w io.Writer) *zap.Logger {
	if verbose {
		cfg := zap.NewDevelopmentEncoderConfig()
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), zapcore.DebugLevel)
		return zap.New(core)
	}
	cfg := zap.NewProductionEncoderConfig()
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(w), zapcore.WarnLevel)
	return zap.New(core)
}

func (s settings) decodeOptions(log *zap.Logger) []bitcode.Option {
	return []bitcode.Option{
		bitcode.WithLogger(log),
		bitcode.WithMaxDepth(s.maxDepth),
		bitcode.WithBlockLengthCheck(s.checkLength),
	}
}

func (s settings) textOptions(color bool) dump.TextOptions {
	return dump.TextOptions{
		Names:     s.names,
		MaxValues: s.maxValues,
		Color:     color,
		ShowText:  s.showText,
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	s, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	log := newLogger(s.verbose, stderr)
	defer func() { _ = log.Sync() }()

	if s.interactive {
		return runInteractive(ctx, s, log)
	}

	doc, err := pexe.DecodeLocation(ctx, s.location, pexe.Options{
		Decode: s.decodeOptions(log),
		Logger: log,
	})
	if err != nil {
		return err
	}

	switch s.format {
	case formatJSON:
		return dump.JSON(stdout, doc, "  ")
	case formatCBOR:
		return dump.CBOR(stdout, doc)
	default:
		return dump.Text(stdout, doc, s.textOptions(isTerminal(stdout)))
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
