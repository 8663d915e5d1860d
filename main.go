package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/mcncl/treediff/internal/config"
	"github.com/mcncl/treediff/internal/diff"
	"github.com/mcncl/treediff/internal/errors"
	"github.com/mcncl/treediff/internal/log"
	"github.com/mcncl/treediff/internal/models"
	"github.com/mcncl/treediff/internal/parser"
	"github.com/mcncl/treediff/internal/query"
	"github.com/mcncl/treediff/internal/render"
)

// CLI defines the command-line interface
var CLI struct {
	Before string `arg:"" optional:"" help:"Document before the change (JSON or YAML file, '-' for stdin)."`
	After  string `arg:"" optional:"" help:"Document after the change (JSON or YAML file, '-' for stdin)."`

	Output        string   `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	Format        string   `help:"Output format: tree, json, yaml, report, summary or ascii." short:"f"`
	Config        string   `help:"Path to a config file. Defaults to the nearest .treediff.yml." short:"c" type:"path"`
	InputFormat   string   `help:"Input format: auto, json or yaml."`
	ResolveRefs   bool     `help:"Inline local $ref pointers before comparing."`
	Normalize     bool     `help:"Report changed scalars and mismatched shapes as removed."`
	ArrayMatching string   `help:"Array element matching: permissive or exclusive."`
	MaxDepth      int      `help:"Maximum nesting depth of the input documents (0 keeps the configured limit)."`
	Focus         string   `help:"Compare only the sub-document at this path (e.g. paths./pets or #/paths/~1pets)."`
	Ignore        []string `help:"Regex of node paths to leave out of the tree. Repeatable." sep:"none"`
	KeyCase       string   `help:"Normalize object keys before comparing: snake, camel, lower_camel or kebab."`
	ShowUnchanged bool     `help:"Show unchanged nodes in the text tree."`
	Color         string   `help:"Colorize output: auto, always or never." enum:"auto,always,never" default:"auto"`
	ExitCode      bool     `help:"Exit with status 1 when the documents differ."`
	Debug         bool     `help:"Enable debug logging." short:"d"`
	Version       bool     `help:"Show version information." short:"v"`
}

// Context holds the runtime context
type Context struct {
	Debug  bool
	Config *config.Config
	Stdin  io.Reader
	Stdout io.Writer
}

// Version information
const (
	Version = "0.1.0"
)

// Exit codes
const (
	exitOK          = 0
	exitDifferences = 1
	exitError       = 2
)

func main() {
	// Parse CLI arguments with Kong
	app := kong.Must(&CLI,
		kong.Name("treediff"),
		kong.Description("Compare two JSON or YAML documents and print a structural diff tree"),
		kong.UsageOnError(),
	)

	// Parse the command line arguments
	if _, err := app.Parse(os.Args[1:]); err != nil {
		// The usage is already shown by kong.UsageOnError()
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(exitError)
	}

	// Show version and exit if requested
	if CLI.Version {
		fmt.Printf("treediff version %s\n", Version)
		return
	}

	log.InitLogger(CLI.Debug)
	cfg, err := loadConfig()
	if err == nil {
		if cfg.Dev.Debug && !CLI.Debug {
			log.InitLogger(true)
		}
		if cfg.Dev.Verbose {
			log.Verbose()
		}
		var changed bool
		changed, err = run(&Context{Debug: cfg.Dev.Debug, Config: cfg, Stdin: os.Stdin, Stdout: os.Stdout})
		if err == nil {
			if changed && CLI.ExitCode {
				os.Exit(exitDifferences)
			}
			os.Exit(exitOK)
		}
	}

	log.WithError(err).Debug("treediff failed")

	// Use our custom error handling to provide user-friendly error messages
	fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
	fmt.Fprintf(os.Stderr, "\nFor help, run: treediff --help\n")
	os.Exit(exitError)
}

// loadConfig merges defaults, the config file and the command line flags.
func loadConfig() (*config.Config, error) {
	configPath := CLI.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}
	return config.LoadConfigWithCLI(configPath, overrides())
}

// overrides collects the flags that were actually given. Boolean switches
// only ever turn a setting on.
func overrides() config.Overrides {
	o := config.Overrides{
		InputFormat:   CLI.InputFormat,
		KeyCase:       CLI.KeyCase,
		Focus:         CLI.Focus,
		ArrayMatching: CLI.ArrayMatching,
		Ignore:        CLI.Ignore,
		OutputFormat:  CLI.Format,
	}
	on := true
	if CLI.ResolveRefs {
		o.ResolveRefs = &on
	}
	if CLI.Normalize {
		o.Normalize = &on
	}
	if CLI.ShowUnchanged {
		o.ShowUnchanged = &on
	}
	if CLI.Debug {
		o.Debug = &on
	}
	if CLI.MaxDepth > 0 {
		depth := CLI.MaxDepth
		o.MaxDepth = &depth
	}
	switch CLI.Color {
	case "always":
		o.Color = &on
	case "never":
		off := false
		o.Color = &off
	}
	return o
}

// run executes the main program logic and reports whether the documents
// differ.
func run(ctx *Context) (bool, error) {
	cfg := ctx.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}

	// 1. Read both documents
	before, after, err := readDocuments(ctx, cfg)
	if err != nil {
		return false, err
	}

	// 2. Prepare them for comparison
	if before, err = prepare(before, cfg); err != nil {
		return false, err
	}
	if after, err = prepare(after, cfg); err != nil {
		return false, err
	}

	// 3. Build the diff tree
	builder := diff.NewBuilder(cfg.DiffOptions()...)
	opts := builder.Options()
	log.WithField("array_matching", opts.ArrayMatching).Debugf("comparing with max depth %d", opts.MaxDepth)
	root, err := builder.Diff(before, after)
	if err != nil {
		return false, err
	}
	stats := diff.Summarize(root)
	log.Debugf("diff tree has %d nodes, %d changed", stats.Nodes, stats.Changed+stats.Added+stats.Removed)

	// 4. Render it
	if err := writeOutput(ctx, render.NewRenderer(cfg.RenderOptions()), render.Result{
		Root:   root,
		Before: before,
		After:  after,
	}); err != nil {
		return false, err
	}
	return stats.HasChanges(), nil
}

// readDocuments decodes the before and after arguments.
func readDocuments(ctx *Context, cfg *config.Config) (models.Value, models.Value, error) {
	if CLI.Before == "" || CLI.After == "" {
		return nil, nil, errors.NewInputError("two documents are required", errors.ErrNoInput)
	}
	if CLI.Before == parser.StdinPath && CLI.After == parser.StdinPath {
		return nil, nil, errors.NewInputError("both documents point at stdin", errors.ErrStdinTwice)
	}

	format, opts := cfg.DocumentFormat(), cfg.ParseOptions()
	before, err := readDocument(ctx, CLI.Before, format, opts)
	if err != nil {
		return nil, nil, err
	}
	after, err := readDocument(ctx, CLI.After, format, opts)
	if err != nil {
		return nil, nil, err
	}
	return before.Root, after.Root, nil
}

// readDocument decodes a file, or stdin when path is "-"
func readDocument(ctx *Context, path string, format models.Format, opts []parser.Option) (models.Document, error) {
	if path != parser.StdinPath {
		return parser.ParseFile(path, format, opts...)
	}

	stdin := ctx.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	doc, err := parser.Parse(stdin, format, opts...)
	if err != nil {
		return models.Document{}, err
	}
	doc.Source = parser.StdinPath
	log.Debugf("read %s document from stdin", doc.Format)
	return doc, nil
}

// prepare applies $ref resolution, key normalization and the focus path, in
// that order. Refs resolve first since pointers name the original keys.
func prepare(v models.Value, cfg *config.Config) (models.Value, error) {
	var err error
	if cfg.Input.ResolveRefs {
		v = parser.ResolveRefs(v)
	}
	if cfg.Input.KeyCase != "" {
		if v, err = parser.NormalizeKeys(v, parser.KeyCase(cfg.Input.KeyCase)); err != nil {
			return nil, err
		}
	}
	if cfg.Input.Focus != "" {
		if v, err = query.Select(v, cfg.Input.Focus); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// writeOutput renders res to the output file or stdout
func writeOutput(ctx *Context, r *render.Renderer, res render.Result) error {
	if CLI.Output != "" {
		// Write to file
		f, err := os.Create(CLI.Output)
		if err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", CLI.Output), err)
		}
		if err := r.Render(f, res); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", CLI.Output), err)
		}
		log.Infof("diff written to %s", CLI.Output)
		return nil
	}

	// Write to stdout
	stdout := ctx.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	bw := bufio.NewWriter(stdout)
	if err := r.Render(bw, res); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}
