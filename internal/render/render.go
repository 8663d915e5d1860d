// Package render writes diff trees in the supported output formats.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/mcncl/treediff/internal/diff"
	"github.com/mcncl/treediff/internal/errors"
	"github.com/mcncl/treediff/internal/log"
	"github.com/mcncl/treediff/internal/models"
)

// Format selects an output rendering.
type Format string

const (
	// FormatTree is an indented text tree of the changes.
	FormatTree Format = "tree"
	// FormatJSON is the complete diff tree as JSON.
	FormatJSON Format = "json"
	// FormatYAML is the complete diff tree as YAML.
	FormatYAML Format = "yaml"
	// FormatReport wraps the JSON tree and its stats: {"display": ..., "summary": ...}.
	FormatReport Format = "report"
	// FormatSummary lists change counts and the paths of changed leaves.
	FormatSummary Format = "summary"
	// FormatASCII is a delta view of the two documents side by side.
	FormatASCII Format = "ascii"
)

// Formats lists every output format.
var Formats = []Format{FormatTree, FormatJSON, FormatYAML, FormatReport, FormatSummary, FormatASCII}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(name, string(f)) {
			return f, nil
		}
	}
	return "", errors.NewRenderError(
		fmt.Sprintf("unknown output format '%s', expected one of %s", name, formatNames()),
		errors.ErrUnsupportedFormat,
	)
}

func formatNames() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Options controls rendering.
type Options struct {
	Format Format
	// Color enables ANSI colors in the tree, summary and ascii formats.
	Color bool
	// ShowUnchanged keeps unchanged nodes in the text tree.
	ShowUnchanged bool
	// ShowValues appends leaf values to text tree lines.
	ShowValues bool
	// Indent is the number of spaces per nesting level.
	Indent int
	// ValueWidth cuts long leaf values in the text tree. 0 keeps them whole.
	ValueWidth int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Format:     FormatTree,
		ShowValues: true,
		Indent:     2,
		ValueWidth: 80,
	}
}

// Result is what a renderer needs: the tree and the documents it was built
// from. The ascii format reads the documents; the others only the tree.
type Result struct {
	Root   *diff.Node
	Before models.Value
	After  models.Value
}

// Renderer writes results in one format
type Renderer struct {
	opts Options
}

// NewRenderer creates a Renderer. A zero Format means FormatTree and a
// negative Indent means no indentation.
func NewRenderer(opts Options) *Renderer {
	if opts.Format == "" {
		opts.Format = FormatTree
	}
	if opts.Indent < 0 {
		opts.Indent = 0
	}
	return &Renderer{opts: opts}
}

// Render writes res to w.
func (r *Renderer) Render(w io.Writer, res Result) error {
	if res.Root == nil {
		return errors.NewRenderError("nothing to render", errors.ErrNoInput)
	}
	log.Debugf("rendering %s output", r.opts.Format)

	var err error
	switch r.opts.Format {
	case FormatTree:
		err = r.renderTree(w, res.Root)
	case FormatJSON:
		err = r.encodeJSON(w, res.Root)
	case FormatYAML:
		err = r.encodeYAML(w, res.Root)
	case FormatReport:
		err = r.encodeJSON(w, NewReport(res.Root))
	case FormatSummary:
		err = r.renderSummary(w, res.Root)
	case FormatASCII:
		err = r.renderASCII(w, res)
	default:
		_, err = ParseFormat(string(r.opts.Format))
		return err
	}
	if err != nil {
		return errors.NewOutputError(fmt.Sprintf("failed to write %s output", r.opts.Format), err)
	}
	return nil
}
