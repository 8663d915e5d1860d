package render

import (
	"encoding/json"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mcncl/treediff/internal/diff"
)

// Report is the envelope written by FormatReport.
type Report struct {
	Display *diff.Node `json:"display" yaml:"display"`
	Summary diff.Stats `json:"summary" yaml:"summary"`
}

// NewReport pairs a tree with its stats.
func NewReport(root *diff.Node) Report {
	return Report{Display: root, Summary: diff.Summarize(root)}
}

func (r *Renderer) encodeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if r.opts.Indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", r.opts.Indent))
	}
	return enc.Encode(v)
}

func (r *Renderer) encodeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	if r.opts.Indent > 0 {
		enc.SetIndent(r.opts.Indent)
	}
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
