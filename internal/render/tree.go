package render

import (
	"bufio"
	"io"
	"strings"

	"github.com/mcncl/treediff/internal/diff"
	"github.com/mcncl/treediff/internal/formatter"
)

// NoDifferences is printed by the text formats when the documents are equal.
const NoDifferences = "No differences found."

// renderTree writes one line per node, indented by depth:
//
//	~ root
//	  ~ age: 25 -> 26
//	  - zip: "10001"
//
// Unchanged subtrees are skipped unless ShowUnchanged is set.
func (r *Renderer) renderTree(w io.Writer, root *diff.Node) error {
	bw := bufio.NewWriter(w)
	f := formatter.NewFormatter(w, r.opts.Color)

	if root.Type == diff.Unchanged && !r.opts.ShowUnchanged {
		bw.WriteString(f.Faint(NoDifferences) + "\n")
		return bw.Flush()
	}

	diff.Walk(root, func(n *diff.Node, depth int) bool {
		if n.Type == diff.Unchanged && !r.opts.ShowUnchanged {
			return false
		}
		bw.WriteString(strings.Repeat(" ", depth*r.opts.Indent))
		bw.WriteString(f.Line(n.Type, label(n)))
		if r.opts.ShowValues && n.IsLeaf() {
			bw.WriteString(r.leafValues(f, n))
		}
		bw.WriteByte('\n')
		return true
	})
	return bw.Flush()
}

func label(n *diff.Node) string {
	if n.Key == "" {
		return diff.RootKey
	}
	return n.Key
}

func (r *Renderer) leafValues(f *formatter.Formatter, n *diff.Node) string {
	width := r.opts.ValueWidth
	switch n.Type {
	case diff.Added:
		return ": " + f.Paint(diff.Added, formatter.FormatValue(n.After, width))
	case diff.Removed:
		return ": " + f.Paint(diff.Removed, formatter.FormatValue(n.Before, width))
	case diff.Changed:
		return ": " + f.Paint(diff.Removed, formatter.FormatValue(n.Before, width)) +
			" -> " + f.Paint(diff.Added, formatter.FormatValue(n.After, width))
	default:
		if n.Before == nil {
			return ""
		}
		return ": " + f.Faint(formatter.FormatValue(n.Before, width))
	}
}
