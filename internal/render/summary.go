package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/mcncl/treediff/internal/diff"
	"github.com/mcncl/treediff/internal/formatter"
)

func (r *Renderer) renderSummary(w io.Writer, root *diff.Node) error {
	bw := bufio.NewWriter(w)
	f := formatter.NewFormatter(w, r.opts.Color)
	stats := diff.Summarize(root)

	counts := make([]string, 0, len(diff.ChangeTypes))
	for _, t := range diff.ChangeTypes {
		n := humanize.Comma(int64(stats.Count(t)))
		if t != diff.Unchanged {
			n = f.Paint(t, n)
		}
		counts = append(counts, n+" "+string(t))
	}
	fmt.Fprintf(bw, "Summary: %s\n", strings.Join(counts, ", "))
	fmt.Fprintf(bw, "Nodes: %s (%s leaves, depth %d)\n",
		humanize.Comma(int64(stats.Nodes)),
		humanize.Comma(int64(stats.Leaves)),
		stats.Depth,
	)

	if !stats.HasChanges() {
		fmt.Fprintln(bw, f.Faint(NoDifferences))
		return bw.Flush()
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, f.Key("Changes:"))
	diff.Walk(root, func(n *diff.Node, _ int) bool {
		if n.Type == diff.Unchanged {
			return false
		}
		if n.IsLeaf() {
			path := n.Path
			if path == "" {
				path = "(root)"
			}
			fmt.Fprintln(bw, f.Line(n.Type, path))
		}
		return true
	})
	return bw.Flush()
}
