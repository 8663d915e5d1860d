// Package formatter turns change types and values into the short, optionally
// colored, strings used by the text renderers.
package formatter

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mcncl/treediff/internal/diff"
	"github.com/mcncl/treediff/internal/models"
)

// Ellipsis ends values cut by FormatValue.
const Ellipsis = "..."

var symbols = map[diff.ChangeType]string{
	diff.Added:     "+",
	diff.Removed:   "-",
	diff.Changed:   "~",
	diff.Unchanged: " ",
}

// Colors follow the usual diff palette. Each has a light and a dark terminal
// variant.
var colors = map[diff.ChangeType]lipgloss.AdaptiveColor{
	diff.Added:     {Light: "#1a7f37", Dark: "#3fb950"},
	diff.Removed:   {Light: "#cf222e", Dark: "#f85149"},
	diff.Changed:   {Light: "#9a6700", Dark: "#d29922"},
	diff.Unchanged: {Light: "#6e7781", Dark: "#8b949e"},
}

// Formatter renders symbols, keys and values for text output
type Formatter struct {
	color  bool
	styles map[diff.ChangeType]lipgloss.Style
	key    lipgloss.Style
	faint  lipgloss.Style
}

// NewFormatter creates a Formatter for output written to w. When color is
// false every method returns plain text; when true ANSI colors are emitted
// even if w is not a terminal.
func NewFormatter(w io.Writer, color bool) *Formatter {
	if w == nil {
		w = os.Stdout
	}
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	f := &Formatter{
		color:  color,
		styles: make(map[diff.ChangeType]lipgloss.Style, len(colors)),
		key:    r.NewStyle().Bold(true),
		faint:  r.NewStyle().Faint(true),
	}
	for t, c := range colors {
		f.styles[t] = r.NewStyle().Foreground(c)
	}
	return f
}

// Symbol returns the one-character marker of a change type.
func Symbol(t diff.ChangeType) string {
	if s, ok := symbols[t]; ok {
		return s
	}
	return "?"
}

// Paint styles text with the color of a change type.
func (f *Formatter) Paint(t diff.ChangeType, text string) string {
	if !f.color {
		return text
	}
	style, ok := f.styles[t]
	if !ok {
		return text
	}
	return style.Render(text)
}

// Key highlights a node key.
func (f *Formatter) Key(text string) string {
	if !f.color {
		return text
	}
	return f.key.Render(text)
}

// Faint dims secondary text such as values of unchanged nodes.
func (f *Formatter) Faint(text string) string {
	if !f.color {
		return text
	}
	return f.faint.Render(text)
}

// Line formats a node marker and label: "+ key".
func (f *Formatter) Line(t diff.ChangeType, label string) string {
	return f.Paint(t, Symbol(t)+" "+label)
}

// FormatValue renders v as compact JSON on a single line, cut to at most
// width runes when width is positive.
func FormatValue(v models.Value, width int) string {
	if v == nil {
		return ""
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "<" + v.Kind().String() + ">"
	}
	text := strings.TrimSuffix(buf.String(), "\n")

	if width > 0 && utf8.RuneCountInString(text) > width {
		keep := width - len(Ellipsis)
		if keep < 1 {
			keep = 1
		}
		runes := []rune(text)
		text = string(runes[:keep]) + Ellipsis
	}
	return text
}
