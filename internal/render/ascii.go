package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/yudai/gojsondiff"
	jsonformatter "github.com/yudai/gojsondiff/formatter"

	"github.com/mcncl/treediff/internal/diff"
	"github.com/mcncl/treediff/internal/log"
	"github.com/mcncl/treediff/internal/models"
)

// renderASCII prints the before document annotated with a delta of the after
// document, the way `diff` marks lines with + and -.
func (r *Renderer) renderASCII(w io.Writer, res Result) error {
	left, right := asciiRoots(res.Before, res.After)

	delta := gojsondiff.New().CompareObjects(left, right)
	if !delta.Modified() {
		_, err := fmt.Fprintln(w, NoDifferences)
		return err
	}
	log.Debugf("ascii delta has %d top level deltas", len(delta.Deltas()))

	out, err := jsonformatter.NewAsciiFormatter(left, jsonformatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       r.opts.Color,
	}).Format(delta)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err = io.WriteString(w, out)
	return err
}

// asciiRoots converts both documents to the generic maps gojsondiff works
// on. Unless both are objects they are wrapped under the root key, and an
// absent document becomes an empty object.
func asciiRoots(before, after models.Value) (map[string]interface{}, map[string]interface{}) {
	left, leftOK := models.ToGo(before).(map[string]interface{})
	right, rightOK := models.ToGo(after).(map[string]interface{})
	if leftOK && rightOK {
		return left, right
	}
	return wrapRoot(before), wrapRoot(after)
}

func wrapRoot(v models.Value) map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}{diff.RootKey: models.ToGo(v)}
}
