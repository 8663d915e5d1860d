// Package parser decodes JSON and YAML documents into models.Value trees,
// keeping object key order as written in the source.
package parser

import (
	"bytes"
	"encoding/json"
	stderrors "errors" // Standard errors package
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/treediff/internal/errors" // Custom errors package
	"github.com/mcncl/treediff/internal/log"
	"github.com/mcncl/treediff/internal/models"
)

// StdinPath is the file argument that selects standard input.
const StdinPath = "-"

// DefaultMaxDepth bounds document nesting when no limit is configured.
const DefaultMaxDepth = 10000

// maxAliasNodes caps the values a YAML document may produce through aliases.
const maxAliasNodes = 1 << 20

type options struct {
	maxDepth int
}

// Option configures decoding.
type Option func(*options)

// WithMaxDepth rejects documents with values nested deeper than depth levels
// below the root. 0 keeps DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

func newOptions(opts []Option) options {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Parse reads a whole document from reader and decodes it.
func Parse(reader io.Reader, format models.Format, opts ...Option) (models.Document, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return models.Document{}, errors.NewInputError("failed to read input", err)
	}
	return ParseBytes(data, format, opts...)
}

// ParseString decodes a JSON or YAML document held in a string.
func ParseString(s string) (models.Document, error) {
	if strings.TrimSpace(s) == "" {
		return models.Document{}, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	return ParseBytes([]byte(s), models.FormatAuto)
}

// ParseBytes decodes data in the given format. With models.FormatAuto, valid
// JSON is decoded as JSON and anything else as YAML.
func ParseBytes(data []byte, format models.Format, opts ...Option) (models.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Document{}, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
	}
	o := newOptions(opts)

	var (
		root models.Value
		err  error
	)
	switch format {
	case models.FormatJSON:
		root, err = decodeJSON(data, o.maxDepth)
	case models.FormatYAML:
		root, err = decodeYAML(data, o.maxDepth)
	case models.FormatAuto, "":
		format = models.FormatJSON
		if looksLikeJSON(data) {
			if err = checkJSONDepth(data, o.maxDepth); err != nil {
				break
			}
		}
		if gjson.ValidBytes(data) {
			root, err = decodeJSON(data, o.maxDepth)
			break
		}
		format = models.FormatYAML
		root, err = decodeYAML(data, o.maxDepth)
		if err != nil && looksLikeJSON(data) && !stderrors.Is(err, errors.ErrInputTooDeep) {
			// Report the JSON problem for input that was clearly meant as JSON.
			format = models.FormatJSON
			_, err = decodeJSON(data, o.maxDepth)
		}
	default:
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("unknown document format '%s'", format),
			errors.ErrUnsupportedFormat,
		)
	}
	if err != nil {
		return models.Document{}, err
	}

	log.Tracef("decoded %s document of %s", format, humanize.Bytes(uint64(len(data))))
	return models.Document{Root: root, Format: format}, nil
}

// ParseFile reads and decodes the document at filePath. With
// models.FormatAuto the format follows the file extension when it is known.
func ParseFile(filePath string, format models.Format, opts ...Option) (models.Document, error) {
	if strings.TrimSpace(filePath) == "" {
		return models.Document{}, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	stat, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Document{}, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.IsDir() {
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("'%s' is a directory", filePath),
			errors.ErrInvalidFilePath,
		)
	}
	if stat.Size() == 0 {
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("failed to read file '%s'", filePath),
			err,
		)
	}
	log.WithField("file", filePath).Debugf("read %s", humanize.Bytes(uint64(stat.Size())))

	if format == models.FormatAuto || format == "" {
		format = DetectFormat(filePath)
	}
	doc, err := ParseBytes(data, format, opts...)
	if err != nil {
		return models.Document{}, err
	}
	doc.Source = filePath
	return doc, nil
}

// DetectFormat infers the format from a file name. It returns
// models.FormatAuto when the extension says nothing.
func DetectFormat(name string) models.Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return models.FormatJSON
	case ".yaml", ".yml":
		return models.FormatYAML
	default:
		return models.FormatAuto
	}
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func decodeJSON(data []byte, maxDepth int) (models.Value, error) {
	if err := checkJSONDepth(data, maxDepth); err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, jsonError(data)
	}
	return fromResult(gjson.ParseBytes(data), 0, maxDepth)
}

// checkJSONDepth rejects data whose brackets nest more than one level past
// maxDepth. It runs in one pass before gjson, whose validation and iteration
// both recurse into every nested value; fromResult applies the exact limit.
func checkJSONDepth(data []byte, maxDepth int) error {
	depth := 0
	inString, escaped := false, false
	for i, c := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
			if depth > maxDepth+1 {
				return tooDeep(maxDepth, fmt.Sprintf("offset %d", i))
			}
		case '}', ']':
			depth--
		}
	}
	return nil
}

func tooDeep(maxDepth int, where string) error {
	return errors.NewParsingError(
		fmt.Sprintf("nesting deeper than %d levels at %s", maxDepth, where),
		errors.ErrInputTooDeep,
	)
}

// jsonError explains why gjson rejected data, using encoding/json for the
// offset of the first syntax error.
func jsonError(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	var first interface{}
	if err := decoder.Decode(&first); err != nil {
		var syntaxError *json.SyntaxError
		if stderrors.As(err, &syntaxError) {
			return errors.NewParsingError(
				fmt.Sprintf("JSON syntax error at offset %d", syntaxError.Offset),
				errors.ErrInvalidJSON,
			)
		}
		if stderrors.Is(err, io.ErrUnexpectedEOF) {
			return errors.NewParsingError("unexpected end of JSON input", errors.ErrInvalidJSON)
		}
		return errors.NewParsingError("failed to decode JSON", errors.ErrInvalidJSON)
	}
	if decoder.More() {
		return errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleDocuments)
	}
	return errors.NewParsingError("failed to decode JSON", errors.ErrInvalidJSON)
}

// ParseResult converts a gjson result into a document value. Object keys
// keep their order in the source text and numbers keep their literal text.
func ParseResult(r gjson.Result) models.Value {
	v, _ := fromResult(r, 0, 0)
	return v
}

// fromResult converts r found depth levels below the root. A positive
// maxDepth rejects values nested deeper.
func fromResult(r gjson.Result, depth, maxDepth int) (models.Value, error) {
	if maxDepth > 0 && depth > maxDepth {
		return nil, tooDeep(maxDepth, fmt.Sprintf("offset %d", r.Index))
	}
	switch r.Type {
	case gjson.Null:
		if !r.Exists() {
			return nil, nil
		}
		return models.Null{}, nil
	case gjson.False:
		return models.Bool(false), nil
	case gjson.True:
		return models.Bool(true), nil
	case gjson.Number:
		return models.Number(strings.TrimSpace(r.Raw)), nil
	case gjson.String:
		return models.String(r.Str), nil
	}

	var err error
	if r.IsArray() {
		arr := models.Array{}
		r.ForEach(func(_, value gjson.Result) bool {
			var v models.Value
			if v, err = fromResult(value, depth+1, maxDepth); err != nil {
				return false
			}
			arr = append(arr, v)
			return true
		})
		if err != nil {
			return nil, err
		}
		return arr, nil
	}
	obj := models.NewObject(0)
	r.ForEach(func(key, value gjson.Result) bool {
		var v models.Value
		if v, err = fromResult(value, depth+1, maxDepth); err != nil {
			return false
		}
		obj.Set(key.Str, v)
		return true
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeYAML(data []byte, maxDepth int) (models.Value, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))

	var root yaml.Node
	if err := decoder.Decode(&root); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
		}
		return nil, yamlError(err)
	}

	var trailing yaml.Node
	if err := decoder.Decode(&trailing); err == nil {
		return nil, errors.NewParsingError("multiple YAML documents found in the input", errors.ErrMultipleDocuments)
	} else if !stderrors.Is(err, io.EOF) {
		return nil, yamlError(err)
	}

	d := &yamlDecoder{maxDepth: maxDepth, active: make(map[*yaml.Node]bool)}
	return d.value(&root, 0)
}

func yamlError(err error) error {
	return errors.NewParsingError(
		fmt.Sprintf("YAML syntax error: %s", strings.TrimPrefix(err.Error(), "yaml: ")),
		errors.ErrInvalidYAML,
	)
}

const mergeTag = "!!merge"

// yamlDecoder converts a yaml.Node tree, expanding aliases in place.
type yamlDecoder struct {
	maxDepth int
	// anchored nodes being expanded on the current path
	active map[*yaml.Node]bool
	// values produced inside alias expansions, and how many are open
	aliased int
	inAlias int
}

func (d *yamlDecoder) value(n *yaml.Node, depth int) (models.Value, error) {
	if depth > d.maxDepth {
		return nil, tooDeep(d.maxDepth, fmt.Sprintf("line %d", n.Line))
	}
	if n.Kind == yaml.AliasNode {
		if err := d.checkAlias(n); err != nil {
			return nil, err
		}
		d.inAlias++
		defer func() { d.inAlias-- }()
		return d.value(n.Alias, depth)
	}
	if n.Anchor != "" {
		d.active[n] = true
		defer delete(d.active, n)
	}
	if d.inAlias > 0 {
		d.aliased++
		if d.aliased > maxAliasNodes {
			return nil, errors.NewParsingError(
				fmt.Sprintf("aliases expand to more than %d values", maxAliasNodes),
				errors.ErrInvalidYAML,
			)
		}
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return models.Null{}, nil
		}
		return d.value(n.Content[0], depth)
	case yaml.SequenceNode:
		arr := make(models.Array, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := d.value(item, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.MappingNode:
		return d.mapping(n, depth)
	case yaml.ScalarNode:
		return fromYAMLScalar(n)
	}
	return nil, errors.NewParsingError(fmt.Sprintf("unsupported YAML node at line %d", n.Line), errors.ErrInvalidYAML)
}

// checkAlias rejects an alias whose anchor encloses it.
func (d *yamlDecoder) checkAlias(n *yaml.Node) error {
	if n.Alias == nil {
		return errors.NewParsingError(fmt.Sprintf("unknown alias *%s at line %d", n.Value, n.Line), errors.ErrInvalidYAML)
	}
	if d.active[n.Alias] {
		return errors.NewParsingError(
			fmt.Sprintf("alias *%s at line %d refers to an enclosing anchor", n.Value, n.Line),
			errors.ErrInvalidYAML,
		)
	}
	return nil
}

func (d *yamlDecoder) mapping(n *yaml.Node, depth int) (*models.Object, error) {
	obj := models.NewObject(len(n.Content) / 2)
	var merged []*models.Object

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		if key.ShortTag() == mergeTag {
			sources, err := d.mergeSources(value, depth)
			if err != nil {
				return nil, err
			}
			merged = append(merged, sources...)
			continue
		}
		if key.Kind == yaml.AliasNode && key.Alias != nil {
			key = key.Alias
		}
		if key.Kind != yaml.ScalarNode {
			return nil, errors.NewParsingError(
				fmt.Sprintf("unsupported non-scalar mapping key at line %d", key.Line),
				errors.ErrInvalidYAML,
			)
		}
		v, err := d.value(value, depth+1)
		if err != nil {
			return nil, err
		}
		obj.Set(key.Value, v)
	}

	// Explicit keys win over merged ones; earlier merge sources win over later.
	for _, src := range merged {
		for _, k := range src.Keys() {
			if !obj.Has(k) {
				v, _ := src.Get(k)
				obj.Set(k, v)
			}
		}
	}
	return obj, nil
}

// mergeSources decodes the mappings named by a merge key of a mapping at
// depth. Their fields land in that mapping, so they decode at its depth.
func (d *yamlDecoder) mergeSources(n *yaml.Node, depth int) ([]*models.Object, error) {
	if n.Kind == yaml.AliasNode {
		if err := d.checkAlias(n); err != nil {
			return nil, err
		}
		d.inAlias++
		defer func() { d.inAlias-- }()
		n = n.Alias
	}
	var nodes []*yaml.Node
	switch n.Kind {
	case yaml.MappingNode:
		nodes = []*yaml.Node{n}
	case yaml.SequenceNode:
		nodes = n.Content
	default:
		return nil, errors.NewParsingError(
			fmt.Sprintf("merge value at line %d is not a mapping", n.Line),
			errors.ErrInvalidYAML,
		)
	}

	sources := make([]*models.Object, 0, len(nodes))
	for _, node := range nodes {
		v, err := d.value(node, depth)
		if err != nil {
			return nil, err
		}
		obj, ok := v.(*models.Object)
		if !ok {
			return nil, errors.NewParsingError(
				fmt.Sprintf("merge value at line %d is not a mapping", node.Line),
				errors.ErrInvalidYAML,
			)
		}
		sources = append(sources, obj)
	}
	return sources, nil
}

func fromYAMLScalar(n *yaml.Node) (models.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return models.Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, scalarError(n, err)
		}
		return models.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return models.Number(strconv.FormatInt(i, 10)), nil
		}
		var u uint64
		if err := n.Decode(&u); err != nil {
			return nil, scalarError(n, err)
		}
		return models.Number(strconv.FormatUint(u, 10)), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, scalarError(n, err)
		}
		switch {
		case math.IsNaN(f):
			return models.Number(".nan"), nil
		case math.IsInf(f, 1):
			return models.Number(".inf"), nil
		case math.IsInf(f, -1):
			return models.Number("-.inf"), nil
		}
		if json.Valid([]byte(n.Value)) {
			return models.Number(n.Value), nil
		}
		return models.Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
	default:
		// Strings, timestamps, binary and custom tags keep their text.
		return models.String(n.Value), nil
	}
}

func scalarError(n *yaml.Node, err error) error {
	return errors.NewParsingError(
		fmt.Sprintf("invalid %s value %q at line %d", n.ShortTag(), n.Value, n.Line),
		stderrors.Join(errors.ErrInvalidYAML, err),
	)
}
