package parser

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/mcncl/treediff/internal/errors"
	"github.com/mcncl/treediff/internal/models"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

func TestParse_SimpleObject(t *testing.T) {
	doc, err := Parse(strings.NewReader(`{"name": "John Doe", "age": 30, "isStudent": false, "city": null}`), models.FormatJSON)
	if err != nil {
		t.Fatalf("Parse() error = %v, wantErr nil", err)
	}

	root, ok := doc.Root.(*models.Object)
	if !ok {
		t.Fatalf("Parse() root is not a *models.Object, got %T", doc.Root)
	}

	wantKeys := []string{"name", "age", "isStudent", "city"}
	if !reflect.DeepEqual(root.Keys(), wantKeys) {
		t.Errorf("Parse() keys = %v, want %v", root.Keys(), wantKeys)
	}

	want := map[string]models.Value{
		"name":      models.String("John Doe"),
		"age":       models.Number("30"),
		"isStudent": models.Bool(false),
		"city":      models.Null{},
	}
	for k, v := range want {
		got, _ := root.Get(k)
		if !reflect.DeepEqual(got, v) {
			t.Errorf("Parse() %s = %#v, want %#v", k, got, v)
		}
	}
	if doc.Format != models.FormatJSON {
		t.Errorf("Parse() format = %s, want json", doc.Format)
	}
}

func TestParse_SimpleArray(t *testing.T) {
	doc, err := Parse(strings.NewReader(`[1, "test", true, null, 3.14, 1e10]`), models.FormatAuto)
	if err != nil {
		t.Fatalf("Parse() error = %v, wantErr nil", err)
	}

	want := models.Array{
		models.Number("1"),
		models.String("test"),
		models.Bool(true),
		models.Null{},
		models.Number("3.14"),
		models.Number("1e10"),
	}
	if !reflect.DeepEqual(doc.Root, want) {
		t.Errorf("Parse() root = %#v, want %#v", doc.Root, want)
	}
}

func TestParse_PreservesNestedKeyOrder(t *testing.T) {
	doc, err := ParseString(`{"z": {"b": 1, "a": [{"y": 1, "x": 2}]}, "a": "é\n"}`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	root := doc.Root.(*models.Object)
	if got := root.Keys(); !reflect.DeepEqual(got, []string{"z", "a"}) {
		t.Errorf("root keys = %v", got)
	}
	z, _ := root.Get("z")
	if got := z.(*models.Object).Keys(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("z keys = %v", got)
	}
	a, _ := root.Get("a")
	if a != models.String("é\n") {
		t.Errorf("escaped string = %#v", a)
	}
}

func TestParse_YAML(t *testing.T) {
	src := `
openapi: 3.0.0
info:
  title: Pets
  version: "1.0"
defaults: &defaults
  limit: 10
  strict: true
list:
  <<: *defaults
  limit: 25
tags: [a, b]
ratio: 0.50
hex: 0x1F
missing: ~
when: 2024-01-02
`
	doc, err := Parse(strings.NewReader(src), models.FormatYAML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.Format != models.FormatYAML {
		t.Errorf("Parse() format = %s, want yaml", doc.Format)
	}

	root := doc.Root.(*models.Object)
	wantKeys := []string{"openapi", "info", "defaults", "list", "tags", "ratio", "hex", "missing", "when"}
	if !reflect.DeepEqual(root.Keys(), wantKeys) {
		t.Errorf("keys = %v, want %v", root.Keys(), wantKeys)
	}

	checks := map[string]models.Value{
		"/openapi":      models.String("3.0.0"),
		"/info/version": models.String("1.0"),
		"/list/limit":   models.Number("25"),
		"/list/strict":  models.Bool(true),
		"/tags/1":       models.String("b"),
		"/ratio":        models.Number("0.50"),
		"/hex":          models.Number("31"),
		"/missing":      models.Null{},
		"/when":         models.String("2024-01-02"),
	}
	for pointer, want := range checks {
		got, ok := Pointer(doc.Root, pointer)
		if !ok {
			t.Errorf("%s not found", pointer)
			continue
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s = %#v, want %#v", pointer, got, want)
		}
	}

	list, _ := root.Get("list")
	if got := list.(*models.Object).Keys(); !reflect.DeepEqual(got, []string{"limit", "strict"}) {
		t.Errorf("merged keys = %v", got)
	}
}

func TestParse_AutoDetectsFormat(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		format models.Format
	}{
		{"JSONObject", `{"a": 1}`, models.FormatJSON},
		{"JSONScalar", `42`, models.FormatJSON},
		{"YAMLMapping", "a: 1\n", models.FormatYAML},
		{"YAMLFlowMapping", `{a: 1}`, models.FormatYAML},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := ParseString(tc.input)
			if err != nil {
				t.Fatalf("ParseString() error = %v", err)
			}
			if doc.Format != tc.format {
				t.Errorf("ParseString() format = %s, want %s", doc.Format, tc.format)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		format  models.Format
		wantErr error
		message string
	}{
		{"EmptyJSON", "", models.FormatJSON, errors.ErrEmptyInput, "input is empty"},
		{"WhitespaceOnly", "  \n\t ", models.FormatAuto, errors.ErrEmptyInput, "input is empty"},
		{"InvalidJSON", `{"key": "value"`, models.FormatJSON, errors.ErrInvalidJSON, "unexpected end of JSON input"},
		{"SyntaxError", `{"key": value}`, models.FormatJSON, errors.ErrInvalidJSON, "JSON syntax error at offset"},
		{"BrokenJSONAutoDetected", `{"key": [1, 2}`, models.FormatAuto, errors.ErrInvalidJSON, "JSON syntax error"},
		{"MultipleJSON", `{"a": 1} {"b": 2}`, models.FormatJSON, errors.ErrMultipleDocuments, "multiple JSON values"},
		{"InvalidYAML", "a: [1, 2\n", models.FormatYAML, errors.ErrInvalidYAML, "YAML syntax error"},
		{"MultipleYAML", "a: 1\n---\nb: 2\n", models.FormatYAML, errors.ErrMultipleDocuments, "multiple YAML documents"},
		{"UnknownFormat", "a: 1", models.Format("toml"), errors.ErrUnsupportedFormat, "unknown document format"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input), tc.format)
			if err == nil {
				t.Fatalf("Parse() error = nil, want %v", tc.wantErr)
			}
			if !stderrors.Is(err, tc.wantErr) {
				t.Errorf("Parse() error = %v, want it to wrap %v", err, tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Errorf("Parse() error = %q, want it to contain %q", err.Error(), tc.message)
			}
		})
	}
}

func TestParseString_Empty(t *testing.T) {
	_, err := ParseString("   ")
	if !stderrors.Is(err, errors.ErrEmptyInput) {
		t.Fatalf("ParseString() error = %v, want ErrEmptyInput", err)
	}
	if !stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeInput}) {
		t.Errorf("ParseString() error type = %v, want input error", err)
	}
}

func TestParseFile(t *testing.T) {
	jsonPath := writeTemp(t, "product.json", `{"product": "Laptop", "price": 1200.50}`)
	yamlPath := writeTemp(t, "product.yml", "product: Laptop\nprice: 1200.50\n")
	plainPath := writeTemp(t, "product.txt", "product: Laptop\nprice: 1200.50\n")

	for _, path := range []string{jsonPath, yamlPath, plainPath} {
		doc, err := ParseFile(path, models.FormatAuto)
		if err != nil {
			t.Fatalf("ParseFile(%s) error = %v", path, err)
		}
		if doc.Source != path {
			t.Errorf("ParseFile(%s) source = %s", path, doc.Source)
		}
		price, ok := Pointer(doc.Root, "/price")
		if !ok || price != models.Number("1200.50") {
			t.Errorf("ParseFile(%s) price = %#v", path, price)
		}
	}

	doc, _ := ParseFile(yamlPath, models.FormatAuto)
	if doc.Format != models.FormatYAML {
		t.Errorf("ParseFile() format = %s, want yaml", doc.Format)
	}
}

func TestParseFile_ExtensionWins(t *testing.T) {
	path := writeTemp(t, "data.json", "a: 1\n")

	_, err := ParseFile(path, models.FormatAuto)
	if !stderrors.Is(err, errors.ErrInvalidJSON) {
		t.Errorf("ParseFile() error = %v, want ErrInvalidJSON", err)
	}

	if _, err := ParseFile(path, models.FormatYAML); err != nil {
		t.Errorf("ParseFile() with explicit yaml format error = %v", err)
	}
}

func TestParseFile_NonExistentFile(t *testing.T) {
	_, err := ParseFile("nonexistentfile.json", models.FormatAuto)
	if !stderrors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("ParseFile() with non-existent file, err = %v, want ErrFileNotFound", err)
	}
}

func TestParseFile_EmptyPath(t *testing.T) {
	_, err := ParseFile("", models.FormatAuto)
	if err == nil || !strings.Contains(err.Error(), "file path is empty") {
		t.Errorf("ParseFile() with empty path, err = %v, want error containing 'file path is empty'", err)
	}
}

func TestParseFile_Directory(t *testing.T) {
	_, err := ParseFile(t.TempDir(), models.FormatAuto)
	if !stderrors.Is(err, errors.ErrInvalidFilePath) {
		t.Errorf("ParseFile() with directory, err = %v, want ErrInvalidFilePath", err)
	}
}

func TestParseFile_EmptyFileContent(t *testing.T) {
	path := writeTemp(t, "empty.json", "")

	_, err := ParseFile(path, models.FormatAuto)
	if !stderrors.Is(err, errors.ErrFileEmpty) {
		t.Errorf("ParseFile() with empty file content, err = %v, want ErrFileEmpty", err)
	}
}

func TestDetectFormat(t *testing.T) {
	testCases := map[string]models.Format{
		"api.json":     models.FormatJSON,
		"API.JSON":     models.FormatJSON,
		"api.yaml":     models.FormatYAML,
		"dir/api.yml":  models.FormatYAML,
		"api.txt":      models.FormatAuto,
		StdinPath:      models.FormatAuto,
		"no-extension": models.FormatAuto,
	}
	for name, want := range testCases {
		if got := DetectFormat(name); got != want {
			t.Errorf("DetectFormat(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestParseResult(t *testing.T) {
	result := gjson.Get(`{"spec": {"paths": {"/b": 1, "/a": 2}}}`, "spec.paths")

	v := ParseResult(result)
	obj, ok := v.(*models.Object)
	if !ok {
		t.Fatalf("ParseResult() = %T, want *models.Object", v)
	}
	if !reflect.DeepEqual(obj.Keys(), []string{"/b", "/a"}) {
		t.Errorf("ParseResult() keys = %v", obj.Keys())
	}

	if got := ParseResult(gjson.Get(`{}`, "missing")); got != nil {
		t.Errorf("ParseResult() of missing path = %#v, want nil", got)
	}
}

func TestParse_RootPrimitives(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expectedVal models.Value
	}{
		{"RootString", `"hello world"`, models.String("hello world")},
		{"RootNumber", `123.45`, models.Number("123.45")},
		{"RootBooleanTrue", `true`, models.Bool(true)},
		{"RootBooleanFalse", `false`, models.Bool(false)},
		{"RootNull", `null`, models.Null{}},
		{"YAMLScalar", `plain text`, models.String("plain text")},
		{"YAMLInfinity", `.inf`, models.Number(".inf")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := ParseString(tc.input)
			if err != nil {
				t.Fatalf("ParseString() error = %v, wantErr nil for %s", err, tc.name)
			}
			if !reflect.DeepEqual(doc.Root, tc.expectedVal) {
				t.Errorf("ParseString() root = %#v (type %T), want %#v (type %T)", doc.Root, doc.Root, tc.expectedVal, tc.expectedVal)
			}
		})
	}
}

func TestParse_YAMLAliases(t *testing.T) {
	doc, err := Parse(strings.NewReader("base: &b\n  k: 1\nuse: *b\nmerged:\n  <<: *b\n  j: 2\n"), models.FormatYAML)
	if err != nil {
		t.Fatalf("Parse() error = %v, wantErr nil", err)
	}
	obj := doc.Root.(*models.Object)
	base, _ := obj.Get("base")
	use, _ := obj.Get("use")
	if !models.Equal(base, use) {
		t.Errorf("Parse() alias = %#v, want %#v", use, base)
	}
	merged, _ := obj.Get("merged")
	if got := merged.(*models.Object).Keys(); !reflect.DeepEqual(got, []string{"j", "k"}) {
		t.Errorf("Parse() merged keys = %v, want [j k]", got)
	}
}

func TestParse_YAMLAliasErrors(t *testing.T) {
	var bomb strings.Builder
	bomb.WriteString("l0: &l0 [x, x, x, x, x, x, x, x, x, x]\n")
	for i := 1; i <= 8; i++ {
		fmt.Fprintf(&bomb, "l%d: &l%d [%s]\n", i, i, strings.TrimSuffix(strings.Repeat(fmt.Sprintf("*l%d, ", i-1), 10), ", "))
	}

	testCases := []struct {
		name    string
		input   string
		message string
	}{
		{"SelfReference", "a: &x\n  b: *x\n", "alias *x at line 2 refers to an enclosing anchor"},
		{"NestedSelfReference", "a: &x\n  b:\n    - c: *x\n", "refers to an enclosing anchor"},
		{"SelfMerge", "a: &x\n  <<: *x\n", "refers to an enclosing anchor"},
		{"ExponentialExpansion", bomb.String(), "aliases expand to more than"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input), models.FormatYAML)
			if !stderrors.Is(err, errors.ErrInvalidYAML) {
				t.Fatalf("Parse() error = %v, want ErrInvalidYAML", err)
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Errorf("Parse() error = %q, want it to contain %q", err.Error(), tc.message)
			}
		})
	}
}

func TestParse_MaxDepth(t *testing.T) {
	deep := strings.Repeat("[", 50000) + strings.Repeat("]", 50000)

	testCases := []struct {
		name    string
		input   string
		format  models.Format
		depth   int
		wantErr bool
		message string
	}{
		{"JSONWithinLimit", `[[1]]`, models.FormatJSON, 2, false, ""},
		{"JSONEmptyContainerAtLimit", `[[[]]]`, models.FormatJSON, 2, false, ""},
		{"JSONScalarPastLimit", `[[[1]]]`, models.FormatJSON, 2, true, "nesting deeper than 2 levels"},
		{"JSONContainerPastLimit", `{"a":{"b":{"c":{}}}}`, models.FormatJSON, 2, true, "nesting deeper than 2 levels at offset"},
		{"JSONDefaultLimit", deep, models.FormatJSON, 0, true, "nesting deeper than 10000 levels"},
		{"AutoDefaultLimit", deep, models.FormatAuto, 0, true, "nesting deeper than 10000 levels"},
		{"YAMLWithinLimit", "a:\n  b:\n    c: 1\n", models.FormatYAML, 3, false, ""},
		{"YAMLPastLimit", "a:\n  b:\n    c: 1\n", models.FormatYAML, 2, true, "nesting deeper than 2 levels at line 3"},
		{"YAMLFlowPastLimit", strings.Repeat("[", 500) + strings.Repeat("]", 500), models.FormatYAML, 100, true, "nesting deeper than 100 levels"},
		{"YAMLAliasPastLimit", "a: &x\n  b: 1\nc:\n  d: *x\n", models.FormatYAML, 2, true, "nesting deeper than 2 levels"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tc.input), tc.format, WithMaxDepth(tc.depth))
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("ParseBytes() error = %v, wantErr nil", err)
				}
				return
			}
			if !stderrors.Is(err, errors.ErrInputTooDeep) {
				t.Fatalf("ParseBytes() error = %v, want ErrInputTooDeep", err)
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Errorf("ParseBytes() error = %q, want it to contain %q", err.Error(), tc.message)
			}
		})
	}
}
