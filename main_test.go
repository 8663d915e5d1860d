package main

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/treediff/internal/config"
	"github.com/mcncl/treediff/internal/errors"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// resetCLI restores the global CLI state when the test finishes
func resetCLI(t *testing.T) {
	t.Helper()
	originalCLI := CLI
	t.Cleanup(func() { CLI = originalCLI })
}

func runWith(t *testing.T, cfg *config.Config, stdin string) (string, bool, error) {
	t.Helper()
	var stdout bytes.Buffer
	changed, err := run(&Context{Config: cfg, Stdin: strings.NewReader(stdin), Stdout: &stdout})
	return stdout.String(), changed, err
}

func TestRun_SimpleJSON(t *testing.T) {
	resetCLI(t)

	CLI.Before = writeInput(t, "before.json", `{"name": "John", "age": 30, "active": true}`)
	CLI.After = writeInput(t, "after.json", `{"name": "John", "age": 31, "active": true}`)

	out, changed, err := runWith(t, config.NewConfig(), "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "~ root\n  ~ age: 30 -> 31\n", out)
}

func TestRun_NoDifferences(t *testing.T) {
	resetCLI(t)

	// Same content in both formats
	CLI.Before = writeInput(t, "doc.json", `{"tags": ["a", "b"], "count": 2}`)
	CLI.After = writeInput(t, "doc.yaml", "tags:\n  - a\n  - b\ncount: 2\n")

	out, changed, err := runWith(t, config.NewConfig(), "")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "No differences found.\n", out)
}

func TestRun_WithOutputFile(t *testing.T) {
	resetCLI(t)

	CLI.Before = writeInput(t, "before.json", `{"id": 1, "email": "test@example.com"}`)
	CLI.After = writeInput(t, "after.json", `{"id": 1}`)
	CLI.Output = filepath.Join(t.TempDir(), "diff.json")

	cfg := config.NewConfig()
	cfg.Output.Format = "json"

	out, changed, err := runWith(t, cfg, "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, out)

	// Verify output file was created and contains expected content
	content, err := os.ReadFile(CLI.Output)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"key": "root"`)
	assert.Contains(t, string(content), `"path": "email"`)
	assert.Contains(t, string(content), `"type": "removed"`)
}

func TestRun_OutputFileError(t *testing.T) {
	resetCLI(t)

	CLI.Before = writeInput(t, "a.json", `1`)
	CLI.After = writeInput(t, "b.json", `2`)
	CLI.Output = "/non/existent/dir/output.txt"

	_, _, err := runWith(t, config.NewConfig(), "")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeOutput}))
}

func TestRun_FromStdin(t *testing.T) {
	resetCLI(t)

	CLI.Before = "-"
	CLI.After = writeInput(t, "after.yaml", "items:\n  - apple\n  - cherry\n")

	cfg := config.NewConfig()
	cfg.Output.Format = "summary"

	out, changed, err := runWith(t, cfg, `{"items": ["apple", "banana"]}`)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, out, "Summary: 1 added, 1 removed, 2 changed, 1 unchanged")
	assert.Contains(t, out, "- items[0]\n+ items[1]\n")
}

func TestRun_StdinTwice(t *testing.T) {
	resetCLI(t)

	CLI.Before = "-"
	CLI.After = "-"

	_, _, err := runWith(t, config.NewConfig(), `{}`)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrStdinTwice))
}

func TestRun_MissingDocument(t *testing.T) {
	resetCLI(t)

	CLI.Before = writeInput(t, "before.json", `{}`)
	CLI.After = ""

	_, _, err := runWith(t, config.NewConfig(), "")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNoInput))
}

func TestRun_InputErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{"empty file", "", errors.ErrFileEmpty},
		{"invalid JSON", `{"invalid": json}`, &errors.AppError{Type: errors.ErrorTypeParsing}},
		{"multiple documents", "a: 1\n---\na: 2\n", errors.ErrMultipleDocuments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetCLI(t)

			CLI.Before = writeInput(t, "bad.json", tt.content)
			if strings.Contains(tt.content, "---") {
				CLI.Before = writeInput(t, "bad.yaml", tt.content)
			}
			CLI.After = writeInput(t, "good.json", `{}`)

			_, _, err := runWith(t, config.NewConfig(), "")
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.target), err.Error())
		})
	}
}

func TestRun_NonExistentFile(t *testing.T) {
	resetCLI(t)

	CLI.Before = "/non/existent/file.json"
	CLI.After = writeInput(t, "after.json", `{}`)

	_, _, err := runWith(t, config.NewConfig(), "")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrFileNotFound))
	assert.Contains(t, errors.UserFriendlyError(err), "Input error:")
}

func TestRun_PreparesDocuments(t *testing.T) {
	resetCLI(t)

	CLI.Before = writeInput(t, "before.json", `{
		"spec": {"userId": {"$ref": "#/defs/Id"}},
		"defs": {"Id": {"type": "string"}}
	}`)
	CLI.After = writeInput(t, "after.json", `{
		"spec": {"user_id": {"type": "integer"}},
		"defs": {}
	}`)

	cfg := config.NewConfig()
	cfg.Input.KeyCase = "snake"
	cfg.Input.ResolveRefs = true
	cfg.Input.Focus = "spec"

	out, changed, err := runWith(t, cfg, "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, `~ root
  ~ user_id
    ~ type: "string" -> "integer"
`, out)
}

func TestRun_FocusNotFound(t *testing.T) {
	resetCLI(t)

	CLI.Before = writeInput(t, "before.json", `{"a": 1}`)
	CLI.After = writeInput(t, "after.json", `{"a": 2}`)

	cfg := config.NewConfig()
	cfg.Input.Focus = "b.c"

	_, _, err := runWith(t, cfg, "")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrPathNotFound))
}

func TestRun_MaxDepthExceeded(t *testing.T) {
	resetCLI(t)

	CLI.Before = writeInput(t, "before.json", `{"a": {"b": {"c": 1}}}`)
	CLI.After = writeInput(t, "after.json", `{}`)

	cfg := config.NewConfig()
	cfg.Diff.MaxDepth = 1

	_, _, err := runWith(t, cfg, "")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInputTooDeep))
}

func TestRun_IgnoreAndExclusiveMatching(t *testing.T) {
	resetCLI(t)

	CLI.Before = writeInput(t, "before.json", `{"version": "1.0", "ids": [1, 1]}`)
	CLI.After = writeInput(t, "after.json", `{"version": "2.0", "ids": [1]}`)

	cfg, err := config.LoadConfigWithCLI("", config.Overrides{
		ArrayMatching: "exclusive",
		Ignore:        []string{`^version$`},
	})
	require.NoError(t, err)

	out, changed, err := runWith(t, cfg, "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotContains(t, out, "version")
	assert.Contains(t, out, "- ids[0]: 1")
}

func TestOverrides(t *testing.T) {
	resetCLI(t)

	CLI.Format = "yaml"
	CLI.Normalize = true
	CLI.MaxDepth = 12
	CLI.Color = "never"
	CLI.Ignore = []string{"^a$"}

	o := overrides()
	assert.Equal(t, "yaml", o.OutputFormat)
	require.NotNil(t, o.Normalize)
	assert.True(t, *o.Normalize)
	require.NotNil(t, o.MaxDepth)
	assert.Equal(t, 12, *o.MaxDepth)
	require.NotNil(t, o.Color)
	assert.False(t, *o.Color)
	assert.Nil(t, o.ResolveRefs)
	assert.Nil(t, o.ShowUnchanged)
	assert.Equal(t, []string{"^a$"}, o.Ignore)

	CLI.Color = "auto"
	CLI.MaxDepth = 0
	o = overrides()
	assert.Nil(t, o.Color)
	assert.Nil(t, o.MaxDepth)
}

func TestLoadConfig_FromFlag(t *testing.T) {
	resetCLI(t)

	CLI.Config = writeInput(t, "custom.yml", "output:\n  format: report\n")
	CLI.ShowUnchanged = true

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "report", cfg.Output.Format)
	assert.True(t, cfg.Output.ShowUnchanged)
}
