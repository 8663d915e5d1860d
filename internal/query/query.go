// Package query selects a sub-document to focus a comparison on.
package query

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mcncl/treediff/internal/errors"
	"github.com/mcncl/treediff/internal/log"
	"github.com/mcncl/treediff/internal/models"
	"github.com/mcncl/treediff/internal/parser"
)

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// Select returns the part of root addressed by path. path may be a gjson
// path ("info.title", "servers.#.url"), a diff tree path ("servers[1].url")
// or a JSON pointer ("#/paths/~1pets"). An empty path selects root.
func Select(root models.Value, path string) (models.Value, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return root, nil
	}

	if strings.HasPrefix(path, "#/") || strings.HasPrefix(path, "/") {
		v, ok := parser.Pointer(root, strings.TrimPrefix(path, "#"))
		if !ok {
			return nil, notFound(path)
		}
		log.Debugf("focused on pointer %s", path)
		return v, nil
	}

	data, err := json.Marshal(root)
	if err != nil {
		return nil, errors.NewInputError("failed to encode document for selection", err)
	}
	result := gjson.GetBytes(data, ToGJSONPath(path))
	if !result.Exists() {
		return nil, notFound(path)
	}
	log.Debugf("focused on %s (%s)", path, result.Type)
	return parser.ParseResult(result), nil
}

// ToGJSONPath rewrites the array indexes of a diff tree path into gjson
// syntax: "servers[1].url" becomes "servers.1.url".
func ToGJSONPath(path string) string {
	return strings.TrimPrefix(indexPattern.ReplaceAllString(path, ".$1"), ".")
}

func notFound(path string) error {
	return errors.NewInputError(fmt.Sprintf("path '%s' not found in document", path), errors.ErrPathNotFound)
}
