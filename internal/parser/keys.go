package parser

import (
	"fmt"

	"github.com/iancoleman/strcase"

	"github.com/mcncl/treediff/internal/errors"
	"github.com/mcncl/treediff/internal/log"
	"github.com/mcncl/treediff/internal/models"
)

// KeyCase names a key spelling convention object keys can be rewritten to.
type KeyCase string

const (
	KeyCaseNone       KeyCase = ""
	KeyCaseSnake      KeyCase = "snake"
	KeyCaseCamel      KeyCase = "camel"
	KeyCaseLowerCamel KeyCase = "lower_camel"
	KeyCaseKebab      KeyCase = "kebab"
)

var keyConverters = map[KeyCase]func(string) string{
	KeyCaseSnake:      strcase.ToSnake,
	KeyCaseCamel:      strcase.ToCamel,
	KeyCaseLowerCamel: strcase.ToLowerCamel,
	KeyCaseKebab:      strcase.ToKebab,
}

// ValidKeyCase reports whether c is a known key case.
func ValidKeyCase(c KeyCase) bool {
	_, ok := keyConverters[c]
	return ok || c == KeyCaseNone
}

// NormalizeKeys returns a copy of v with every object key rewritten to the
// given case, so "userId" and "user_id" compare as the same field. When two
// keys of one object collapse onto the same name, the first keeps its
// position and the last value wins.
func NormalizeKeys(v models.Value, c KeyCase) (models.Value, error) {
	if c == KeyCaseNone {
		return v, nil
	}
	convert, ok := keyConverters[c]
	if !ok {
		return nil, errors.NewInputError(
			fmt.Sprintf("unknown key case '%s'", c),
			errors.ErrUnsupportedFormat,
		)
	}
	return normalizeKeys(v, convert), nil
}

func normalizeKeys(v models.Value, convert func(string) string) models.Value {
	switch x := v.(type) {
	case *models.Object:
		out := models.NewObject(x.Len())
		for _, k := range x.Keys() {
			child, _ := x.Get(k)
			name := convert(k)
			if out.Has(name) {
				log.Warnf("key %q collides with another key after normalization to %q", k, name)
			}
			out.Set(name, normalizeKeys(child, convert))
		}
		return out
	case models.Array:
		out := make(models.Array, len(x))
		for i, item := range x {
			out[i] = normalizeKeys(item, convert)
		}
		return out
	default:
		return v
	}
}
