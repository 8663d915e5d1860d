package models

import (
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var equalOptions = cmp.Options{
	// Objects compare as unordered key/value sets.
	cmp.Transformer("fields", func(o *Object) map[string]Value {
		if o == nil {
			return nil
		}
		return o.fields
	}),
	cmp.Comparer(numbersEqual),
	cmp.Comparer(func(a, b Opaque) bool {
		return reflect.DeepEqual(a.V, b.V)
	}),
	cmpopts.EquateEmpty(),
}

// Equal reports whether a and b are deeply equal. Object key order is not
// significant and numbers compare by numeric value, so 1 and 1.0 are equal.
// Two absent values are equal.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return cmp.Equal(a, b, equalOptions)
}

// maxExponent bounds the exponent expanded by an exact comparison. Numbers
// beyond it compare by their text.
const maxExponent = 10000

func numbersEqual(a, b Number) bool {
	if a == b {
		return true
	}
	if !exactRange(a) || !exactRange(b) {
		return false
	}
	x, okX := new(big.Rat).SetString(string(a))
	y, okY := new(big.Rat).SetString(string(b))
	if !okX || !okY {
		return false
	}
	return x.Cmp(y) == 0
}

func exactRange(n Number) bool {
	i := strings.IndexAny(string(n), "eE")
	if i < 0 {
		return true
	}
	exp, err := strconv.Atoi(string(n[i+1:]))
	return err == nil && exp >= -maxExponent && exp <= maxExponent
}

// SameShape reports whether a and b are both objects exposing exactly the
// same set of field names. Values of the fields are not inspected, and
// anything that is not an object never has the same shape as anything else.
func SameShape(a, b Value) bool {
	objA, okA := a.(*Object)
	objB, okB := b.(*Object)
	if !okA || !okB || objA.Len() != objB.Len() {
		return false
	}
	for _, key := range objA.keys {
		if !objB.Has(key) {
			return false
		}
	}
	return true
}
