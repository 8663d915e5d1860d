// Package models holds the decoded document representation shared by the
// parser, the diff builder and the renderers.
package models

// Kind identifies which member of the Value union a value is.
type Kind uint8

const (
	KindObject Kind = iota + 1
	KindArray
	KindString
	KindNumber
	KindBool
	KindNull
	// KindOpaque marks a value of a Go type the document model does not know.
	// It is compared by deep equality and never recursed into.
	KindOpaque
)

var kindNames = map[Kind]string{
	KindObject: "object",
	KindArray:  "array",
	KindString: "string",
	KindNumber: "number",
	KindBool:   "boolean",
	KindNull:   "null",
	KindOpaque: "opaque",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value is a decoded JSON-shaped value: one of *Object, Array, String,
// Number, Bool, Null or Opaque. A nil Value means the value is absent.
type Value interface {
	Kind() Kind
	isValue()
}

// Object is an ordered mapping of string keys to values. Keys keep the order
// in which they were first set.
type Object struct {
	keys   []string
	fields map[string]Value
}

// Array is an ordered sequence of values.
type Array []Value

// String is a JSON string.
type String string

// Number is a JSON number kept in its textual form so that no precision is
// lost between decoding and rendering.
type Number string

// Bool is a JSON boolean.
type Bool bool

// Null is the JSON null literal.
type Null struct{}

// Opaque wraps a Go value of unknown type.
type Opaque struct {
	V interface{}
}

func (*Object) Kind() Kind { return KindObject }
func (Array) Kind() Kind   { return KindArray }
func (String) Kind() Kind  { return KindString }
func (Number) Kind() Kind  { return KindNumber }
func (Bool) Kind() Kind    { return KindBool }
func (Null) Kind() Kind    { return KindNull }
func (Opaque) Kind() Kind  { return KindOpaque }

func (*Object) isValue() {}
func (Array) isValue()   {}
func (String) isValue()  {}
func (Number) isValue()  {}
func (Bool) isValue()    {}
func (Null) isValue()    {}
func (Opaque) isValue()  {}

// NewObject creates an empty Object with room for size keys.
func NewObject(size int) *Object {
	return &Object{
		keys:   make([]string, 0, size),
		fields: make(map[string]Value, size),
	}
}

// Set assigns key to v. A new key is appended to the key order; an existing
// key keeps its position and has its value replaced.
func (o *Object) Set(key string, v Value) {
	if _, exists := o.fields[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = v
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.fields[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys returns the keys in insertion order. The returned slice must not be
// modified.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Document is a decoded input together with where it came from.
type Document struct {
	Root   Value
	Format Format
	// Source is the file path the document was read from, or "-" for stdin.
	Source string
}

// Format is the serialization a document was decoded from.
type Format string

const (
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)
