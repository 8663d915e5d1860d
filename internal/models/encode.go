package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MarshalJSON writes the object with its keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := marshal(o.fields[key])
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %q: %w", key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a Array) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return marshal([]Value(a))
}

func (n Number) MarshalJSON() ([]byte, error) {
	if json.Valid([]byte(n)) {
		return []byte(n), nil
	}
	// Values like YAML's .inf have no JSON number form.
	return json.Marshal(string(n))
}

func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

func (o Opaque) MarshalJSON() ([]byte, error) {
	data, err := marshal(o.V)
	if err != nil {
		return marshal(fmt.Sprintf("%v", o.V))
	}
	return data, nil
}

// marshal encodes v like json.Marshal but leaves <, > and & unescaped, so
// values read from documents render as written.
func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalYAML renders the object as an ordered mapping.
func (o *Object) MarshalYAML() (interface{}, error) {
	return o.yamlNode()
}

func (a Array) MarshalYAML() (interface{}, error) {
	return a.yamlNode()
}

func (n Number) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: numberTag(n), Value: string(n)}, nil
}

func (Null) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
}

func (o Opaque) MarshalYAML() (interface{}, error) {
	return o.V, nil
}

// The yaml encoder treats zero-valued fields as empty for omitempty. A
// present empty string, false or null must still be written, so none of the
// value kinds report themselves as zero.

func (*Object) IsZero() bool { return false }
func (Array) IsZero() bool   { return false }
func (String) IsZero() bool  { return false }
func (Number) IsZero() bool  { return false }
func (Bool) IsZero() bool    { return false }
func (Null) IsZero() bool    { return false }
func (Opaque) IsZero() bool  { return false }

func numberTag(n Number) string {
	if _, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return "!!int"
	}
	return "!!float"
}

func (o *Object) yamlNode() (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range o.Keys() {
		child, err := ToYAMLNode(o.fields[key])
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			child,
		)
	}
	return node, nil
}

func (a Array) yamlNode() (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, item := range a {
		child, err := ToYAMLNode(item)
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, child)
	}
	return node, nil
}

// ToYAMLNode converts a value into a yaml.Node tree, keeping object key order.
func ToYAMLNode(v Value) (*yaml.Node, error) {
	switch x := v.(type) {
	case nil, Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case *Object:
		return x.yamlNode()
	case Array:
		return x.yamlNode()
	case String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(x)}, nil
	case Number:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: numberTag(x), Value: string(x)}, nil
	case Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(bool(x))}, nil
	default:
		node := &yaml.Node{}
		if err := node.Encode(opaqueValue(v)); err != nil {
			return nil, fmt.Errorf("failed to encode %s value: %w", v.Kind(), err)
		}
		return node, nil
	}
}

func opaqueValue(v Value) interface{} {
	if o, ok := v.(Opaque); ok {
		return o.V
	}
	return v
}

// ToGo converts a Value back into plain Go values: map[string]interface{},
// []interface{}, string, float64, bool and nil.
func ToGo(v Value) interface{} {
	switch x := v.(type) {
	case nil, Null:
		return nil
	case *Object:
		m := make(map[string]interface{}, x.Len())
		for _, k := range x.Keys() {
			m[k] = ToGo(x.fields[k])
		}
		return m
	case Array:
		s := make([]interface{}, len(x))
		for i, item := range x {
			s[i] = ToGo(item)
		}
		return s
	case String:
		return string(x)
	case Number:
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return string(x)
		}
		return f
	case Bool:
		return bool(x)
	case Opaque:
		return x.V
	default:
		return nil
	}
}
