// Package models defines data structures and domain types.
package models

import (
	"bytes"
	"encoding/json"
)

// Node is a parsed JSON value. The concrete types are Object, Sequence,
// String, Number, Bool and Null; callers switch on them.
type Node interface {
	isNode()
}

// Member is a single key/value pair of an Object.
type Member struct {
	Key   string
	Value Node
}

// Object is a JSON object. Members keep document order.
type Object []Member

// Sequence is a JSON array.
type Sequence []Node

// String is a JSON string scalar.
type String string

// Number is a JSON number scalar holding its literal text.
type Number string

// Bool is a JSON boolean scalar.
type Bool bool

// Null is the JSON null scalar.
type Null struct{}

func (Object) isNode()   {}
func (Sequence) isNode() {}
func (String) isNode()   {}
func (Number) isNode()   {}
func (Bool) isNode()     {}
func (Null) isNode()     {}

// Get returns the value stored under key.
func (o Object) Get(key string) (Node, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// IsContainer reports whether n is an Object or a Sequence.
func IsContainer(n Node) bool {
	switch n.(type) {
	case Object, Sequence:
		return true
	default:
		return false
	}
}

// MarshalJSON encodes the object with members in document order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON encodes the literal number text unchanged.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n), nil
}

// MarshalJSON encodes null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}
