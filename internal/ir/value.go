package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Value is a sealed interface representing a decoded JSON value.
// Only Null, Bool, Number, String, Array and Object implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null represents a JSON null.
type Null struct{}

func (Null) irValue() {}

// Bool represents a JSON boolean.
type Bool bool

func (Bool) irValue() {}

// Number represents a JSON number in its literal form.
// Keeping the literal avoids float rounding when values are re-serialized.
type Number json.Number

func (Number) irValue() {}

// Float64 returns the number as a float64.
func (n Number) Float64() (float64, error) {
	return json.Number(n).Float64()
}

// Int64 returns the number as an int64.
// Integral floats such as "3.0" are accepted.
func (n Number) Int64() (int64, error) {
	if i, err := json.Number(n).Int64(); err == nil {
		return i, nil
	}
	f, err := json.Number(n).Float64()
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("number %s is not integral", string(n))
	}
	return int64(f), nil
}

// String represents a JSON string.
type String string

func (String) irValue() {}

// Array represents a JSON array.
type Array []Value

func (Array) irValue() {}

// Member is a single key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object represents a JSON object. Members are kept in source order.
type Object []Member

func (Object) irValue() {}

// Get returns the value stored under key.
// When a key is repeated the last occurrence wins, matching encoding/json.
func (obj Object) Get(key string) (Value, bool) {
	var (
		found Value
		ok    bool
	)
	for _, m := range obj {
		if m.Key == key {
			found, ok = m.Value, true
		}
	}
	return found, ok
}

// GetString returns the string stored under key.
// ok is false if the key is missing or not a string.
func (obj Object) GetString(key string) (string, bool) {
	v, ok := obj.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(String)
	return string(s), ok
}

// GetObject returns the object stored under key.
func (obj Object) GetObject(key string) (Object, bool) {
	v, ok := obj.Get(key)
	if !ok {
		return nil, false
	}
	o, ok := v.(Object)
	return o, ok
}

// GetArray returns the array stored under key.
func (obj Object) GetArray(key string) (Array, bool) {
	v, ok := obj.Get(key)
	if !ok {
		return nil, false
	}
	a, ok := v.(Array)
	return a, ok
}

// Type returns the object's "type" discriminator, or "" if absent.
func (obj Object) Type() string {
	s, _ := obj.GetString("type")
	return s
}

// MarshalJSON implements json.Marshaler for Object, preserving member order.
func (obj Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range obj {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(m.Key)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", m.Key, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := Marshal(m.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", m.Key, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler for Array.
func (arr Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := Marshal(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// MarshalJSON implements json.Marshaler for Number.
func (n Number) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("0"), nil
	}
	return []byte(n), nil
}

// Marshal serializes a Value to compact JSON.
// A nil Value is encoded as null.
func Marshal(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case Bool:
		return json.Marshal(bool(val))
	case Number:
		return val.MarshalJSON()
	case String:
		return json.Marshal(string(val))
	case Array:
		return val.MarshalJSON()
	case Object:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// Text returns a display string for v.
// Strings pass through unchanged; every other value is serialized as JSON.
func Text(v Value) string {
	if s, ok := v.(String); ok {
		return string(s)
	}
	data, err := Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
