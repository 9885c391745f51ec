package model

import (
    "bytes"
    "encoding/json"
)

// Optional carries a JSON field that may be absent, explicitly null or set.
// The zero value is "absent", which is what encoding/json leaves behind when
// the key is missing from the document.
type Optional[T any] struct {
    Set   bool // key was present in the payload
    Null  bool // key was present with a null value
    Value T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
    return Optional[T]{Set: true, Value: v}
}

// Null returns an Optional that was explicitly cleared.
func Null[T any]() Optional[T] {
    return Optional[T]{Set: true, Null: true}
}

// Present reports whether the field holds a usable value.
func (o Optional[T]) Present() bool {
    return o.Set && !o.Null
}

// Ptr returns nil for absent or null fields.
func (o Optional[T]) Ptr() *T {
    if !o.Present() {
        return nil
    }
    v := o.Value
    return &v
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
    o.Set = true
    if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
        o.Null = true
        var zero T
        o.Value = zero
        return nil
    }
    o.Null = false
    return json.Unmarshal(b, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
    if !o.Present() {
        return []byte("null"), nil
    }
    return json.Marshal(o.Value)
}
