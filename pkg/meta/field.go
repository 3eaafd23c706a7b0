// ABOUTME: Field registry entries with typed getter/setter pairs
// ABOUTME: Replaces runtime property introspection with explicit accessors

package meta

import (
	"errors"
	"fmt"
	"time"

	"github.com/nainya/hashstore/pkg/value"
)

// Role marks how a field takes part in storage
type Role uint8

const (
	RolePlain Role = iota
	RoleIdentifier
	RoleIndexed
)

func (r Role) String() string {
	switch r {
	case RoleIdentifier:
		return "identifier"
	case RoleIndexed:
		return "indexed"
	default:
		return "plain"
	}
}

// Field describes one stored property of T.
//
// Get reports whether the property currently holds a value; an absent
// property is not written to the hash and is not indexed. Set assigns a
// decoded value. A nil Get or Set means the property cannot be read or
// written, which callers log and skip.
type Field[T any] struct {
	Name string
	Kind value.Kind
	Role Role
	Get  func(*T) (value.Value, bool)
	Set  func(*T, value.Value) error
}

// Indexed returns a copy of the field marked as indexed
func (f Field[T]) Indexed() Field[T] {
	f.Role = RoleIndexed
	return f
}

// Identifier returns a copy of the field marked as the record identifier
func (f Field[T]) Identifier() Field[T] {
	f.Role = RoleIdentifier
	return f
}

// Read calls Get and checks what it returns. A missing getter, a panicking
// getter, or a value whose kind differs from the field's is an error.
func (f Field[T]) Read(rec *T) (v value.Value, ok bool, err error) {
	if f.Get == nil {
		return value.Value{}, false, errors.New("no getter")
	}
	defer func() {
		if p := recover(); p != nil {
			v, ok, err = value.Value{}, false, fmt.Errorf("getter panicked: %v", p)
		}
	}()

	v, ok = f.Get(rec)
	if ok && v.Kind != f.Kind {
		return value.Value{}, false, kindMismatch(f.Name, f.Kind, v.Kind)
	}
	return v, ok, nil
}

func kindMismatch(name string, want, got value.Kind) error {
	return fmt.Errorf("field %s: expected %s value, got %s", name, want, got)
}

// String builds a string field. The empty string counts as absent.
func String[T any](name string, ptr func(*T) *string) Field[T] {
	return Field[T]{
		Name: name,
		Kind: value.KindString,
		Get: func(rec *T) (value.Value, bool) {
			s := *ptr(rec)
			if s == "" {
				return value.Value{}, false
			}
			return value.String(s), true
		},
		Set: func(rec *T, v value.Value) error {
			if v.Kind != value.KindString {
				return kindMismatch(name, value.KindString, v.Kind)
			}
			*ptr(rec) = v.Str
			return nil
		},
	}
}

// StringPtr builds a string field backed by a pointer; nil counts as absent
// and the empty string is a stored value.
func StringPtr[T any](name string, ptr func(*T) **string) Field[T] {
	return Field[T]{
		Name: name,
		Kind: value.KindString,
		Get: func(rec *T) (value.Value, bool) {
			p := *ptr(rec)
			if p == nil {
				return value.Value{}, false
			}
			return value.String(*p), true
		},
		Set: func(rec *T, v value.Value) error {
			if v.Kind != value.KindString {
				return kindMismatch(name, value.KindString, v.Kind)
			}
			s := v.Str
			*ptr(rec) = &s
			return nil
		},
	}
}

// Int64 builds an int64 field. Numeric fields are always present.
func Int64[T any](name string, ptr func(*T) *int64) Field[T] {
	return Field[T]{
		Name: name,
		Kind: value.KindInt64,
		Get: func(rec *T) (value.Value, bool) {
			return value.Int64(*ptr(rec)), true
		},
		Set: func(rec *T, v value.Value) error {
			if v.Kind != value.KindInt64 {
				return kindMismatch(name, value.KindInt64, v.Kind)
			}
			*ptr(rec) = v.I64
			return nil
		},
	}
}

// Int builds an int field stored as int64
func Int[T any](name string, ptr func(*T) *int) Field[T] {
	return Field[T]{
		Name: name,
		Kind: value.KindInt64,
		Get: func(rec *T) (value.Value, bool) {
			return value.Int64(int64(*ptr(rec))), true
		},
		Set: func(rec *T, v value.Value) error {
			if v.Kind != value.KindInt64 {
				return kindMismatch(name, value.KindInt64, v.Kind)
			}
			*ptr(rec) = int(v.I64)
			return nil
		},
	}
}

// Uint64 builds a uint64 field
func Uint64[T any](name string, ptr func(*T) *uint64) Field[T] {
	return Field[T]{
		Name: name,
		Kind: value.KindUint64,
		Get: func(rec *T) (value.Value, bool) {
			return value.Uint64(*ptr(rec)), true
		},
		Set: func(rec *T, v value.Value) error {
			if v.Kind != value.KindUint64 {
				return kindMismatch(name, value.KindUint64, v.Kind)
			}
			*ptr(rec) = v.U64
			return nil
		},
	}
}

// Float64 builds a float64 field
func Float64[T any](name string, ptr func(*T) *float64) Field[T] {
	return Field[T]{
		Name: name,
		Kind: value.KindFloat64,
		Get: func(rec *T) (value.Value, bool) {
			return value.Float64(*ptr(rec)), true
		},
		Set: func(rec *T, v value.Value) error {
			if v.Kind != value.KindFloat64 {
				return kindMismatch(name, value.KindFloat64, v.Kind)
			}
			*ptr(rec) = v.F64
			return nil
		},
	}
}

// Bool builds a bool field
func Bool[T any](name string, ptr func(*T) *bool) Field[T] {
	return Field[T]{
		Name: name,
		Kind: value.KindBool,
		Get: func(rec *T) (value.Value, bool) {
			return value.Bool(*ptr(rec)), true
		},
		Set: func(rec *T, v value.Value) error {
			if v.Kind != value.KindBool {
				return kindMismatch(name, value.KindBool, v.Kind)
			}
			*ptr(rec) = v.Bool
			return nil
		},
	}
}

// Time builds a time field. The zero time counts as absent.
func Time[T any](name string, ptr func(*T) *time.Time) Field[T] {
	return Field[T]{
		Name: name,
		Kind: value.KindTime,
		Get: func(rec *T) (value.Value, bool) {
			t := *ptr(rec)
			if t.IsZero() {
				return value.Value{}, false
			}
			return value.Time(t), true
		},
		Set: func(rec *T, v value.Value) error {
			if v.Kind != value.KindTime {
				return kindMismatch(name, value.KindTime, v.Kind)
			}
			*ptr(rec) = v.Time
			return nil
		},
	}
}

// TimePtr builds a time field backed by a pointer; nil counts as absent
func TimePtr[T any](name string, ptr func(*T) **time.Time) Field[T] {
	return Field[T]{
		Name: name,
		Kind: value.KindTime,
		Get: func(rec *T) (value.Value, bool) {
			p := *ptr(rec)
			if p == nil {
				return value.Value{}, false
			}
			return value.Time(*p), true
		},
		Set: func(rec *T, v value.Value) error {
			if v.Kind != value.KindTime {
				return kindMismatch(name, value.KindTime, v.Kind)
			}
			t := v.Time
			*ptr(rec) = &t
			return nil
		},
	}
}
