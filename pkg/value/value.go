// ABOUTME: Typed scalar values stored as hash fields and index keys
// ABOUTME: Each value carries a kind tag and has one canonical string form

package value

import (
	"fmt"
	"strconv"
	"time"
)

// Kind identifies the scalar type held by a Value
type Kind uint8

const (
	KindString Kind = iota + 1
	KindInt64
	KindUint64
	KindFloat64
	KindBool
	KindTime
)

// TimeLayout is the layout used for time values. It keeps nanoseconds and the
// zone offset so a parsed time equals the formatted one.
const TimeLayout = time.RFC3339Nano

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt64:
		return "int64"
	case KindUint64:
		return "uint64"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid reports whether k is one of the defined kinds
func (k Kind) Valid() bool {
	return k >= KindString && k <= KindTime
}

// Value represents a single stored scalar
type Value struct {
	Kind Kind
	Str  string
	I64  int64
	U64  uint64
	F64  float64
	Bool bool
	Time time.Time
}

// String creates a string value
func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// Int64 creates an int64 value
func Int64(i int64) Value {
	return Value{Kind: KindInt64, I64: i}
}

// Uint64 creates a uint64 value
func Uint64(u uint64) Value {
	return Value{Kind: KindUint64, U64: u}
}

// Float64 creates a float64 value
func Float64(f float64) Value {
	return Value{Kind: KindFloat64, F64: f}
}

// Bool creates a bool value
func Bool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// Time creates a time value
func Time(t time.Time) Value {
	return Value{Kind: KindTime, Time: t}
}

// Format renders the canonical string form used both as the hash field value
// and as the value segment of an index key.
func (v Value) Format() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt64:
		return strconv.FormatInt(v.I64, 10)
	case KindUint64:
		return strconv.FormatUint(v.U64, 10)
	case KindFloat64:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindTime:
		return v.Time.Format(TimeLayout)
	default:
		panic(fmt.Sprintf("unknown kind: %d", v.Kind))
	}
}

// Parse converts a stored string back into a Value of the given kind.
// It fails when raw cannot represent that kind.
func Parse(kind Kind, raw string) (Value, error) {
	switch kind {
	case KindString:
		return String(raw), nil
	case KindInt64:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", kind, err)
		}
		return Int64(i), nil
	case KindUint64:
		u, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", kind, err)
		}
		return Uint64(u), nil
	case KindFloat64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", kind, err)
		}
		return Float64(f), nil
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", kind, err)
		}
		return Bool(b), nil
	case KindTime:
		t, err := time.Parse(TimeLayout, raw)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", kind, err)
		}
		return Time(t), nil
	default:
		return Value{}, fmt.Errorf("unknown kind: %d", kind)
	}
}
