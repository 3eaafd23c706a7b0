// ABOUTME: Record codec between typed records and flat hash property maps
// ABOUTME: Walks the descriptor's field registry; no reflection involved

package codec

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nainya/hashstore/pkg/meta"
	"github.com/nainya/hashstore/pkg/value"
)

// PropertyAccessError reports a field whose accessor is missing or failed.
// It is logged and the field is skipped; it never fails an operation.
type PropertyAccessError struct {
	Field string
	Op    string // "get" or "set"
	Err   error
}

func (e *PropertyAccessError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("field %s: no %s accessor", e.Field, e.Op)
	}
	return fmt.Sprintf("field %s: %s failed: %v", e.Field, e.Op, e.Err)
}

func (e *PropertyAccessError) Unwrap() error { return e.Err }

// DecodeError reports a stored value that cannot be converted to its field type
type DecodeError struct {
	Field string
	Value string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode field %s from %q: %v", e.Field, e.Value, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Encode flattens rec into a property map. Absent properties are left out.
func Encode[T any](rec *T, m *meta.Metadata[T], log zerolog.Logger) map[string]string {
	props := make(map[string]string, len(m.Fields))
	for _, f := range m.Fields {
		if v, ok := read(rec, f, log); ok {
			props[f.Name] = v.Format()
		}
	}
	return props
}

// Decode rebuilds a record from a property map. Entries without a matching
// field are ignored, so stored hashes written by older or newer versions of
// a type still decode.
func Decode[T any](props map[string]string, m *meta.Metadata[T], log zerolog.Logger) (*T, error) {
	rec := m.NewRecord()
	for _, f := range m.Fields {
		raw, ok := props[f.Name]
		if !ok {
			continue
		}
		if f.Set == nil {
			logAccess(log, &PropertyAccessError{Field: f.Name, Op: "set"})
			continue
		}

		v, err := value.Parse(f.Kind, raw)
		if err != nil {
			return nil, &DecodeError{Field: f.Name, Value: raw, Err: err}
		}
		if err := f.Set(rec, v); err != nil {
			return nil, &DecodeError{Field: f.Name, Value: raw, Err: err}
		}
	}
	return rec, nil
}

// IndexedValues returns the current value of every present indexed field
func IndexedValues[T any](rec *T, m *meta.Metadata[T], log zerolog.Logger) map[string]string {
	vals := make(map[string]string, len(m.Indexed))
	for _, f := range m.Indexed {
		if v, ok := read(rec, f, log); ok {
			vals[f.Name] = v.Format()
		}
	}
	return vals
}

// read returns the present value of f. Accessor failures are logged and the
// field is treated as absent.
func read[T any](rec *T, f meta.Field[T], log zerolog.Logger) (value.Value, bool) {
	if f.Get == nil {
		logAccess(log, &PropertyAccessError{Field: f.Name, Op: "get"})
		return value.Value{}, false
	}
	v, ok, err := f.Read(rec)
	if err != nil {
		logAccess(log, &PropertyAccessError{Field: f.Name, Op: "get", Err: err})
		return value.Value{}, false
	}
	return v, ok
}

func logAccess(log zerolog.Logger, err *PropertyAccessError) {
	log.Warn().
		Str("component", "codec").
		Str("field", err.Field).
		Err(err).
		Msg("Property not accessible, skipping")
}
