// ABOUTME: Per-type storage descriptors and the validated metadata built from them
// ABOUTME: Owns storage key and index key layout

package meta

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nainya/hashstore/pkg/value"
)

// Separator joins namespace, identifier, field name and field value in keys
const Separator = ":"

// ErrNotConfigured is returned when a type has no usable storage descriptor
var ErrNotConfigured = errors.New("record type not configured for storage")

// Unit is the time unit of an instance-level expiration
type Unit uint8

const (
	Nanoseconds Unit = iota + 1
	Microseconds
	Milliseconds
	Seconds
	Minutes
	Hours
	Days
)

func (u Unit) String() string {
	switch u {
	case Nanoseconds:
		return "ns"
	case Microseconds:
		return "us"
	case Milliseconds:
		return "ms"
	case Seconds:
		return "s"
	case Minutes:
		return "m"
	case Hours:
		return "h"
	case Days:
		return "d"
	default:
		return fmt.Sprintf("unit(%d)", uint8(u))
	}
}

func (u Unit) scale() (time.Duration, bool) {
	switch u {
	case Nanoseconds:
		return time.Nanosecond, true
	case Microseconds:
		return time.Microsecond, true
	case Milliseconds:
		return time.Millisecond, true
	case Seconds:
		return time.Second, true
	case Minutes:
		return time.Minute, true
	case Hours:
		return time.Hour, true
	case Days:
		return 24 * time.Hour, true
	default:
		return 0, false
	}
}

// Expiration is an amount of time in a given unit
type Expiration struct {
	Amount int64
	Unit   Unit
}

// Duration converts the expiration, failing on unknown units and on amounts
// that do not fit in a time.Duration.
func (e Expiration) Duration() (time.Duration, error) {
	scale, ok := e.Unit.scale()
	if !ok {
		return 0, fmt.Errorf("unsupported time unit %s", e.Unit)
	}
	limit := int64(math.MaxInt64) / int64(scale)
	if e.Amount > limit || e.Amount < -limit {
		return 0, fmt.Errorf("expiration %d%s overflows duration", e.Amount, e.Unit)
	}
	return time.Duration(e.Amount) * scale, nil
}

// Descriptor is the storage description of a record type, written once per type.
type Descriptor[T any] struct {
	// Namespace prefixes every storage and index key of the type
	Namespace string

	// DefaultTTLSeconds applies when no instance-level expiration is available.
	// Zero or negative means records do not expire by default.
	DefaultTTLSeconds int64

	// Fields in storage order. Exactly one must be the identifier.
	Fields []Field[T]

	// TimeToLive is the optional instance-level expiration accessor
	TimeToLive func(*T) (Expiration, error)

	// New allocates an empty record for decoding; new(T) when nil
	New func() *T
}

// Describer is implemented by record types that carry their own descriptor
type Describer[T any] interface {
	HashDescriptor() Descriptor[T]
}

// Metadata is the validated, immutable form of a Descriptor
type Metadata[T any] struct {
	Namespace  string
	ID         Field[T]
	Fields     []Field[T]
	Indexed    []Field[T]
	DefaultTTL time.Duration
	TimeToLive func(*T) (Expiration, error)

	newRecord func() *T
}

// Build validates a descriptor. Any problem is reported as ErrNotConfigured
// wrapped with the reason.
func Build[T any](d Descriptor[T]) (*Metadata[T], error) {
	if d.Namespace == "" {
		return nil, fmt.Errorf("%w: empty namespace", ErrNotConfigured)
	}

	m := &Metadata[T]{
		Namespace:  d.Namespace,
		Fields:     make([]Field[T], 0, len(d.Fields)),
		TimeToLive: d.TimeToLive,
		newRecord:  d.New,
	}
	if d.DefaultTTLSeconds > 0 {
		if d.DefaultTTLSeconds > int64(math.MaxInt64/int64(time.Second)) {
			return nil, fmt.Errorf("%w: default ttl %ds overflows duration", ErrNotConfigured, d.DefaultTTLSeconds)
		}
		m.DefaultTTL = time.Duration(d.DefaultTTLSeconds) * time.Second
	}

	seen := make(map[string]struct{}, len(d.Fields))
	identifiers := 0
	for _, f := range d.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: field without a name", ErrNotConfigured)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrNotConfigured, f.Name)
		}
		seen[f.Name] = struct{}{}
		if !f.Kind.Valid() {
			return nil, fmt.Errorf("%w: field %q has unknown %s", ErrNotConfigured, f.Name, f.Kind)
		}

		switch f.Role {
		case RoleIdentifier:
			identifiers++
			m.ID = f
		case RoleIndexed:
			m.Indexed = append(m.Indexed, f)
		}
		m.Fields = append(m.Fields, f)
	}

	switch {
	case identifiers == 0:
		return nil, fmt.Errorf("%w: no identifier field", ErrNotConfigured)
	case identifiers > 1:
		return nil, fmt.Errorf("%w: %d identifier fields", ErrNotConfigured, identifiers)
	}
	if m.ID.Kind != value.KindString {
		return nil, fmt.Errorf("%w: identifier field %q must hold strings", ErrNotConfigured, m.ID.Name)
	}
	if m.ID.Get == nil || m.ID.Set == nil {
		return nil, fmt.Errorf("%w: identifier field %q needs both accessors", ErrNotConfigured, m.ID.Name)
	}

	return m, nil
}

// StorageKey returns the hash key of the record with the given identifier
func (m *Metadata[T]) StorageKey(id string) string {
	return m.Namespace + Separator + id
}

// IndexKey returns the set key namespace:field:value listing identifiers
// whose field holds val
func (m *Metadata[T]) IndexKey(field, val string) string {
	return m.Namespace + Separator + field + Separator + val
}

// Identifier reads the identifier of rec; false when it is not set
func (m *Metadata[T]) Identifier(rec *T) (string, bool) {
	v, ok, err := m.ID.Read(rec)
	if err != nil || !ok {
		return "", false
	}
	id := v.Format()
	return id, id != ""
}

// SetIdentifier writes id into the identifier field of rec
func (m *Metadata[T]) SetIdentifier(rec *T, id string) error {
	return m.ID.Set(rec, value.String(id))
}

// NewRecord allocates an empty record
func (m *Metadata[T]) NewRecord() *T {
	if m.newRecord != nil {
		return m.newRecord()
	}
	return new(T)
}

// Field looks up a field by name
func (m *Metadata[T]) Field(name string) (Field[T], bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field[T]{}, false
}
