// ABOUTME: Schema-configured record with string attributes
// ABOUTME: Builds its storage descriptor at runtime from a Schema

package document

import (
	"errors"
	"fmt"

	"github.com/nainya/hashstore/pkg/meta"
	"github.com/nainya/hashstore/pkg/value"
)

// Document is a record whose fields are declared by a Schema
type Document struct {
	ID         string
	Attributes map[string]string
}

// New creates an empty document
func New() *Document {
	return &Document{Attributes: make(map[string]string)}
}

// Get returns an attribute; false when it is absent or empty
func (d *Document) Get(name string) (string, bool) {
	v, ok := d.Attributes[name]
	return v, ok && v != ""
}

// Set stores an attribute
func (d *Document) Set(name, val string) {
	if d.Attributes == nil {
		d.Attributes = make(map[string]string)
	}
	d.Attributes[name] = val
}

// Schema declares the storage layout of documents
type Schema struct {
	Namespace         string   `json:"namespace"`
	IDField           string   `json:"id_field"`
	Fields            []string `json:"fields"`
	Indexed           []string `json:"indexed"`
	DefaultTTLSeconds int64    `json:"default_ttl_seconds"`
	TTLField          string   `json:"ttl_field,omitempty"`
}

// ErrInvalidSchema is wrapped by every schema validation failure
var ErrInvalidSchema = errors.New("invalid document schema")

// Validate checks field names and their roles
func (s Schema) Validate() error {
	if s.Namespace == "" {
		return fmt.Errorf("%w: namespace is required", ErrInvalidSchema)
	}
	if s.IDField == "" {
		return fmt.Errorf("%w: id field is required", ErrInvalidSchema)
	}

	declared := make(map[string]struct{}, len(s.Fields))
	for _, name := range s.Fields {
		switch {
		case name == "":
			return fmt.Errorf("%w: empty field name", ErrInvalidSchema)
		case name == s.IDField:
			return fmt.Errorf("%w: id field %q listed as attribute", ErrInvalidSchema, name)
		}
		if _, dup := declared[name]; dup {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, name)
		}
		declared[name] = struct{}{}
	}

	for _, name := range s.Indexed {
		if _, ok := declared[name]; !ok {
			return fmt.Errorf("%w: indexed field %q is not declared", ErrInvalidSchema, name)
		}
	}
	if s.TTLField != "" {
		if _, ok := declared[s.TTLField]; !ok {
			return fmt.Errorf("%w: ttl field %q is not declared", ErrInvalidSchema, s.TTLField)
		}
	}
	if s.DefaultTTLSeconds < 0 {
		return fmt.Errorf("%w: negative default ttl", ErrInvalidSchema)
	}
	return nil
}

// NewDescriptor turns a schema into a storage descriptor. When TTLField is
// set, its value is read as a number of seconds and takes precedence over
// the default TTL.
func NewDescriptor(s Schema) (meta.Descriptor[Document], error) {
	if err := s.Validate(); err != nil {
		return meta.Descriptor[Document]{}, err
	}

	indexed := make(map[string]bool, len(s.Indexed))
	for _, name := range s.Indexed {
		indexed[name] = true
	}

	fields := make([]meta.Field[Document], 0, len(s.Fields)+1)
	fields = append(fields, meta.String(s.IDField, func(d *Document) *string { return &d.ID }).Identifier())
	for _, name := range s.Fields {
		f := attribute(name)
		if indexed[name] {
			f = f.Indexed()
		}
		fields = append(fields, f)
	}

	d := meta.Descriptor[Document]{
		Namespace:         s.Namespace,
		DefaultTTLSeconds: s.DefaultTTLSeconds,
		Fields:            fields,
		New:               New,
	}
	if s.TTLField != "" {
		d.TimeToLive = secondsFrom(s.TTLField)
	}
	return d, nil
}

// Register validates s and registers the resulting descriptor in r
func Register(r *meta.Registry, s Schema) error {
	d, err := NewDescriptor(s)
	if err != nil {
		return err
	}
	return meta.Register(r, d)
}

func attribute(name string) meta.Field[Document] {
	return meta.Field[Document]{
		Name: name,
		Kind: value.KindString,
		Get: func(d *Document) (value.Value, bool) {
			v, ok := d.Get(name)
			if !ok {
				return value.Value{}, false
			}
			return value.String(v), true
		},
		Set: func(d *Document, v value.Value) error {
			if v.Kind != value.KindString {
				return fmt.Errorf("attribute %s holds strings, got %s", name, v.Kind)
			}
			d.Set(name, v.Str)
			return nil
		},
	}
}

func secondsFrom(name string) func(*Document) (meta.Expiration, error) {
	return func(d *Document) (meta.Expiration, error) {
		raw, ok := d.Get(name)
		if !ok {
			return meta.Expiration{}, fmt.Errorf("attribute %s not set", name)
		}
		v, err := value.Parse(value.KindInt64, raw)
		if err != nil {
			return meta.Expiration{}, fmt.Errorf("attribute %s: %w", name, err)
		}
		return meta.Expiration{Amount: v.I64, Unit: meta.Seconds}, nil
	}
}
