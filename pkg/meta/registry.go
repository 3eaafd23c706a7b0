// ABOUTME: Type-keyed metadata registry, populated once per type on first use
// ABOUTME: Lookups after the first resolution are lock-free cache reads

package meta

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/puzpuzpuz/xsync/v3"
)

// ErrAlreadyResolved is returned when registering a type whose metadata was
// already resolved
var ErrAlreadyResolved = errors.New("record type already resolved")

// Registry maps record types to their resolved metadata
type Registry struct {
	descriptors *xsync.MapOf[reflect.Type, any]
	resolved    *xsync.MapOf[reflect.Type, *resolution]
}

type resolution struct {
	meta any
	err  error
}

// Default is the process-wide registry used when none is supplied
var Default = NewRegistry()

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		descriptors: xsync.NewMapOf[reflect.Type, any](),
		resolved:    xsync.NewMapOf[reflect.Type, *resolution](),
	}
}

// Register supplies the descriptor for T. It replaces an earlier descriptor
// as long as T has not been resolved; once resolved, the metadata of T is
// fixed and Register returns ErrAlreadyResolved.
func Register[T any](r *Registry, d Descriptor[T]) error {
	typ := reflect.TypeOf((*T)(nil)).Elem()

	// Runs under the same lock as a concurrent first resolution of typ
	var err error
	r.resolved.Compute(typ, func(old *resolution, loaded bool) (*resolution, bool) {
		if loaded {
			err = fmt.Errorf("%w: %s", ErrAlreadyResolved, typ)
			return old, false
		}
		r.descriptors.Store(typ, d)
		return nil, true
	})
	return err
}

// Resolve returns the metadata of T. A type with no descriptor, or with an
// invalid one, yields an error wrapping ErrNotConfigured. The outcome is
// computed once and cached.
func Resolve[T any](r *Registry) (*Metadata[T], error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()

	res, _ := r.resolved.LoadOrCompute(typ, func() *resolution {
		m, err := build[T](r, typ)
		return &resolution{meta: m, err: err}
	})
	if res.err != nil {
		return nil, res.err
	}
	return res.meta.(*Metadata[T]), nil
}

func build[T any](r *Registry, typ reflect.Type) (*Metadata[T], error) {
	if d, ok := r.descriptors.Load(typ); ok {
		return Build(d.(Descriptor[T]))
	}
	if describer, ok := any(new(T)).(Describer[T]); ok {
		return Build(describer.HashDescriptor())
	}
	return nil, fmt.Errorf("%w: no descriptor for %s", ErrNotConfigured, typ)
}
