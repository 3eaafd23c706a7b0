// ABOUTME: Repository facade persisting typed records as hashes
// ABOUTME: Save and delete run as ordered step sequences over the store

// Package repository saves, loads and deletes typed records kept as hashes
// in a key-value store, with set-based secondary indexes and per-record
// expiration.
//
// A record type must be described through the meta registry. Operations on
// a type without a usable descriptor do nothing and return an empty result.
//
// Index sets are not reconciled with hashes that expire on their own: after
// a record expires its identifier stays in the index sets until DeleteByID
// is called for it.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nainya/hashstore/pkg/codec"
	"github.com/nainya/hashstore/pkg/index"
	"github.com/nainya/hashstore/pkg/meta"
	"github.com/nainya/hashstore/pkg/store"
	"github.com/nainya/hashstore/pkg/ttl"
)

// Operation names used in logs and recorder calls
const (
	OpSave           = "save"
	OpFindByID       = "find_by_id"
	OpDeleteByID     = "delete_by_id"
	OpFindIDsByIndex = "find_ids_by_index"
)

// Status values reported to the Recorder
const (
	StatusSuccess       = "success"
	StatusError         = "error"
	StatusNotFound      = "not_found"
	StatusNotConfigured = "not_configured"
)

var (
	// ErrNoIdentifier is returned when a record's identifier cannot be read
	// back after it was assigned
	ErrNoIdentifier = errors.New("record identifier not readable after assignment")

	// ErrNotIndexed is returned when looking up a field that is not indexed
	ErrNotIndexed = errors.New("field is not indexed")
)

// Repository stores records of type T
type Repository[T any] struct {
	store    store.Store
	index    *index.Maintainer
	registry *meta.Registry
	log      zerolog.Logger
	recorder Recorder
	newID    func() string
}

// New creates a repository for T over s
func New[T any](s store.Store, opts ...Option) *Repository[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	log := o.log.With().Str("component", "repository").Logger()
	return &Repository[T]{
		store:    s,
		index:    index.NewMaintainer(s, o.log),
		registry: o.registry,
		log:      log,
		recorder: o.recorder,
		newID:    o.newID,
	}
}

// Metadata returns the resolved metadata of T
func (r *Repository[T]) Metadata() (*meta.Metadata[T], error) {
	return meta.Resolve[T](r.registry)
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

// runSteps executes steps in order. It stops at the first failing step or
// when ctx is done before a step is issued, returning that step's name.
func runSteps(ctx context.Context, steps []step) (string, error) {
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return s.name, err
		}
		if err := s.run(ctx); err != nil {
			return s.name, err
		}
	}
	return "", nil
}

func (r *Repository[T]) resolve(op string) (*meta.Metadata[T], bool) {
	m, err := meta.Resolve[T](r.registry)
	if err != nil {
		r.log.Warn().
			Str("operation", op).
			Err(err).
			Msg("Record type not configured, operation skipped")
		r.recorder.RecordRepoOperation(op, "", StatusNotConfigured, 0)
		return nil, false
	}
	return m, true
}

func (r *Repository[T]) finish(op, namespace string, start time.Time, err error, status string) {
	if err != nil {
		status = StatusError
	}
	r.recorder.RecordRepoOperation(op, namespace, status, time.Since(start))
}

// Save writes rec, assigning a fresh identifier when it has none.
//
// The hash is fully overwritten, then the expiration is applied, then the
// identifier is added to the index set of each indexed field. A failing step
// stops the sequence; completed steps are not rolled back. Saving again
// converges to the same state. Save returns nil without touching the store
// when T is not configured or rec is nil; a nil rec is not recorded.
func (r *Repository[T]) Save(ctx context.Context, rec *T) (saved *T, err error) {
	if rec == nil {
		return nil, nil
	}

	start := time.Now()
	m, ok := r.resolve(OpSave)
	if !ok {
		return nil, nil
	}
	defer func() { r.finish(OpSave, m.Namespace, start, err, StatusSuccess) }()

	id, ok := m.Identifier(rec)
	if !ok {
		if err := m.SetIdentifier(rec, r.newID()); err != nil {
			return nil, fmt.Errorf("assign identifier: %w", err)
		}
		if id, ok = m.Identifier(rec); !ok {
			return nil, ErrNoIdentifier
		}
	}
	key := m.StorageKey(id)

	log := r.log.With().
		Str("operation", OpSave).
		Str("namespace", m.Namespace).
		Str("id", id).
		Logger()

	failed, err := runSteps(ctx, []step{
		{"write_hash", func(ctx context.Context) error {
			return r.store.HashReplace(ctx, key, codec.Encode(rec, m, log))
		}},
		{"expire", func(ctx context.Context) error {
			policy := ttl.Resolve(rec, m, log)
			r.recorder.RecordTTLResolution(m.Namespace, policy.Source.String())
			if !policy.Expires() {
				return nil
			}
			return r.store.Expire(ctx, key, policy.Duration)
		}},
		{"index", func(ctx context.Context) error {
			n, err := index.AddEntries(ctx, r.index, rec, m)
			if err != nil {
				return err
			}
			r.recorder.RecordIndexMutation(m.Namespace, "add", n)
			return nil
		}},
	})
	if err != nil {
		log.Error().Str("step", failed).Err(err).Msg("Save failed")
		return nil, err
	}

	log.Debug().Dur("duration_ms", time.Since(start)).Msg("Record saved")
	return rec, nil
}

// FindByID loads the record stored under id. A missing record, or an
// unconfigured type, yields nil with no error. A stored value that cannot
// be converted to its field type yields a *codec.DecodeError.
func (r *Repository[T]) FindByID(ctx context.Context, id string) (found *T, err error) {
	start := time.Now()
	m, ok := r.resolve(OpFindByID)
	if !ok {
		return nil, nil
	}
	status := StatusSuccess
	defer func() { r.finish(OpFindByID, m.Namespace, start, err, status) }()

	props, err := r.store.HashGetAll(ctx, m.StorageKey(id))
	if err != nil {
		return nil, err
	}
	if len(props) == 0 {
		status = StatusNotFound
		return nil, nil
	}

	log := r.log.With().
		Str("operation", OpFindByID).
		Str("namespace", m.Namespace).
		Str("id", id).
		Logger()

	rec, err := codec.Decode(props, m, log)
	if err != nil {
		log.Error().Err(err).Msg("Stored record could not be decoded")
		return nil, err
	}
	if _, ok := m.Identifier(rec); !ok {
		if err := m.SetIdentifier(rec, id); err != nil {
			return nil, fmt.Errorf("restore identifier: %w", err)
		}
	}
	return rec, nil
}

// DeleteByID removes id from the index sets of its stored values and then
// deletes its hash. Deleting a missing record leaves the index sets alone
// and still succeeds.
func (r *Repository[T]) DeleteByID(ctx context.Context, id string) (err error) {
	start := time.Now()
	m, ok := r.resolve(OpDeleteByID)
	if !ok {
		return nil
	}
	defer func() { r.finish(OpDeleteByID, m.Namespace, start, err, StatusSuccess) }()

	log := r.log.With().
		Str("operation", OpDeleteByID).
		Str("namespace", m.Namespace).
		Str("id", id).
		Logger()

	failed, err := runSteps(ctx, []step{
		{"unindex", func(ctx context.Context) error {
			n, err := index.RemoveEntries(ctx, r.index, m, id)
			if err != nil {
				return err
			}
			r.recorder.RecordIndexMutation(m.Namespace, "remove", n)
			return nil
		}},
		{"delete_hash", func(ctx context.Context) error {
			return r.store.Delete(ctx, m.StorageKey(id))
		}},
	})
	if err != nil {
		log.Error().Str("step", failed).Err(err).Msg("Delete failed")
		return err
	}

	log.Debug().Dur("duration_ms", time.Since(start)).Msg("Record deleted")
	return nil
}

// FindIDsByIndex lists the identifiers indexed under field == val. Entries
// may be stale: a listed identifier can belong to an expired record or to a
// record whose field has since changed.
func (r *Repository[T]) FindIDsByIndex(ctx context.Context, field, val string) (ids []string, err error) {
	start := time.Now()
	m, ok := r.resolve(OpFindIDsByIndex)
	if !ok {
		return nil, nil
	}
	defer func() { r.finish(OpFindIDsByIndex, m.Namespace, start, err, StatusSuccess) }()

	f, ok := m.Field(field)
	if !ok || f.Role != meta.RoleIndexed {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, field)
	}
	return index.MembersOf(ctx, r.index, m, field, val)
}
