// ABOUTME: Secondary index maintenance over set structures
// ABOUTME: One set per (namespace, field, value) listing record identifiers

package index

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nainya/hashstore/pkg/codec"
	"github.com/nainya/hashstore/pkg/meta"
	"github.com/nainya/hashstore/pkg/store"
)

// Maintainer adds and removes identifiers in index sets.
//
// Index membership is best effort: entries are never reconciled with hashes
// that expired on their own, and a save does not drop the entry for a
// previous value of a field.
type Maintainer struct {
	store store.Store
	log   zerolog.Logger
}

// NewMaintainer creates a maintainer over s
func NewMaintainer(s store.Store, log zerolog.Logger) *Maintainer {
	return &Maintainer{store: s, log: log}
}

// Add puts id into every given index set. Sets are updated concurrently;
// the first failure is returned once all calls finish. It returns the number
// of sets written.
func (mt *Maintainer) Add(ctx context.Context, id string, keys []string) (int, error) {
	return mt.apply(ctx, id, keys, mt.store.SetAdd)
}

// Remove takes id out of every given index set
func (mt *Maintainer) Remove(ctx context.Context, id string, keys []string) (int, error) {
	return mt.apply(ctx, id, keys, mt.store.SetRemove)
}

// Members lists the identifiers in one index set
func (mt *Maintainer) Members(ctx context.Context, key string) ([]string, error) {
	return mt.store.SetMembers(ctx, key)
}

func (mt *Maintainer) apply(ctx context.Context, id string, keys []string,
	op func(ctx context.Context, key, member string) error) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	// A failing call does not cancel its siblings
	var g errgroup.Group
	for _, key := range keys {
		key := key
		g.Go(func() error {
			return op(ctx, key, id)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(keys), nil
}

func indexKeys[T any](m *meta.Metadata[T], values map[string]string) []string {
	out := make([]string, 0, len(values))
	for field, val := range values {
		out = append(out, m.IndexKey(field, val))
	}
	return out
}

// MembersOf lists identifiers indexed under field == val
func MembersOf[T any](ctx context.Context, mt *Maintainer, m *meta.Metadata[T], field, val string) ([]string, error) {
	return mt.Members(ctx, m.IndexKey(field, val))
}

// AddEntries indexes rec under the current value of each of its indexed fields
func AddEntries[T any](ctx context.Context, mt *Maintainer, rec *T, m *meta.Metadata[T]) (int, error) {
	if len(m.Indexed) == 0 {
		return 0, nil
	}
	id, ok := m.Identifier(rec)
	if !ok {
		return 0, nil
	}
	return mt.Add(ctx, id, indexKeys(m, codec.IndexedValues(rec, m, mt.log)))
}

// RemoveEntries loads the stored record and removes id from the index sets
// of its stored indexed values. A record that no longer exists leaves the
// sets untouched since its former values cannot be recovered.
func RemoveEntries[T any](ctx context.Context, mt *Maintainer, m *meta.Metadata[T], id string) (int, error) {
	if len(m.Indexed) == 0 {
		return 0, nil
	}

	stored, err := mt.store.HashGetAll(ctx, m.StorageKey(id))
	if err != nil {
		return 0, err
	}
	if len(stored) == 0 {
		mt.log.Debug().
			Str("component", "index").
			Str("namespace", m.Namespace).
			Str("id", id).
			Msg("Record not found, index cleanup skipped")
		return 0, nil
	}

	values := make(map[string]string, len(m.Indexed))
	for _, f := range m.Indexed {
		if v, ok := stored[f.Name]; ok {
			values[f.Name] = v
		}
	}
	return mt.Remove(ctx, id, indexKeys(m, values))
}
