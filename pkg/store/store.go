// ABOUTME: Key-value store capabilities consumed by the repository core
// ABOUTME: Hash and set point operations addressed by string keys

package store

import (
	"context"
	"time"
)

// Store is the remote key-value provider. Errors are returned as the
// provider reports them; implementations do not retry.
type Store interface {
	// HashGetAll returns every field of the hash at key; empty when missing
	HashGetAll(ctx context.Context, key string) (map[string]string, error)

	// HashReplace makes fields the complete content of the hash at key.
	// Fields not in the map and any previous expiration are dropped.
	HashReplace(ctx context.Context, key string, fields map[string]string) error

	// Expire sets the time to live of key
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Delete removes key
	Delete(ctx context.Context, key string) error

	// SetAdd adds member to the set at key
	SetAdd(ctx context.Context, key, member string) error

	// SetRemove removes member from the set at key
	SetRemove(ctx context.Context, key, member string) error

	// SetMembers lists the set at key; empty when missing
	SetMembers(ctx context.Context, key string) ([]string, error)

	// Ping checks connectivity
	Ping(ctx context.Context) error
}
