// ABOUTME: Tests for the Redis store against an in-process Redis
// ABOUTME: Also covers the instrumented decorator

package store

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client), mr
}

func TestHashReplaceOverwritesAllFields(t *testing.T) {
	s, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, s.HashReplace(ctx, "example:1", map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, s.HashReplace(ctx, "example:1", map[string]string{"a": "3"}))

	fields, err := s.HashGetAll(ctx, "example:1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "3"}, fields)
	assert.Equal(t, "3", mr.HGet("example:1", "a"))
}

func TestHashReplaceDropsPreviousExpiration(t *testing.T) {
	s, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, s.HashReplace(ctx, "k", map[string]string{"a": "1"}))
	require.NoError(t, s.Expire(ctx, "k", 5*time.Second))
	assert.Equal(t, 5*time.Second, mr.TTL("k"))

	require.NoError(t, s.HashReplace(ctx, "k", map[string]string{"a": "2"}))
	assert.Zero(t, mr.TTL("k"), "a rewritten hash starts without expiration")
}

func TestHashReplaceEmptyDeletes(t *testing.T) {
	s, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, s.HashReplace(ctx, "k", map[string]string{"a": "1"}))
	require.NoError(t, s.HashReplace(ctx, "k", nil))
	assert.False(t, mr.Exists("k"))
}

func TestHashGetAllMissing(t *testing.T) {
	s, _ := setupRedis(t)

	fields, err := s.HashGetAll(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestExpire(t *testing.T) {
	s, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, s.HashReplace(ctx, "k", map[string]string{"a": "1"}))
	require.NoError(t, s.Expire(ctx, "k", 1500*time.Millisecond))
	assert.Equal(t, 1500*time.Millisecond, mr.TTL("k"))

	mr.FastForward(2 * time.Second)
	assert.False(t, mr.Exists("k"))
}

func TestExpireSubMillisecondRoundsUp(t *testing.T) {
	s, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, s.HashReplace(ctx, "k", map[string]string{"a": "1"}))
	require.NoError(t, s.Expire(ctx, "k", 10*time.Microsecond))
	assert.Equal(t, time.Millisecond, mr.TTL("k"))
}

func TestSetOperations(t *testing.T) {
	s, _ := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, s.SetAdd(ctx, "example:f:v", "1"))
	require.NoError(t, s.SetAdd(ctx, "example:f:v", "2"))
	require.NoError(t, s.SetAdd(ctx, "example:f:v", "2"))

	members, err := s.SetMembers(ctx, "example:f:v")
	require.NoError(t, err)
	sort.Strings(members)
	assert.Equal(t, []string{"1", "2"}, members)

	require.NoError(t, s.SetRemove(ctx, "example:f:v", "1"))
	require.NoError(t, s.SetRemove(ctx, "example:f:v", "missing"))

	members, err = s.SetMembers(ctx, "example:f:v")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, members)
}

func TestDeleteAndPing(t *testing.T) {
	s, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.HashReplace(ctx, "k", map[string]string{"a": "1"}))
	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}

func TestProviderErrorsPassThrough(t *testing.T) {
	s, mr := setupRedis(t)
	ctx := context.Background()

	mr.SetError("ERR injected failure")

	_, err := s.HashGetAll(ctx, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected failure")
	assert.Error(t, s.SetAdd(ctx, "k", "m"))
	assert.Error(t, s.HashReplace(ctx, "k", map[string]string{"a": "1"}))
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := DialRedis(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	mr.RequireAuth("secret")
	_, err = DialRedis(context.Background(), Options{Addr: mr.Addr()})
	assert.Error(t, err, "unauthenticated ping must fail")

	s, err = DialRedis(context.Background(), Options{Addr: mr.Addr(), Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []string
	errs int
}

func (o *recordingObserver) ObserveStoreOperation(op string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, op)
	if err != nil {
		o.errs++
	}
}

func TestInstrumentedReportsEveryCall(t *testing.T) {
	base, mr := setupRedis(t)
	obs := &recordingObserver{}
	s := Instrument(base, obs)
	ctx := context.Background()

	require.NoError(t, s.HashReplace(ctx, "k", map[string]string{"a": "1"}))
	_, err := s.HashGetAll(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, s.Expire(ctx, "k", time.Second))
	require.NoError(t, s.SetAdd(ctx, "s", "m"))
	_, err = s.SetMembers(ctx, "s")
	require.NoError(t, err)
	require.NoError(t, s.SetRemove(ctx, "s", "m"))
	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Ping(ctx))

	assert.Equal(t, []string{
		OpHashWrite, OpHashGetAll, OpExpire, OpSetAdd, OpSetMembers, OpSetRemove, OpDelete, OpPing,
	}, obs.ops)
	assert.Zero(t, obs.errs)

	mr.SetError("ERR boom")
	assert.Error(t, s.Delete(ctx, "k"))
	assert.Equal(t, 1, obs.errs)
}

func TestInstrumentWithoutObservers(t *testing.T) {
	base, _ := setupRedis(t)
	assert.Same(t, Store(base), Instrument(base))
}
