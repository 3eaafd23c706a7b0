// ABOUTME: Redis implementation of Store on go-redis
// ABOUTME: Hash overwrite runs DEL+HSET in one MULTI on a single key

package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements Store over any go-redis client (single node, cluster, ring)
type Redis struct {
	client redis.UniversalClient
}

// NewRedis wraps an existing client. The caller owns the client's lifetime.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// Options for dialing a single Redis node
type Options struct {
	Addr     string
	Password string
	DB       int
}

// DialRedis creates a client for a single node and checks the connection
func DialRedis(ctx context.Context, opts Options) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedis(client), nil
}

// Close closes the underlying client
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	return r.client.HGetAll(ctx, key).Result()
}

func (r *Redis) HashReplace(ctx context.Context, key string, fields map[string]string) error {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(args) > 0 {
			pipe.HSet(ctx, key, args...)
		}
		return nil
	})
	return err
}

func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	// PEXPIRE has millisecond resolution
	if ttl > 0 && ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	return r.client.PExpire(ctx, key, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *Redis) SetAdd(ctx context.Context, key, member string) error {
	return r.client.SAdd(ctx, key, member).Err()
}

func (r *Redis) SetRemove(ctx context.Context, key, member string) error {
	return r.client.SRem(ctx, key, member).Err()
}

func (r *Redis) SetMembers(ctx context.Context, key string) ([]string, error) {
	return r.client.SMembers(ctx, key).Result()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
