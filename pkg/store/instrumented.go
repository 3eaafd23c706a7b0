package store

import (
	"context"
	"time"
)

// Operation names reported to observers
const (
	OpHashGetAll = "hgetall"
	OpHashWrite  = "hreplace"
	OpExpire     = "expire"
	OpDelete     = "del"
	OpSetAdd     = "sadd"
	OpSetRemove  = "srem"
	OpSetMembers = "smembers"
	OpPing       = "ping"
)

// Observer is told about every completed store call
type Observer interface {
	ObserveStoreOperation(operation string, duration time.Duration, err error)
}

// Instrumented decorates a Store, timing each call and reporting it to the
// observers. Results and errors pass through untouched.
type Instrumented struct {
	next      Store
	observers []Observer
}

// Instrument wraps s. With no observers it returns s unchanged.
func Instrument(s Store, observers ...Observer) Store {
	if len(observers) == 0 {
		return s
	}
	return &Instrumented{next: s, observers: observers}
}

func (i *Instrumented) observe(op string, start time.Time, err error) {
	d := time.Since(start)
	for _, o := range i.observers {
		o.ObserveStoreOperation(op, d, err)
	}
}

func (i *Instrumented) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	start := time.Now()
	fields, err := i.next.HashGetAll(ctx, key)
	i.observe(OpHashGetAll, start, err)
	return fields, err
}

func (i *Instrumented) HashReplace(ctx context.Context, key string, fields map[string]string) error {
	start := time.Now()
	err := i.next.HashReplace(ctx, key, fields)
	i.observe(OpHashWrite, start, err)
	return err
}

func (i *Instrumented) Expire(ctx context.Context, key string, ttl time.Duration) error {
	start := time.Now()
	err := i.next.Expire(ctx, key, ttl)
	i.observe(OpExpire, start, err)
	return err
}

func (i *Instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.next.Delete(ctx, key)
	i.observe(OpDelete, start, err)
	return err
}

func (i *Instrumented) SetAdd(ctx context.Context, key, member string) error {
	start := time.Now()
	err := i.next.SetAdd(ctx, key, member)
	i.observe(OpSetAdd, start, err)
	return err
}

func (i *Instrumented) SetRemove(ctx context.Context, key, member string) error {
	start := time.Now()
	err := i.next.SetRemove(ctx, key, member)
	i.observe(OpSetRemove, start, err)
	return err
}

func (i *Instrumented) SetMembers(ctx context.Context, key string) ([]string, error) {
	start := time.Now()
	members, err := i.next.SetMembers(ctx, key)
	i.observe(OpSetMembers, start, err)
	return members, err
}

func (i *Instrumented) Ping(ctx context.Context) error {
	start := time.Now()
	err := i.next.Ping(ctx)
	i.observe(OpPing, start, err)
	return err
}
