// ABOUTME: Tests for index set maintenance
// ABOUTME: Uses an in-process Redis for the set structures

package index

import (
	"context"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nainya/hashstore/pkg/meta"
	"github.com/nainya/hashstore/pkg/store"
)

type ticket struct {
	ID       string
	Queue    string
	Assignee string
	Title    string
}

func ticketMeta(t *testing.T) *meta.Metadata[ticket] {
	t.Helper()
	m, err := meta.Build(meta.Descriptor[ticket]{
		Namespace: "ticket",
		Fields: []meta.Field[ticket]{
			meta.String("id", func(tk *ticket) *string { return &tk.ID }).Identifier(),
			meta.String("queue", func(tk *ticket) *string { return &tk.Queue }).Indexed(),
			meta.String("assignee", func(tk *ticket) *string { return &tk.Assignee }).Indexed(),
			meta.String("title", func(tk *ticket) *string { return &tk.Title }),
		},
	})
	if err != nil {
		t.Fatalf("Failed to build metadata: %v", err)
	}
	return m
}

func setupMaintainer(t *testing.T) (*Maintainer, store.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := store.NewRedis(client)
	return NewMaintainer(s, zerolog.Nop()), s, mr
}

func isMember(t *testing.T, mr *miniredis.Miniredis, key, member string) bool {
	t.Helper()
	if !mr.Exists(key) {
		return false
	}
	ok, err := mr.IsMember(key, member)
	if err != nil {
		t.Fatalf("IsMember(%s) failed: %v", key, err)
	}
	return ok
}

func TestAddEntries(t *testing.T) {
	mt, _, mr := setupMaintainer(t)
	m := ticketMeta(t)

	n, err := AddEntries(context.Background(), mt, &ticket{ID: "t1", Queue: "ops", Assignee: "kim", Title: "disk"}, m)
	if err != nil {
		t.Fatalf("AddEntries failed: %v", err)
	}
	if n != 2 {
		t.Errorf("touched %d sets, want 2", n)
	}

	if !isMember(t, mr, "ticket:queue:ops", "t1") {
		t.Error("t1 missing from ticket:queue:ops")
	}
	if !isMember(t, mr, "ticket:assignee:kim", "t1") {
		t.Error("t1 missing from ticket:assignee:kim")
	}
	if mr.Exists("ticket:title:disk") {
		t.Error("plain field must not be indexed")
	}
}

func TestAddEntriesSkipsAbsentValues(t *testing.T) {
	mt, _, mr := setupMaintainer(t)
	m := ticketMeta(t)

	n, err := AddEntries(context.Background(), mt, &ticket{ID: "t2", Queue: "ops"}, m)
	if err != nil {
		t.Fatalf("AddEntries failed: %v", err)
	}
	if n != 1 {
		t.Errorf("touched %d sets, want 1", n)
	}
	if mr.Exists("ticket:assignee:") {
		t.Error("absent value must not create an index set")
	}
}

func TestAddEntriesWithoutIndexedFields(t *testing.T) {
	mt, _, mr := setupMaintainer(t)
	m, err := meta.Build(meta.Descriptor[ticket]{
		Namespace: "plain",
		Fields: []meta.Field[ticket]{
			meta.String("id", func(tk *ticket) *string { return &tk.ID }).Identifier(),
			meta.String("queue", func(tk *ticket) *string { return &tk.Queue }),
		},
	})
	if err != nil {
		t.Fatalf("Failed to build metadata: %v", err)
	}

	n, err := AddEntries(context.Background(), mt, &ticket{ID: "t3", Queue: "ops"}, m)
	if err != nil || n != 0 {
		t.Fatalf("AddEntries = %d, %v; want 0, nil", n, err)
	}
	if len(mr.Keys()) != 0 {
		t.Errorf("expected no keys, got %v", mr.Keys())
	}
}

func TestRemoveEntriesUsesStoredValues(t *testing.T) {
	mt, s, mr := setupMaintainer(t)
	m := ticketMeta(t)
	ctx := context.Background()

	if _, err := AddEntries(ctx, mt, &ticket{ID: "t4", Queue: "ops", Assignee: "kim"}, m); err != nil {
		t.Fatalf("AddEntries failed: %v", err)
	}
	// the stored hash says "dev", so the "ops" entry is stale and stays
	if err := s.HashReplace(ctx, "ticket:t4", map[string]string{"id": "t4", "queue": "dev", "assignee": "kim"}); err != nil {
		t.Fatalf("HashReplace failed: %v", err)
	}
	if _, err := mt.Add(ctx, "t4", []string{"ticket:queue:dev"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	n, err := RemoveEntries(ctx, mt, m, "t4")
	if err != nil {
		t.Fatalf("RemoveEntries failed: %v", err)
	}
	if n != 2 {
		t.Errorf("touched %d sets, want 2", n)
	}

	if isMember(t, mr, "ticket:queue:dev", "t4") {
		t.Error("t4 still in ticket:queue:dev")
	}
	if isMember(t, mr, "ticket:assignee:kim", "t4") {
		t.Error("t4 still in ticket:assignee:kim")
	}
	if !isMember(t, mr, "ticket:queue:ops", "t4") {
		t.Error("stale entry ticket:queue:ops should be left alone")
	}
}

func TestRemoveEntriesMissingRecordIsNoop(t *testing.T) {
	mt, _, mr := setupMaintainer(t)
	m := ticketMeta(t)
	ctx := context.Background()

	if _, err := mt.Add(ctx, "ghost", []string{"ticket:queue:ops"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	n, err := RemoveEntries(ctx, mt, m, "ghost")
	if err != nil || n != 0 {
		t.Fatalf("RemoveEntries = %d, %v; want 0, nil", n, err)
	}
	if !isMember(t, mr, "ticket:queue:ops", "ghost") {
		t.Error("index of a missing record must not be touched")
	}
}

func TestMembers(t *testing.T) {
	mt, _, _ := setupMaintainer(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := mt.Add(ctx, id, []string{"ticket:queue:ops"}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	ids, err := MembersOf(ctx, mt, ticketMeta(t), "queue", "ops")
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	sort.Strings(ids)
	if len(ids) != 3 || ids[0] != "a" || ids[2] != "c" {
		t.Errorf("unexpected members %v", ids)
	}

	ids, err = mt.Members(ctx, "ticket:queue:none")
	if err != nil || len(ids) != 0 {
		t.Errorf("Members of missing set = %v, %v", ids, err)
	}
}

func TestAddFailureFailsAggregate(t *testing.T) {
	mt, _, mr := setupMaintainer(t)
	mr.SetError("ERR injected failure")

	_, err := mt.Add(context.Background(), "t5", []string{"ticket:queue:ops", "ticket:assignee:kim"})
	if err == nil {
		t.Fatal("expected error from failing store")
	}
}
