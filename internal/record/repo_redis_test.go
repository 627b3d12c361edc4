package record

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, ""), mr
}

func TestRedisStore_Key(t *testing.T) {
	s := NewRedisStore(nil, "")
	if got := s.key("comments", "r1"); got != "ipstamp:record:comments:r1" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestSplitFields(t *testing.T) {
	set, del := splitFields(map[string]any{"ip2": nil, "ip": "1.1.1.1", "n": 3})
	want := []any{"ip", "1.1.1.1", "n", "3"}
	if len(set) != len(want) {
		t.Fatalf("unexpected set: %v", set)
	}
	for i := range want {
		if set[i] != want[i] {
			t.Fatalf("arg %d: got %v want %v", i, set[i], want[i])
		}
	}
	if len(del) != 1 || del[0] != "ip2" {
		t.Fatalf("unexpected del: %v", del)
	}
}

func TestRedisStore_InsertGetUpdate(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()
	now := time.Unix(1700000000, 0).UTC()

	err := s.Insert(ctx, "comments", Row{ID: "r1", CreatedAt: now, Attributes: map[string]any{"body": "hi", "ip": nil}})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if mr.HGet("ipstamp:record:comments:r1", "body") != "hi" {
		t.Fatalf("expected body field stored")
	}
	fields, err := mr.HKeys("ipstamp:record:comments:r1")
	if err != nil {
		t.Fatalf("hkeys: %v", err)
	}
	for _, f := range fields {
		if f == "ip" {
			t.Fatalf("expected nil ip to stay absent, got fields %v", fields)
		}
	}

	if err := s.Insert(ctx, "comments", Row{ID: "r1", CreatedAt: now}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if err := s.UpdateAttributes(ctx, "comments", "r1", map[string]any{"ip": "203.0.113.5", "ip2": "203.0.113.5"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	row, err := s.Get(ctx, "comments", "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.Attributes["ip"] != "203.0.113.5" || row.Attributes["ip2"] != "203.0.113.5" || row.Attributes["body"] != "hi" {
		t.Fatalf("unexpected row: %v", row.Attributes)
	}
	if !row.CreatedAt.Equal(now) {
		t.Fatalf("unexpected created_at %v", row.CreatedAt)
	}

	if err := s.UpdateAttributes(ctx, "comments", "r1", map[string]any{"ip2": nil}); err != nil {
		t.Fatalf("update: %v", err)
	}
	row, _ = s.Get(ctx, "comments", "r1")
	if _, ok := row.Attributes["ip2"]; ok {
		t.Fatalf("expected ip2 removed, got %v", row.Attributes)
	}
	if row.Attributes["ip"] != "203.0.113.5" {
		t.Fatalf("expected ip kept, got %v", row.Attributes)
	}
}

func TestRedisStore_UpdateMissingRecord(t *testing.T) {
	s, mr := newTestRedisStore(t)

	err := s.UpdateAttributes(context.Background(), "comments", "missing", map[string]any{"ip": "203.0.113.5"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if mr.Exists("ipstamp:record:comments:missing") {
		t.Fatalf("expected no key created")
	}
	if _, err := s.Get(context.Background(), "comments", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
