package record

import (
	"context"
	"errors"
	"testing"
	"time"

	"ipstamp/internal/ipstamp"
	"ipstamp/internal/requestip"
)

func newTestService(t *testing.T, cfg ipstamp.Config) (*Service, *MemoryStore) {
	t.Helper()
	b, err := ipstamp.New(cfg)
	if err != nil {
		t.Fatalf("behavior: %v", err)
	}
	store := NewMemoryStore()
	schema := Schema{
		"comments": {"body", "ip", "ip2", "client_address"},
	}
	svc := NewService(store, schema, b)
	now := time.Unix(1700000000, 0).UTC()
	svc.clock = func() time.Time { return now }
	return svc, store
}

func TestService_CreateStampsRequestIP(t *testing.T) {
	svc, store := newTestService(t, ipstamp.Config{})
	ctx := requestip.WithClientIP(context.Background(), "203.0.113.5")

	rec, err := svc.Create(ctx, "comments", map[string]any{"body": "hello"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" || rec.IsNew() {
		t.Fatalf("expected persisted record with id")
	}

	row, err := store.Get(ctx, "comments", rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.Attributes["ip"] != "203.0.113.5" {
		t.Fatalf("expected ip stored, got %v", row.Attributes["ip"])
	}
	if row.Attributes["body"] != "hello" {
		t.Fatalf("expected body stored")
	}
	if !row.CreatedAt.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("unexpected created_at %v", row.CreatedAt)
	}
}

func TestService_CreateWithoutClientIPStoresNull(t *testing.T) {
	svc, store := newTestService(t, ipstamp.Config{})

	rec, err := svc.Create(context.Background(), "comments", map[string]any{"body": "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	row, err := store.Get(context.Background(), "comments", rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	v, ok := row.Attributes["ip"]
	if !ok || v != nil {
		t.Fatalf("expected ip stored as NULL, got %#v (present=%v)", v, ok)
	}
}

func TestService_CreateWithOverrideAndCustomAttribute(t *testing.T) {
	svc, store := newTestService(t, ipstamp.Config{IPAttribute: "client_address", Value: ipstamp.Fixed("10.0.0.1")})
	ctx := requestip.WithClientIP(context.Background(), "203.0.113.5")

	rec, err := svc.Create(ctx, "comments", map[string]any{"body": "hi", "ip": "192.0.2.1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	row, _ := store.Get(ctx, "comments", rec.ID)
	if row.Attributes["client_address"] != "10.0.0.1" {
		t.Fatalf("expected override in client_address, got %v", row.Attributes["client_address"])
	}
	if row.Attributes["ip"] != "192.0.2.1" {
		t.Fatalf("expected ip left as given, got %v", row.Attributes["ip"])
	}
}

func TestService_CreateDisabledLeavesIPUnset(t *testing.T) {
	svc, store := newTestService(t, ipstamp.Config{Disabled: true})
	ctx := requestip.WithClientIP(context.Background(), "203.0.113.5")

	rec, err := svc.Create(ctx, "comments", map[string]any{"body": "hi"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	row, _ := store.Get(ctx, "comments", rec.ID)
	if _, ok := row.Attributes["ip"]; ok {
		t.Fatalf("expected no ip attribute")
	}
}

func TestService_CreateRejectsUnknownTableAndAttribute(t *testing.T) {
	svc, _ := newTestService(t, ipstamp.Config{})
	ctx := context.Background()

	if _, err := svc.Create(ctx, "nope", nil); !errors.Is(err, ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
	if _, err := svc.Create(ctx, "comments", map[string]any{"missing": 1}); !errors.Is(err, ErrUnknownAttribute) {
		t.Fatalf("expected ErrUnknownAttribute, got %v", err)
	}
}

func TestService_CreateIntoMissingIPColumnSurfacesRecordError(t *testing.T) {
	svc, _ := newTestService(t, ipstamp.Config{IPAttribute: "remote"})
	if _, err := svc.Create(context.Background(), "comments", map[string]any{"body": "x"}); !errors.Is(err, ErrUnknownAttribute) {
		t.Fatalf("expected ErrUnknownAttribute, got %v", err)
	}
}

func TestService_TouchIssuesOnePartialUpdate(t *testing.T) {
	svc, store := newTestService(t, ipstamp.Config{})
	rec, err := svc.Create(requestip.WithClientIP(context.Background(), "192.0.2.1"), "comments", map[string]any{"body": "b"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ctx := requestip.WithClientIP(context.Background(), "203.0.113.5")
	touched, err := svc.Touch(ctx, "comments", rec.ID, "ip", "ip2")
	if err != nil {
		t.Fatalf("touch: %v", err)
	}
	if store.Updates() != 1 {
		t.Fatalf("expected exactly one partial update, got %d", store.Updates())
	}

	row, _ := store.Get(ctx, "comments", rec.ID)
	if row.Attributes["ip"] != "203.0.113.5" || row.Attributes["ip2"] != "203.0.113.5" {
		t.Fatalf("unexpected row: %v", row.Attributes)
	}
	if row.Attributes["body"] != "b" {
		t.Fatalf("expected other attributes untouched")
	}
	if v, _ := touched.Attribute("ip2"); v != "203.0.113.5" {
		t.Fatalf("expected in-memory record refreshed, got %v", v)
	}
}

func TestService_TouchDefaultsToConfiguredAttribute(t *testing.T) {
	svc, store := newTestService(t, ipstamp.Config{IPAttribute: "client_address"})
	rec, err := svc.Create(context.Background(), "comments", map[string]any{"body": "b"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ctx := requestip.WithClientIP(context.Background(), "203.0.113.9")
	if _, err := svc.Touch(ctx, "comments", rec.ID); err != nil {
		t.Fatalf("touch: %v", err)
	}
	row, _ := store.Get(ctx, "comments", rec.ID)
	if row.Attributes["client_address"] != "203.0.113.9" {
		t.Fatalf("unexpected row: %v", row.Attributes)
	}
}

func TestService_TouchMissingRecord(t *testing.T) {
	svc, _ := newTestService(t, ipstamp.Config{})
	if _, err := svc.Touch(context.Background(), "comments", "missing", "ip"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_TouchUnknownAttribute(t *testing.T) {
	svc, store := newTestService(t, ipstamp.Config{})
	rec, err := svc.Create(context.Background(), "comments", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Touch(context.Background(), "comments", rec.ID, "nope"); !errors.Is(err, ErrUnknownAttribute) {
		t.Fatalf("expected ErrUnknownAttribute, got %v", err)
	}
	if store.Updates() != 0 {
		t.Fatalf("expected no update on error")
	}
}

func TestService_SaveStampsOnUpdateWhenBound(t *testing.T) {
	svc, store := newTestService(t, ipstamp.Config{Attributes: map[ipstamp.Event][]string{
		ipstamp.EventBeforeInsert: {"ip"},
		ipstamp.EventBeforeUpdate: {"ip2"},
	}})

	rec, err := svc.Create(requestip.WithClientIP(context.Background(), "192.0.2.1"), "comments", map[string]any{"body": "v1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := rec.SetAttribute("body", "v2"); err != nil {
		t.Fatalf("set: %v", err)
	}

	ctx := requestip.WithClientIP(context.Background(), "203.0.113.5")
	if err := svc.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	row, _ := store.Get(ctx, "comments", rec.ID)
	if row.Attributes["ip"] != "192.0.2.1" || row.Attributes["ip2"] != "203.0.113.5" || row.Attributes["body"] != "v2" {
		t.Fatalf("unexpected row: %v", row.Attributes)
	}
}

func TestRecord_UpdateAttributesRequiresPersisted(t *testing.T) {
	svc, _ := newTestService(t, ipstamp.Config{})
	rec, err := svc.New("comments")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := rec.UpdateAttributes(context.Background(), map[string]any{"ip": "x"}); !errors.Is(err, ErrNotPersisted) {
		t.Fatalf("expected ErrNotPersisted, got %v", err)
	}
}

func TestService_TouchWithoutBehavior(t *testing.T) {
	svc := NewService(NewMemoryStore(), Schema{"comments": {"ip"}}, nil)
	if _, err := svc.Touch(context.Background(), "comments", "x"); !errors.Is(err, ipstamp.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestService_IPAttribute(t *testing.T) {
	svc, _ := newTestService(t, ipstamp.Config{IPAttribute: "client_address"})
	if got := svc.IPAttribute(); got != "client_address" {
		t.Fatalf("expected client_address, got %q", got)
	}
	if got := NewService(NewMemoryStore(), Schema{}, nil).IPAttribute(); got != "" {
		t.Fatalf("expected empty attribute without behavior, got %q", got)
	}
}
