package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestStorageJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStorage(NewMemoryBackend("test"))

	type doc struct {
		Name string `json:"name"`
	}
	if err := s.PutJSON(ctx, "docs/a.json", doc{Name: "a"}); err != nil {
		t.Fatalf("PutJSON failed: %v", err)
	}

	var got doc
	if err := s.GetJSON(ctx, "docs/a.json", &got); err != nil || got.Name != "a" {
		t.Fatalf("GetJSON returned %+v (%v)", got, err)
	}
	if err := s.GetJSON(ctx, "docs/missing.json", &got); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}

	if ok, err := s.Exists(ctx, "docs/a.json"); !ok || err != nil {
		t.Fatalf("expected object to exist, got %t (%v)", ok, err)
	}
	if ok, err := s.Exists(ctx, "docs/b.json"); ok || err != nil {
		t.Fatalf("expected object to be absent, got %t (%v)", ok, err)
	}
}

func TestStorageDeleteMatching(t *testing.T) {
	ctx := context.Background()
	s := NewStorage(NewMemoryBackend("test"))
	for _, key := range []string{"p/old-1", "p/old-2", "p/new-1", "other/old-3"} {
		if err := s.PutJSON(ctx, key, key); err != nil {
			t.Fatalf("PutJSON(%s) failed: %v", key, err)
		}
	}

	removed, err := s.DeleteMatching(ctx, "p/", func(obj ObjectInfo) bool {
		return strings.Contains(obj.Key, "old")
	})
	if err != nil || removed != 2 {
		t.Fatalf("expected 2 removed, got %d (%v)", removed, err)
	}

	left, _ := s.List(ctx, "")
	if len(left) != 2 {
		t.Fatalf("expected 2 objects left, got %d", len(left))
	}
}
