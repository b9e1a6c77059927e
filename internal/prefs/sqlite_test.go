package prefs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/deojon/studio/internal/services"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")

	store, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := store.Get(ctx, services.SavedUserIDKey); !errors.Is(err, services.ErrPreferenceNotFound) {
		t.Fatalf("expected ErrPreferenceNotFound, got %v", err)
	}
	if err := store.Set(ctx, services.SavedUserIDKey, "alice"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, services.SavedUserIDKey, "bob"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, services.SavedUserIDKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "bob" {
		t.Fatalf("expected bob, got %q", got)
	}

	if err := reopened.Delete(ctx, services.SavedUserIDKey); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := reopened.Delete(ctx, services.SavedUserIDKey); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := reopened.Get(ctx, services.SavedUserIDKey); !errors.Is(err, services.ErrPreferenceNotFound) {
		t.Fatalf("expected ErrPreferenceNotFound after delete, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, err := store.Get(ctx, "k"); err != nil || got != "v" {
		t.Fatalf("get = %q, %v", got, err)
	}
	_ = store.Delete(ctx, "k")
	if _, err := store.Get(ctx, "k"); !errors.Is(err, services.ErrPreferenceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
