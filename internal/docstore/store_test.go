package docstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// newTestStore opens a store on a fresh file in a temp directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "store.json"), nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestOpenCreatesContainer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deep", "store.json")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("container directory was not created: %v", err)
	}
	// The store file itself is created lazily on first access.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("store file should not exist before first access, stat err: %v", err)
	}
	if _, err := s.GetItemByID(context.Background(), "missing"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("store file was not initialized: %v", err)
	}
}

func TestInitializeCreatesStoreFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("store file missing after Initialize: %v", err)
	}
}

func TestInitializeWritesEmptyDocument(t *testing.T) {
	s := newTestStore(t)
	page, err := s.GetAllItems(context.Background(), ItemFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 0 || len(page.Items) != 0 {
		t.Errorf("expected empty store, got total=%d", page.Total)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Metadata.Version != CurrentVersion {
		t.Errorf("version = %q, want %q", doc.Metadata.Version, CurrentVersion)
	}
	if doc.Users == nil || doc.Items == nil || doc.Sessions == nil {
		t.Error("collections should serialize as empty arrays, not null")
	}
}

func TestCorruptionDetection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateItem(ctx, ItemInput{Name: "Pen", Description: "Blue ink pen", Price: 1.99}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := s.GetAllItems(ctx, ItemFilter{})
	if err == nil {
		t.Fatal("expected corruption error")
	}
	if KindOf(err) != KindCorruption {
		t.Errorf("kind = %q, want %q", KindOf(err), KindCorruption)
	}
}

func TestRoundTripDurability(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s1, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	created, err := s1.CreateItem(ctx, ItemInput{
		Name:        "Pen",
		Description: "Blue ink pen",
		Price:       1.99,
		Category:    "stationery",
	})
	if err != nil {
		t.Fatal(err)
	}

	// Reopen the store to simulate a restart.
	s2, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	reloaded, err := s2.GetItemByID(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded == nil {
		t.Fatal("created item not found after reopen")
	}
	if !reflect.DeepEqual(*created, *reloaded) {
		t.Errorf("reloaded item differs:\ncreated:  %+v\nreloaded: %+v", created, reloaded)
	}
}

func TestLockTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s1, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	release, err := s1.guard.acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	s2, err := Open(path, &Options{LockTimeout: 200 * time.Millisecond, LockPoll: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	_, err = s2.GetItemByID(context.Background(), "x")
	if err == nil {
		t.Fatal("expected lock timeout while the lock is held")
	}
	if KindOf(err) != KindLockTimeout {
		t.Errorf("kind = %q, want %q", KindOf(err), KindLockTimeout)
	}

	release()
	if _, err := s2.GetItemByID(context.Background(), "x"); err != nil {
		t.Fatalf("operation should succeed after release: %v", err)
	}
}

func TestGuardReleasedAfterFailedOperation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.UpdateItem(ctx, "missing", ItemPatch{}); KindOf(err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	// The failed mutation must not wedge the lock.
	if _, err := s.CreateItem(ctx, ItemInput{Name: "Pen", Description: "d", Price: 1}); err != nil {
		t.Fatalf("store is wedged after a failed operation: %v", err)
	}
}
