package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileStore_PutGet(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	ctx := context.Background()
	key := Key{OID: "2.16.840.1.113883.3.526.3.1567", Offset: 0}
	payload := []byte(`{"resourceType":"ValueSet","expansion":{"contains":[]}}`)

	if err := store.Put(ctx, key, payload); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("Get() = %s, want %s", got, payload)
	}
}

func TestFileStore_Miss(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	_, err = store.Get(context.Background(), Key{OID: "1.2.3", Offset: 0})
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestFileStore_FileNamingContract(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	key := Key{OID: "1.2.3", Version: "20240301", Offset: 500}
	if err := store.Put(context.Background(), key, []byte(`{}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	path := filepath.Join(dir, "vsac-1.2.3-20240301-page-500.json")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected cache file at %s: %v", path, err)
	}
}

func TestFileStore_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	ctx := context.Background()
	key := Key{OID: "1.2.3", Offset: 0}
	if err := store.Put(ctx, key, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	// Overwrite the same key.
	if err := store.Put(ctx, key, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", entry.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("cache dir has %d entries, want 1", len(entries))
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `{"a":2}` {
		t.Errorf("Get() after overwrite = %s, want latest payload", got)
	}
}
