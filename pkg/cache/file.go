package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrCacheMiss indicates the requested key is not in the cache.
var ErrCacheMiss = errors.New("cache miss")

// Store is a page cache backend. Payloads are raw response bodies, stored
// once per key and read back on any later run before the network is
// attempted for that key.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Put(ctx context.Context, key Key, payload []byte) error
}

// FileStore persists one file per key in a cache directory. The directory
// may be shared between sequential runs; file writes go through a temp
// file and rename so a concurrently starting run never observes a
// half-written page.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed cache store, creating the directory
// if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Get reads the cached payload for key. Returns ErrCacheMiss if absent.
func (s *FileStore) Get(_ context.Context, key Key) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, key.Filename()))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("cache read: %w", err)
	}

	CacheHits.WithLabelValues("file").Inc()
	return data, nil
}

// Put writes the payload for key, replacing any existing entry.
func (s *FileStore) Put(_ context.Context, key Key, payload []byte) error {
	tmp, err := os.CreateTemp(s.dir, key.Filename()+".tmp-*")
	if err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("cache temp file: %w", err)
	}

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("cache write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("cache close: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, key.Filename())); err != nil {
		os.Remove(tmp.Name())
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("cache rename: %w", err)
	}
	return nil
}
