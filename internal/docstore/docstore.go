// Package docstore provides durable storage for a single JSON document.
//
// A Store holds one value in memory and tracks a dirty flag. Mutations happen
// under the store's lock and mark the document dirty; a background flusher
// (and an explicit Close) serializes dirty documents to a temporary file and
// atomically renames it over the target path. No caller ever blocks on disk.
package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store is a durable container for one JSON-serializable value.
//
// Thread-safety model:
//   - View(): safe from any goroutine, holds the lock for the callback
//   - Update(): safe from any goroutine, marks the document dirty
//   - Flush(): safe from any goroutine, no-op unless dirty
//
// Callbacks must be short and must not call back into the store.
type Store[T any] struct {
	mu    sync.Mutex
	path  string
	name  string // short name for log lines, e.g. "state.json"
	value *T
	dirty bool

	flushOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// Open loads the document at path, or constructs a default value when the
// file is missing. A file that exists but fails to parse is logged and
// replaced by the default value; the corrupt bytes stay on disk until the
// next successful flush.
func Open[T any](path string, defaults func() *T) *Store[T] {
	s := &Store[T]{
		path: path,
		name: filepath.Base(path),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	s.value = s.loadOrNew(defaults)
	return s
}

func (s *Store[T]) loadOrNew(defaults func() *T) *T {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("document missing, starting from defaults", "doc", s.name, "path", s.path)
		return defaults()
	}
	if err != nil {
		slog.Error("document read failed, starting from defaults", "doc", s.name, "error", err)
		return defaults()
	}

	v := defaults()
	if err := json.Unmarshal(raw, v); err != nil {
		slog.Error("document parse failed, starting from defaults", "doc", s.name, "error", err)
		return defaults()
	}
	return v
}

// Path returns the on-disk location of the document.
func (s *Store[T]) Path() string { return s.path }

// View runs fn with read access to the value under the store's lock.
// fn must not retain the pointer past the call.
func (s *Store[T]) View(fn func(*T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.value)
}

// Update runs fn with write access to the value under the store's lock and
// marks the document dirty.
func (s *Store[T]) Update(fn func(*T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.value)
	s.dirty = true
}

// MarkDirty flags the document for the next flush without mutating it.
func (s *Store[T]) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
}

// Dirty reports whether the document has unflushed changes.
func (s *Store[T]) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush writes the document to disk if it is dirty.
//
// The write is atomic: the value is serialized to a sibling temp file which
// is then renamed over the target path. The dirty flag clears only on
// success, so a failed flush is retried on the next tick.
func (s *Store[T]) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}

	raw, err := json.MarshalIndent(s.value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", s.name, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", s.name, err)
	}

	s.dirty = false
	return nil
}

// TryFlush flushes and logs failures instead of returning them.
// Used by the background flusher, where an error only means "retry later".
func (s *Store[T]) TryFlush() {
	if err := s.Flush(); err != nil {
		slog.Error("document flush failed, will retry", "doc", s.name, "error", err)
	}
}

// StartAutoFlush begins flushing the document on the given interval.
// Safe to call at most once per store; subsequent calls are no-ops.
func (s *Store[T]) StartAutoFlush(interval time.Duration) {
	s.flushOnce.Do(func() {
		go func() {
			defer close(s.done)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					s.TryFlush()
				case <-s.stop:
					return
				}
			}
		}()
	})
}

// Close stops the background flusher and performs a final flush.
func (s *Store[T]) Close() error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	// Only wait for the flusher goroutine if one was started.
	s.flushOnce.Do(func() { close(s.done) })
	<-s.done
	return s.Flush()
}
