package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bassista/go_fest/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/google/renameio/v2"
)

// FileStore keeps every key in a single JSON object on disk and mirrors it in memory.
// Each mutation rewrites the whole file atomically, so a MultiSet is all-or-nothing.
type FileStore struct {
	path string
	dir  string
	base string

	mu     sync.RWMutex
	values map[string]string
	closed bool
	// written is the file content of the last load or write; Reload skips it
	written []byte
}

// NewFileStore opens (or lazily creates) the JSON store at path.
// A missing file is an empty store; a malformed one is logged and treated as empty.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("store file path is required")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "" || dir == "." {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	s := &FileStore{path: path, dir: dir, base: base, values: map[string]string{}}
	values, raw, err := s.readFile()
	if err != nil {
		return nil, err
	}
	s.values, s.written = values, raw
	return s, nil
}

// readFile loads the on-disk map and returns the raw content with it.
// Corruption degrades to an empty map.
func (s *FileStore) readFile() (map[string]string, []byte, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil, nil
		}
		return nil, nil, fmt.Errorf("read store file: %w", err)
	}
	if len(raw) == 0 {
		return map[string]string{}, raw, nil
	}

	values := map[string]string{}
	if err := json.Unmarshal(raw, &values); err != nil {
		logger.WithComponent("file-store").Warnf("store file %s is malformed, starting empty: %v", s.path, err)
		return map[string]string{}, raw, nil
	}
	return values, raw, nil
}

// writeUnlocked persists next and swaps it in. Caller must hold the write lock.
func (s *FileStore) writeUnlocked(next map[string]string) error {
	payload, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	// renameio handles temp file creation, fsync and atomic rename
	pending, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("create pending store file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.WithComponent("file-store").Debugf("cleanup pending store file: %v", err)
		}
	}()

	if _, err := pending.Write(payload); err != nil {
		return fmt.Errorf("write pending store file: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}

	s.values = next
	s.written = payload
	return nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	return s.MultiSet(ctx, []Pair{{Key: key, Value: value}})
}

func (s *FileStore) MultiGet(_ context.Context, keys []string) ([]Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]Pair, 0, len(keys))
	for _, k := range keys {
		v, ok := s.values[k]
		out = append(out, Pair{Key: k, Value: v, Found: ok})
	}
	return out, nil
}

func (s *FileStore) MultiSet(ctx context.Context, pairs []Pair) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	next := maps.Clone(s.values)
	for _, p := range pairs {
		next[p.Key] = p.Value
	}
	return s.writeUnlocked(next)
}

func (s *FileStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.values[key]; !ok {
		return nil
	}

	next := maps.Clone(s.values)
	delete(next, key)
	return s.writeUnlocked(next)
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Reload re-reads the file into memory, picking up edits made by other processes.
// The lock is held across read and swap so a concurrent write cannot be rolled back,
// and content identical to the last write of this store is ignored.
func (s *FileStore) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	values, raw, err := s.readFile()
	if err != nil {
		return err
	}
	if bytes.Equal(raw, s.written) {
		return nil
	}
	s.values, s.written = values, raw
	return nil
}

// StartWatcher reloads the store when its file changes on disk.
// It watches the parent directory (not the file) so atomic replace sequences (temp+rename)
// are still observed. Events are filtered by basename and debounced to avoid double reloads
// on write+chmod/rename cycles. Cancel ctx to stop the goroutine and close the watcher.
func (s *FileStore) StartWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir: %w", err)
	}

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		schedule := func() {
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, func() {
				if err := s.Reload(); err != nil {
					logger.WithComponent("file-store").Warnf("watch reload failed: %v", err)
					return
				}
				logger.WithComponent("file-store").Debugf("store reloaded from %s", s.path)
			})
		}

		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != s.base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					schedule()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithComponent("file-store").Warnf("watcher error: %v", err)
			}
		}
	}()

	return nil
}
