package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const fileExt = ".json"

// FileStore keeps one JSON record per key in a directory so cached data
// survives restarts and can be inspected by hand.
//
// Writes go to a temp file in the same directory and are renamed into place,
// so readers only ever see a complete record. A per-key mutex serialises
// get/put on the same key within the process.
type FileStore struct {
	dir   string
	now   func() time.Time
	locks sync.Map // key -> *sync.Mutex
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileClock overrides the clock used to stamp and judge entries.
func WithFileClock(now func() time.Time) FileOption {
	return func(s *FileStore) { s.now = now }
}

// NewFileStore creates the directory if needed and returns a store rooted there.
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	if dir == "" {
		dir = "cache"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	s := &FileStore{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the root directory.
func (s *FileStore) Dir() string { return s.dir }

// Get returns the record for key. A missing, unreadable or corrupt record is
// reported as ErrMiss; the underlying problem is only logged.
func (s *FileStore) Get(ctx context.Context, key string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	mu := s.lock(key)
	mu.Lock()
	defer mu.Unlock()

	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("cache read failed", "key", key, "error", err)
		}
		return Entry{}, ErrMiss
	}
	e, err := decodeEntry(b)
	if err != nil {
		slog.Warn("corrupt cache record", "key", key, "error", err)
		return Entry{}, ErrMiss
	}
	return e, nil
}

// Put stores payload under key, stamped with the current time.
func (s *FileStore) Put(ctx context.Context, key string, payload json.RawMessage, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := Entry{Key: key, Payload: payload, FetchedAt: s.now().UTC(), TTL: Duration(ttl)}
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache record %s: %w", key, err)
	}

	mu := s.lock(key)
	mu.Lock()
	defer mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+safe(key)+"-*")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp record: %w", err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		return fmt.Errorf("replace record %s: %w", key, err)
	}
	return nil
}

// IsFresh reports whether e is within its TTL according to the store clock.
func (s *FileStore) IsFresh(e Entry) bool {
	return e.FreshAt(s.now())
}

// Purge deletes records fetched before now-olderThan and returns how many
// were removed. Unparseable records are removed as well.
//
// The age check is repeated under the key's mutex, so a record rewritten by a
// concurrent Put after the directory scan is kept.
func (s *FileStore) Purge(ctx context.Context, olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("list cache dir: %w", err)
	}
	cutoff := s.now().Add(-olderThan)
	removed := 0
	for _, de := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		if s.purgeFile(filepath.Join(s.dir, name), cutoff) {
			removed++
		}
	}
	return removed, nil
}

// purgeFile removes the record at p when it is older than cutoff or corrupt.
func (s *FileStore) purgeFile(p string, cutoff time.Time) bool {
	b, err := os.ReadFile(p)
	if err != nil {
		return false
	}
	e, err := decodeEntry(b)
	if err != nil {
		// no key to lock; Put only ever renames complete records into place
		return os.Remove(p) == nil
	}
	if !e.FetchedAt.Before(cutoff) {
		return false
	}

	mu := s.lock(e.Key)
	mu.Lock()
	defer mu.Unlock()

	b, err = os.ReadFile(p)
	if err != nil {
		return false
	}
	if e, err := decodeEntry(b); err == nil && !e.FetchedAt.Before(cutoff) {
		return false
	}
	return os.Remove(p) == nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, safe(key)+fileExt)
}

func (s *FileStore) lock(key string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
