// Package cache manages the shared on-disk directory of downloaded audio
// blobs. Entries are keyed by track ID and reference counted: a file is never
// deleted while any session holds a live reference, and unreferenced entries
// survive a grace period before reclamation so a session about to re-reference
// them does not race the sweeper.
package cache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sglre6355/groovebot/internal/modules/music_player/domain"
)

// IOError reports a cache filesystem failure (disk full, permissions). It is
// fatal for the operation that hit it but never for the session.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// entry tracks one cached file. Reference count mutation and the final
// existence check before unlink happen under the entry's own lock, so
// concurrent acquires for different tracks never contend.
type entry struct {
	mu         sync.Mutex
	path       string
	refs       int
	releasedAt time.Time // last transition to refs == 0
}

// Store is the process-wide audio cache.
type Store struct {
	root  string
	grace time.Duration

	mu      sync.Mutex // guards the entries map only
	entries map[domain.TrackID]*entry

	janitorOnce sync.Once
	stop        chan struct{}
	done        chan struct{}
}

// New creates a Store rooted at dir. Unreferenced entries are reclaimed only
// after they have been unreferenced for at least grace.
func New(dir string, grace time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &IOError{Op: "mkdir", Path: dir, Err: err}
	}
	return &Store{
		root:    dir,
		grace:   grace,
		entries: make(map[domain.TrackID]*entry),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Root returns the cache directory.
func (s *Store) Root() string {
	return s.root
}

// Acquire increments the reference count for the given track and returns its
// file path, or false if the track is not cached.
func (s *Store) Acquire(id domain.TrackID) (string, bool) {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return "", false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.path == "" {
		// Reclaimed between map lookup and lock acquisition.
		return "", false
	}
	e.refs++
	return e.path, true
}

// Release decrements the reference count for the given track. Releasing an
// unknown or already-unreferenced track is a logged no-op; counts never go
// negative.
func (s *Store) Release(id domain.TrackID) {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		slog.Warn("released unknown cache entry", "track_id", id)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.refs == 0 {
		slog.Warn("released unreferenced cache entry", "track_id", id)
		return
	}
	e.refs--
	if e.refs == 0 {
		e.releasedAt = time.Now()
	}
}

// Install atomically moves the file at src into the cache under the given
// track ID and returns the installed path. The new entry starts with one
// reference. Installing over an existing entry replaces its file only if the
// old one is unreferenced; otherwise the existing entry gains the reference
// and src is discarded.
func (s *Store) Install(id domain.TrackID, src string) (string, error) {
	dst := filepath.Join(s.root, entryFileName(id, filepath.Ext(src)))

	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.path != "" {
		// A concurrent preload lost the race against an existing entry.
		e.refs++
		if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove duplicate download", "path", src, "error", err)
		}
		return e.path, nil
	}

	// Rename is atomic within the cache filesystem, so a reader never
	// observes a partial file.
	if err := os.Rename(src, dst); err != nil {
		s.mu.Lock()
		if e.refs == 0 {
			delete(s.entries, id)
		}
		s.mu.Unlock()
		return "", &IOError{Op: "install", Path: dst, Err: err}
	}

	e.path = dst
	e.refs = 1
	return dst, nil
}

// Refs returns the current reference count for a track, or -1 if it is not
// cached. Intended for tests and diagnostics.
func (s *Store) Refs(id domain.TrackID) int {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return -1
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refs
}

// Reclaim sweeps entries that have been unreferenced for longer than the
// grace period as of now, unlinking their files. It returns the number of
// entries removed. The reference count is re-checked under the entry lock
// immediately before unlink.
func (s *Store) Reclaim(now time.Time) int {
	s.mu.Lock()
	candidates := make(map[domain.TrackID]*entry, len(s.entries))
	for id, e := range s.entries {
		candidates[id] = e
	}
	s.mu.Unlock()

	removed := 0
	for id, e := range candidates {
		e.mu.Lock()
		if e.refs != 0 || e.path == "" || now.Sub(e.releasedAt) < s.grace {
			e.mu.Unlock()
			continue
		}
		path := e.path
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to reclaim cache file", "path", path, "error", err)
			e.mu.Unlock()
			continue
		}
		e.path = ""
		e.mu.Unlock()

		s.mu.Lock()
		delete(s.entries, id)
		s.mu.Unlock()

		slog.Debug("reclaimed cache entry", "track_id", id, "path", path)
		removed++
	}
	return removed
}

// StartJanitor launches the periodic reclamation sweep. Safe to call once.
func (s *Store) StartJanitor(interval time.Duration) {
	s.janitorOnce.Do(func() {
		go func() {
			defer close(s.done)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					s.Reclaim(time.Now())
				case <-s.stop:
					return
				}
			}
		}()
	})
}

// Close stops the janitor, if running.
func (s *Store) Close() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

// entryFileName maps a track ID to a filesystem-safe file name.
func entryFileName(id domain.TrackID, ext string) string {
	name := make([]byte, 0, len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.':
			name = append(name, c)
		default:
			name = append(name, '-')
		}
	}
	return string(name) + ext
}
