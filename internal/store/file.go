package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps one synced identifier per line in a plain text file.
// The full set is loaded at open time; marks are appended and fsynced so a
// crash never loses an acknowledged write. A process-wide mutex makes the
// check-then-mark pair safe across goroutines within one process.
type FileStore struct {
	mu   sync.Mutex
	path string
	ids  map[string]struct{}
	f    *os.File
}

// OpenFile opens (or creates) the identifier file at path.
func OpenFile(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("store file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	ids := make(map[string]struct{})

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		sc := bufio.NewScanner(strings.NewReader(string(data)))
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line != "" {
				ids[line] = struct{}{}
			}
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}

	return &FileStore{path: path, ids: ids, f: f}, nil
}

// HasBeenSynced reports whether id has been recorded.
func (s *FileStore) HasBeenSynced(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return false, errors.New("store is closed")
	}
	_, ok := s.ids[flatten(id)]
	return ok, nil
}

// MarkSynced records id. Recording an already-present id is a no-op.
func (s *FileStore) MarkSynced(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return errors.New("store is closed")
	}

	key := flatten(id)
	if _, ok := s.ids[key]; ok {
		return nil
	}

	if _, err := s.f.WriteString(key + "\n"); err != nil {
		return fmt.Errorf("appending to %s: %w", s.path, err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", s.path, err)
	}

	s.ids[key] = struct{}{}
	return nil
}

// Close releases the underlying file handle.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// flatten maps line-breaking characters in an identifier to spaces so the
// one-line-per-id format stays parseable. Applied on both read and write
// paths, so lookups remain consistent.
func flatten(id string) string {
	if !strings.ContainsAny(id, "\r\n") {
		return id
	}
	id = strings.ReplaceAll(id, "\r", " ")
	return strings.ReplaceAll(id, "\n", " ")
}
