package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrIO indicates the durable snapshot could not be written. The previous
// snapshot on disk stays intact when it happens.
var ErrIO = errors.New("cache io error")

// Store memoizes expensive reasoning results. It keeps a hot in-memory map
// backed by a single whole-file JSON snapshot: the file is loaded wholesale
// at open and rewritten in full on every Put. Writes are durable before Put
// returns. There is no eviction and no expiry; the store grows with usage.
type Store struct {
	mu   sync.Mutex
	path string
	mem  map[string]string
}

// Open loads the snapshot at path. A missing file starts an empty store; a
// present but unreadable one is an error rather than a silent reset.
func Open(path string) (*Store, error) {
	s := &Store{path: path, mem: make(map[string]string)}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrIO, path, err)
	}
	if err := json.Unmarshal(data, &s.mem); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrIO, path, err)
	}
	return s, nil
}

// Get returns the cached value for key, if any.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.mem[key]
	return v, ok
}

// Put stores key→value and persists the full snapshot before returning.
// Values are never mutated after a successful write; callers only ever
// re-read them or write under a new key.
func (s *Store) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.mem[key]
	s.mem[key] = value
	if err := s.flushLocked(); err != nil {
		if existed {
			s.mem[key] = prev
		} else {
			delete(s.mem, key)
		}
		return err
	}
	return nil
}

// GetOrCompute returns the cached value for key, or runs compute, stores the
// result, and returns it. The hit flag reports whether compute was skipped.
// A compute error stores nothing.
func (s *Store) GetOrCompute(key string, compute func() (string, error)) (string, bool, error) {
	if v, ok := s.Get(key); ok {
		return v, true, nil
	}
	v, err := compute()
	if err != nil {
		return "", false, err
	}
	if err := s.Put(key, v); err != nil {
		return "", false, err
	}
	return v, false, nil
}

// Len reports the number of cached entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mem)
}

// flushLocked rewrites the snapshot with write-then-rename so a failed or
// interrupted write leaves the previous file untouched.
func (s *Store) flushLocked() error {
	data, err := json.Marshal(s.mem)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrIO, err)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}
