// Package memory provides an in-process storage backend. Data is lost when the
// process exits.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-grantforms/pkg/storage"
)

// Store keeps every namespace in a map guarded by a read/write mutex.
type Store struct {
	mu         sync.RWMutex
	namespaces map[string]*bucket
	now        func() time.Time
}

type bucket struct {
	entries map[string]string
	touched time.Time
}

var (
	_ storage.Store       = (*Store)(nil)
	_ storage.BatchSetter = (*Store)(nil)
	_ storage.Pruner      = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now as the source of write timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs an empty store.
func New(opts ...Option) *Store {
	s := &Store{namespaces: make(map[string]*bucket), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.namespaces[namespace]
	if !ok {
		return "", false, nil
	}
	value, ok := b.entries[key]
	return value, ok, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, namespace, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(namespace).entries[key] = value
	return nil
}

// SetMany stores every entry under a single lock.
func (s *Store) SetMany(ctx context.Context, namespace string, entries map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.write(namespace)
	for key, value := range entries {
		b.entries[key] = value
	}
	return nil
}

// Delete removes the given keys. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, namespace string, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.namespaces[namespace]
	if !ok {
		return nil
	}
	for _, key := range keys {
		delete(b.entries, key)
	}
	if len(b.entries) == 0 {
		delete(s.namespaces, namespace)
	}
	return nil
}

// List returns a copy of every entry whose key starts with prefix.
func (s *Store) List(ctx context.Context, namespace, prefix string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string)
	b, ok := s.namespaces[namespace]
	if !ok {
		return out, nil
	}
	for key, value := range b.entries {
		if strings.HasPrefix(key, prefix) {
			out[key] = value
		}
	}
	return out, nil
}

// Prune drops every namespace not written to since cutoff and returns how
// many entries went with them.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for namespace, b := range s.namespaces {
		if b.touched.Before(cutoff) {
			removed += int64(len(b.entries))
			delete(s.namespaces, namespace)
		}
	}
	return removed, nil
}

// Close drops all data.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.namespaces = make(map[string]*bucket)
	return nil
}

// write returns the namespace's bucket, creating it if needed, and marks it
// as written now. Callers hold the write lock.
func (s *Store) write(namespace string) *bucket {
	b, ok := s.namespaces[namespace]
	if !ok {
		b = &bucket{entries: make(map[string]string)}
		s.namespaces[namespace] = b
	}
	b.touched = s.now()
	return b
}
