package kvstore

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const canaryKey = "authcore:canary"

// Store is the process-wide key-value facade. It selects one backend from
// an ordered chain on first use and shields callers from every backend
// failure by falling through to the in-process memory tier.
//
// Set, Get, Remove, Clear, and Keys never report backend errors; a failed
// call is logged and transparently served from memory instead.
type Store struct {
	chain []Backend
	mem   *MemoryBackend
	log   *logrus.Logger

	detectOnce sync.Once
	selected   Backend

	// OnFallback, when set, is invoked each time a call falls through to
	// the memory tier after a backend failure. Wired to metrics and audit
	// by the engine.
	OnFallback func(backend string, err error)
}

// NewStore builds a Store over the given candidate backends, most durable
// first. The memory tier is appended automatically; passing no backends
// yields a memory-only store.
func NewStore(backends []Backend, log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Store{
		chain: backends,
		mem:   NewMemoryBackend(),
		log:   log,
	}
}

// detect probes each candidate with a canary write+delete and caches the
// first one that accepts writes. Runs once per process lifetime.
func (s *Store) detect(ctx context.Context) {
	s.detectOnce.Do(func() {
		canary := uuid.NewString()
		for _, b := range s.chain {
			if err := b.Set(ctx, canaryKey, canary); err != nil {
				s.log.WithError(err).WithField("backend", b.Name()).
					Warn("storage probe failed, trying next tier")
				continue
			}
			if err := b.Remove(ctx, canaryKey); err != nil {
				s.log.WithError(err).WithField("backend", b.Name()).
					Warn("storage probe cleanup failed, trying next tier")
				continue
			}
			s.selected = b
			s.log.WithField("backend", b.Name()).Debug("storage backend selected")
			return
		}
		s.selected = s.mem
		s.log.Warn("no durable storage backend available, using memory")
	})
}

// Mode returns the name of the selected backend.
func (s *Store) Mode(ctx context.Context) string {
	s.detect(ctx)
	return s.selected.Name()
}

// IsPersistent reports whether state survives a process restart. False
// only when the memory tier was selected.
func (s *Store) IsPersistent(ctx context.Context) bool {
	s.detect(ctx)
	return s.selected != s.mem
}

func (s *Store) fallback(backend string, err error) {
	s.log.WithError(err).WithField("backend", backend).
		Warn("storage call failed, serving from memory")
	if s.OnFallback != nil {
		s.OnFallback(backend, err)
	}
}

// Set stores value under key. Never fails observably.
func (s *Store) Set(ctx context.Context, key, value string) {
	s.detect(ctx)
	if err := s.selected.Set(ctx, key, value); err != nil {
		s.fallback(s.selected.Name(), err)
		_ = s.mem.Set(ctx, key, value)
	}
}

// Get returns the value for key and whether it was present. Never fails
// observably; a backend error reads from the memory tier instead.
func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	s.detect(ctx)
	v, ok, err := s.selected.Get(ctx, key)
	if err != nil {
		s.fallback(s.selected.Name(), err)
		v, ok, _ = s.mem.Get(ctx, key)
	}
	return v, ok
}

// Remove deletes key from the selected tier and, always, from the memory
// tier so a fallback write cannot resurrect a removed key.
func (s *Store) Remove(ctx context.Context, key string) {
	s.detect(ctx)
	if err := s.selected.Remove(ctx, key); err != nil {
		s.fallback(s.selected.Name(), err)
	}
	_ = s.mem.Remove(ctx, key)
}

// Clear drops all keys from the selected tier and the memory tier.
func (s *Store) Clear(ctx context.Context) {
	s.detect(ctx)
	if err := s.selected.Clear(ctx); err != nil {
		s.fallback(s.selected.Name(), err)
	}
	_ = s.mem.Clear(ctx)
}

// Keys lists stored keys. Used by the token layer to match legacy
// externally-issued credential blobs by naming pattern.
func (s *Store) Keys(ctx context.Context) []string {
	s.detect(ctx)
	keys, err := s.selected.Keys(ctx)
	if err != nil {
		s.fallback(s.selected.Name(), err)
		keys, _ = s.mem.Keys(ctx)
	}
	return keys
}
