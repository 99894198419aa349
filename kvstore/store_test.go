package kvstore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// brokenBackend fails every call after an optional number of successes.
type brokenBackend struct {
	name     string
	failures bool
	inner    *MemoryBackend
}

func newBrokenBackend(name string) *brokenBackend {
	return &brokenBackend{name: name, failures: true, inner: NewMemoryBackend()}
}

var errBackendDown = errors.New("backend down")

func (b *brokenBackend) Name() string { return b.name }

func (b *brokenBackend) Set(ctx context.Context, key, value string) error {
	if b.failures {
		return errBackendDown
	}
	return b.inner.Set(ctx, key, value)
}

func (b *brokenBackend) Get(ctx context.Context, key string) (string, bool, error) {
	if b.failures {
		return "", false, errBackendDown
	}
	return b.inner.Get(ctx, key)
}

func (b *brokenBackend) Remove(ctx context.Context, key string) error {
	if b.failures {
		return errBackendDown
	}
	return b.inner.Remove(ctx, key)
}

func (b *brokenBackend) Clear(ctx context.Context) error {
	if b.failures {
		return errBackendDown
	}
	return b.inner.Clear(ctx)
}

func (b *brokenBackend) Keys(ctx context.Context) ([]string, error) {
	if b.failures {
		return nil, errBackendDown
	}
	return b.inner.Keys(ctx)
}

func newRedisBackend(t *testing.T) (*RedisBackend, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisBackend(rdb, "ac"), func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func TestDetectPrefersFirstWorkingBackend(t *testing.T) {
	ctx := context.Background()
	backend, done := newRedisBackend(t)
	defer done()

	store := NewStore([]Backend{newBrokenBackend("redis"), backend}, nil)

	if got := store.Mode(ctx); got != "redis" {
		t.Fatalf("expected redis backend selected, got %q", got)
	}
	if !store.IsPersistent(ctx) {
		t.Fatal("expected persistent storage")
	}
}

func TestDetectFallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	store := NewStore([]Backend{newBrokenBackend("redis"), newBrokenBackend("sqlite")}, nil)

	if got := store.Mode(ctx); got != "memory" {
		t.Fatalf("expected memory backend selected, got %q", got)
	}
	if store.IsPersistent(ctx) {
		t.Fatal("memory tier must not report persistence")
	}
}

func TestFallbackTransparency(t *testing.T) {
	ctx := context.Background()

	// Backend passes the canary probe, then fails every later call. The
	// caller must not be able to tell the difference from a memory-only
	// store.
	flaky := newBrokenBackend("redis")
	flaky.failures = false
	store := NewStore([]Backend{flaky}, nil)

	var fallbacks int
	store.OnFallback = func(string, error) { fallbacks++ }

	if got := store.Mode(ctx); got != "redis" {
		t.Fatalf("expected redis selected, got %q", got)
	}
	flaky.failures = true

	store.Set(ctx, "session", "payload")
	v, ok := store.Get(ctx, "session")
	if !ok || v != "payload" {
		t.Fatalf("expected payload from memory fallback, got %q ok=%v", v, ok)
	}

	store.Remove(ctx, "session")
	if _, ok := store.Get(ctx, "session"); ok {
		t.Fatal("expected key removed after fallback remove")
	}

	if fallbacks == 0 {
		t.Fatal("expected fallback hook to fire")
	}
}

func TestRedisBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend, done := newRedisBackend(t)
	defer done()

	if err := backend.Set(ctx, "session", "payload"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := backend.Set(ctx, "sb-proj-auth-token", "{}"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	v, ok, err := backend.Get(ctx, "session")
	if err != nil || !ok || v != "payload" {
		t.Fatalf("get returned %q ok=%v err=%v", v, ok, err)
	}

	keys, err := backend.Keys(ctx)
	if err != nil {
		t.Fatalf("keys failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}

	if err := backend.Remove(ctx, "session"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, ok, _ := backend.Get(ctx, "session"); ok {
		t.Fatal("expected session removed")
	}

	if err := backend.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	keys, _ = backend.Keys(ctx)
	if len(keys) != 0 {
		t.Fatalf("expected empty namespace, got %v", keys)
	}
}

func TestMemoryBackendIsolation(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryBackend()

	if _, ok, _ := mem.Get(ctx, "missing"); ok {
		t.Fatal("expected absent key")
	}
	_ = mem.Set(ctx, "a", "1")
	_ = mem.Set(ctx, "b", "2")
	_ = mem.Clear(ctx)
	keys, _ := mem.Keys(ctx)
	if len(keys) != 0 {
		t.Fatalf("expected cleared map, got %v", keys)
	}
}
