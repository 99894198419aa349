package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/halcyonlabs/authcore/kvstore"
)

type recordingNavigator struct {
	mu         sync.Mutex
	path       string
	stashed    string
	redirected bool
}

func (n *recordingNavigator) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *recordingNavigator) StashReturnPath(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stashed = path
}

func (n *recordingNavigator) TakeReturnPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	p := n.stashed
	n.stashed = ""
	return p
}

func (n *recordingNavigator) ClearReturnPath() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stashed = ""
}

func (n *recordingNavigator) RedirectToLogin() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirected = true
}

func (n *recordingNavigator) state() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stashed, n.redirected
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestTrackerRedirectsWhenSessionInvalid(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewStore(nil, nil)
	store := NewStore(kv, Config{})
	nav := &recordingNavigator{path: "/dashboard"}

	tracker := NewTracker(store, TrackerConfig{
		CheckInterval: 10 * time.Millisecond,
		Navigator:     nav,
	})
	store.AttachTracker(tracker)

	if _, err := store.Create(ctx, "tok", testUser()); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !tracker.Running() {
		t.Fatal("expected tracker started on session creation")
	}

	// Kill the session behind the tracker's back.
	kv.Remove(ctx, StorageKey)

	waitFor(t, func() bool {
		_, redirected := nav.state()
		return redirected
	})
	if tracker.Running() {
		t.Fatal("expected tracker stopped after redirect")
	}
	if stashed, _ := nav.state(); stashed != "/dashboard" {
		t.Fatalf("expected /dashboard stashed, got %q", stashed)
	}
}

func TestTrackerSkipsStashOnPublicRoute(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewStore(nil, nil)
	store := NewStore(kv, Config{})
	nav := &recordingNavigator{path: "/login"}

	tracker := NewTracker(store, TrackerConfig{
		CheckInterval: 10 * time.Millisecond,
		Navigator:     nav,
	})
	store.AttachTracker(tracker)

	if _, err := store.Create(ctx, "tok", testUser()); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	kv.Remove(ctx, StorageKey)

	waitFor(t, func() bool {
		_, redirected := nav.state()
		return redirected
	})
	if stashed, _ := nav.state(); stashed != "" {
		t.Fatalf("auth route must not be stashed, got %q", stashed)
	}
}

func TestTrackerStopIdempotent(t *testing.T) {
	kv := kvstore.NewStore(nil, nil)
	store := NewStore(kv, Config{})
	tracker := NewTracker(store, TrackerConfig{CheckInterval: 10 * time.Millisecond})

	// Stop before start, double stop, restart: all safe.
	tracker.Stop()
	tracker.Start()
	tracker.Start()
	tracker.Stop()
	tracker.Stop()
	tracker.Start()
	tracker.Stop()

	if tracker.Running() {
		t.Fatal("expected tracker stopped")
	}
}

func TestClearStopsTracker(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewStore(nil, nil)
	store := NewStore(kv, Config{})
	tracker := NewTracker(store, TrackerConfig{CheckInterval: 10 * time.Millisecond})
	store.AttachTracker(tracker)

	if _, err := store.Create(ctx, "tok", testUser()); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	store.Clear(ctx)

	if tracker.Running() {
		t.Fatal("expected tracker stopped by clear")
	}
}
