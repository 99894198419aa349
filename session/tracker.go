package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Navigator abstracts the host application's navigation surface: where the
// user currently is, how to send them to re-authentication, and the
// ephemeral "return here after login" marker. Implementations are supplied
// by the host; the core never touches the environment directly.
type Navigator interface {
	CurrentPath() string
	StashReturnPath(path string)
	TakeReturnPath() string
	ClearReturnPath()
	RedirectToLogin()
}

// NoOpNavigator satisfies [Navigator] with no side effects. Used when the
// host has no navigation surface (tests, headless embedding).
type NoOpNavigator struct{}

// CurrentPath always reports the root path.
func (NoOpNavigator) CurrentPath() string { return "/" }

// StashReturnPath discards the path.
func (NoOpNavigator) StashReturnPath(string) {}

// TakeReturnPath reports no stashed path.
func (NoOpNavigator) TakeReturnPath() string { return "" }

// ClearReturnPath does nothing.
func (NoOpNavigator) ClearReturnPath() {}

// RedirectToLogin does nothing.
func (NoOpNavigator) RedirectToLogin() {}

// publicAuthRoutes are never stashed as return paths: landing back on them
// after login would bounce the user straight into the auth flow again.
var publicAuthRoutes = map[string]struct{}{
	"/login":           {},
	"/register":        {},
	"/forgot-password": {},
	"/reset-password":  {},
}

// TrackerConfig carries Tracker construction parameters.
type TrackerConfig struct {
	// CheckInterval is the period of the validity check. Defaults to 60s.
	CheckInterval time.Duration
	// Navigator receives the redirect when the session becomes invalid.
	// Nil means NoOpNavigator.
	Navigator Navigator
	// Logger for tracker lifecycle events. Nil means discard.
	Logger *logrus.Logger
	// OnExpired, when set, fires once per tracker run when the periodic
	// check first finds the session invalid.
	OnExpired func()
}

// Tracker keeps an active session alive and evicts an idle one. Interaction
// events feed RecordActivity; a ticker goroutine re-validates the session
// every interval and, on the first invalid result, stops itself, stashes
// the current path for post-login return, and redirects to login.
//
// Start and Stop are idempotent and safe to call concurrently.
type Tracker struct {
	store    *Store
	interval time.Duration
	nav      Navigator
	log      *logrus.Logger
	expired  func()

	mu      sync.Mutex
	stop    chan struct{}
	running bool
}

// NewTracker creates a tracker over the given session store. The tracker
// is inert until Start, which the store calls on session creation.
func NewTracker(store *Store, cfg TrackerConfig) *Tracker {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.Navigator == nil {
		cfg.Navigator = NoOpNavigator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
		cfg.Logger.SetOutput(io.Discard)
	}
	return &Tracker{
		store:    store,
		interval: cfg.CheckInterval,
		nav:      cfg.Navigator,
		log:      cfg.Logger,
		expired:  cfg.OnExpired,
	}
}

// Start launches the periodic validity check. Calling Start while running
// is a no-op.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.stop = make(chan struct{})
	t.running = true
	go t.run(t.stop)
}

// Stop halts the periodic check. Safe to call when not running.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	close(t.stop)
	t.running = false
}

// Running reports whether the periodic check is active.
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// RecordActivity marks a qualifying interaction event. Host applications
// call this from their pointer/key/scroll/touch/click handlers.
func (t *Tracker) RecordActivity(ctx context.Context) {
	t.store.UpdateActivity(ctx)
}

// TakeReturnPath hands the stashed post-login destination to the host and
// clears it.
func (t *Tracker) TakeReturnPath() string {
	return t.nav.TakeReturnPath()
}

// ClearReturnPath drops any stashed post-login destination.
func (t *Tracker) ClearReturnPath() {
	t.nav.ClearReturnPath()
}

func (t *Tracker) run(stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if t.store.IsValid(context.Background()) {
				continue
			}
			t.sessionExpired()
			return
		}
	}
}

// sessionExpired runs at most once per tracker run, on the first negative
// validity check.
func (t *Tracker) sessionExpired() {
	t.Stop()

	path := t.nav.CurrentPath()
	if _, public := publicAuthRoutes[path]; !public && path != "" {
		t.nav.StashReturnPath(path)
	}

	t.log.WithField("path", path).Info("session no longer valid, redirecting to login")
	if t.expired != nil {
		t.expired()
	}
	t.nav.RedirectToLogin()
}
