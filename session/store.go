package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/halcyonlabs/authcore/kvstore"
)

const (
	// StorageKey is the fixed key the serialized record lives under.
	StorageKey = "session"

	// LegacyTokenKey is the standalone credential slot older clients
	// wrote next to the record. Cleared together with the session.
	LegacyTokenKey = "primary-credential"
)

// InvalidReason classifies why a session stopped being usable.
type InvalidReason string

const (
	// ReasonExpired means the absolute session deadline passed.
	ReasonExpired InvalidReason = "expired"
	// ReasonIdle means the inactivity window was exceeded.
	ReasonIdle InvalidReason = "idle_timeout"
	// ReasonCorrupt means the stored record failed to decode.
	ReasonCorrupt InvalidReason = "corrupt"
)

// Hooks receives lifecycle notifications. All fields are optional.
type Hooks struct {
	Created     func(rec *Record)
	Invalidated func(reason InvalidReason, rec *Record)
	Extended    func(rec *Record)
}

// Config carries Store construction parameters.
type Config struct {
	// SessionTTL is the absolute session lifetime set at creation and on
	// Extend. Defaults to 24h.
	SessionTTL time.Duration
	// ActivityTimeout is the maximum allowed idle gap. Defaults to 30m.
	ActivityTimeout time.Duration
	// Clock overrides the time source. Nil means time.Now. Tests use this
	// to drive expiry scenarios.
	Clock func() time.Time
	// Hooks receive lifecycle events.
	Hooks Hooks
}

// Store is the canonical owner of the session record and the single source
// of truth for "is the user logged in right now". Every successful read
// counts as activity and re-persists the record.
//
// Store never surfaces storage or parse faults: a record that cannot be
// decoded, or that fails the expiry or inactivity check, is cleared as a
// side effect and reported as no session.
type Store struct {
	kv      *kvstore.Store
	ttl     time.Duration
	idleMax time.Duration
	hooks   Hooks
	now     func() time.Time

	tracker *Tracker
}

// NewStore creates a session store over the shared key-value layer.
func NewStore(kv *kvstore.Store, cfg Config) *Store {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.ActivityTimeout <= 0 {
		cfg.ActivityTimeout = 30 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Store{
		kv:      kv,
		ttl:     cfg.SessionTTL,
		idleMax: cfg.ActivityTimeout,
		hooks:   cfg.Hooks,
		now:     cfg.Clock,
	}
}

// AttachTracker registers the activity tracker started on Create and torn
// down on Clear.
func (s *Store) AttachTracker(t *Tracker) {
	s.tracker = t
}

// Create builds a fresh record for the given credential and user snapshot,
// persists it under the fixed session key (unconditionally replacing any
// prior record), and starts the activity tracker. A record that would fail
// [Decode] is rejected up front.
func (s *Store) Create(ctx context.Context, token string, user User) (*Record, error) {
	if token == "" || user.ID == "" {
		return nil, fmt.Errorf("%w: missing token or user", ErrRecordCorrupt)
	}

	now := s.now().Unix()
	rec := &Record{
		ID:             uuid.NewString(),
		Token:          token,
		User:           user,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      s.now().Add(s.ttl).Unix(),
	}

	data, err := Encode(rec)
	if err != nil {
		return nil, err
	}
	s.kv.Set(ctx, StorageKey, data)

	if s.tracker != nil {
		s.tracker.Start()
	}
	if s.hooks.Created != nil {
		s.hooks.Created(rec)
	}
	return rec, nil
}

// Get reads the stored record. A record that fails to decode, is past its
// absolute deadline, or has exceeded the inactivity window is cleared and
// nil is returned. Otherwise the activity timestamp is bumped to now and
// the record is re-persisted before being returned.
func (s *Store) Get(ctx context.Context) *Record {
	data, ok := s.kv.Get(ctx, StorageKey)
	if !ok {
		return nil
	}

	rec, err := Decode(data)
	if err != nil {
		s.invalidate(ctx, ReasonCorrupt, nil)
		return nil
	}

	now := s.now()
	if now.Unix() > rec.ExpiresAt {
		s.invalidate(ctx, ReasonExpired, rec)
		return nil
	}
	if now.Unix()-rec.LastActivityAt > int64(s.idleMax.Seconds()) {
		s.invalidate(ctx, ReasonIdle, rec)
		return nil
	}

	rec.LastActivityAt = now.Unix()
	if data, err := Encode(rec); err == nil {
		s.kv.Set(ctx, StorageKey, data)
	}
	return rec
}

// UpdateActivity re-reads the session, which bumps the activity timestamp
// as a side effect. Explicit no-arg hook for interaction event handlers.
func (s *Store) UpdateActivity(ctx context.Context) {
	_ = s.Get(ctx)
}

// Extend resets the absolute deadline to now + session TTL for a currently
// valid session. Returns false when no valid session exists.
func (s *Store) Extend(ctx context.Context) bool {
	rec := s.Get(ctx)
	if rec == nil {
		return false
	}

	rec.ExpiresAt = s.now().Add(s.ttl).Unix()
	data, err := Encode(rec)
	if err != nil {
		return false
	}
	s.kv.Set(ctx, StorageKey, data)
	if s.hooks.Extended != nil {
		s.hooks.Extended(rec)
	}
	return true
}

// Clear removes the session record and the legacy standalone credential
// slot, stops the activity tracker, and best-effort clears the stashed
// return path.
func (s *Store) Clear(ctx context.Context) {
	s.kv.Remove(ctx, StorageKey)
	s.kv.Remove(ctx, LegacyTokenKey)
	if s.tracker != nil {
		s.tracker.Stop()
		s.tracker.ClearReturnPath()
	}
}

// IsValid reports whether a usable session exists right now.
func (s *Store) IsValid(ctx context.Context) bool {
	return s.Get(ctx) != nil
}

// Token returns the session credential, or "" when no valid session exists.
func (s *Store) Token(ctx context.Context) string {
	rec := s.Get(ctx)
	if rec == nil {
		return ""
	}
	return rec.Token
}

// UserSnapshot returns the stored user, or nil when no valid session exists.
func (s *Store) UserSnapshot(ctx context.Context) *User {
	rec := s.Get(ctx)
	if rec == nil {
		return nil
	}
	u := rec.User
	return &u
}

func (s *Store) invalidate(ctx context.Context, reason InvalidReason, rec *Record) {
	s.kv.Remove(ctx, StorageKey)
	if s.hooks.Invalidated != nil {
		s.hooks.Invalidated(reason, rec)
	}
}
