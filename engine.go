package authcore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	internalaudit "github.com/halcyonlabs/authcore/internal/audit"
	"github.com/halcyonlabs/authcore/kvstore"
	"github.com/halcyonlabs/authcore/permission"
	"github.com/halcyonlabs/authcore/session"
	"github.com/halcyonlabs/authcore/token"
)

// Engine is the single entry point for the session core. Construct it with
// [Builder.Build]; the zero value is not usable. All methods are safe for
// concurrent use.
type Engine struct {
	config   Config
	kv       *kvstore.Store
	sessions *session.Store
	tracker  *session.Tracker
	tokens   *token.Coordinator
	resolver *permission.Resolver
	metrics  *Metrics
	audit    *internalaudit.Dispatcher
}

// Close stops the activity tracker and drains the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.tracker != nil {
		e.tracker.Stop()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

func (e *Engine) emit(event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	e.audit.Emit(context.Background(), event)
}

// CreateSession seeds the core from a successful login or registration:
// it builds a fresh record for the credential and user snapshot, replaces
// any prior record, and starts the activity tracker.
func (e *Engine) CreateSession(ctx context.Context, credential string, user User) (*SessionRecord, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	rec, err := e.sessions.Create(ctx, credential, user)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}
	return rec, nil
}

// Session returns the current record, bumping its activity timestamp, or
// nil when no valid session exists.
func (e *Engine) Session(ctx context.Context) *SessionRecord {
	if e == nil || e.sessions == nil {
		return nil
	}
	start := time.Now()
	rec := e.sessions.Get(ctx)
	e.metrics.Observe(MetricSessionReadLatency, time.Since(start))
	return rec
}

// IsValidSession reports whether a usable session exists right now.
func (e *Engine) IsValidSession(ctx context.Context) bool {
	return e.Session(ctx) != nil
}

// SessionToken returns the session credential, or "".
func (e *Engine) SessionToken(ctx context.Context) string {
	rec := e.Session(ctx)
	if rec == nil {
		return ""
	}
	return rec.Token
}

// SessionUser returns the stored user snapshot, or nil.
func (e *Engine) SessionUser(ctx context.Context) *User {
	rec := e.Session(ctx)
	if rec == nil {
		return nil
	}
	u := rec.User
	return &u
}

// RecordActivity marks a qualifying interaction event. Hosts call this
// from their pointer/key/scroll/touch/click handlers.
func (e *Engine) RecordActivity(ctx context.Context) {
	if e == nil || e.sessions == nil {
		return
	}
	e.sessions.UpdateActivity(ctx)
}

// ExtendSession resets the absolute deadline to now + session timeout.
// Returns false when no valid session exists.
func (e *Engine) ExtendSession(ctx context.Context) bool {
	if e == nil || e.sessions == nil {
		return false
	}
	return e.sessions.Extend(ctx)
}

// ClearSession removes the session and legacy credential slot, stops the
// activity tracker, and clears the stashed return path.
func (e *Engine) ClearSession(ctx context.Context) {
	if e == nil || e.sessions == nil {
		return
	}
	e.sessions.Clear(ctx)
	e.metrics.Inc(MetricLogout)
	e.emit(AuditEvent{EventType: EventLogout, Success: true})
}

// TakeReturnPath hands the stashed post-login destination to the host and
// clears it.
func (e *Engine) TakeReturnPath() string {
	if e == nil || e.tracker == nil {
		return ""
	}
	return e.tracker.TakeReturnPath()
}

// IsTokenExpired reports whether the credential is past or within the
// refresh buffer of its embedded expiry. Fails closed on malformed input.
func (e *Engine) IsTokenExpired(credential string) bool {
	if e == nil || e.tokens == nil {
		return true
	}
	return e.tokens.IsExpired(credential)
}

// ValidToken returns a currently usable credential, or ("", false) when
// the caller must re-authenticate.
func (e *Engine) ValidToken(ctx context.Context) (string, bool) {
	if e == nil || e.tokens == nil {
		return "", false
	}
	return e.tokens.ValidToken(ctx)
}

// RefreshToken is the single-flight refresh entry point. Concurrent
// callers share one in-flight refresh and observe the same result.
func (e *Engine) RefreshToken(ctx context.Context) RefreshResult {
	if e == nil || e.tokens == nil {
		return RefreshResult{Success: false, Reason: ErrEngineNotReady.Error()}
	}
	return e.tokens.Refresh(ctx)
}

// ClearTokens removes the primary credential slot, the session, and any
// legacy externally-issued auth artifacts.
func (e *Engine) ClearTokens(ctx context.Context) {
	if e == nil || e.tokens == nil {
		return
	}
	e.tokens.ClearTokens(ctx)
	e.metrics.Inc(MetricLogout)
	e.emit(AuditEvent{EventType: EventLogout, Success: true})
}

// HasRefreshToken best-effort inspects legacy auth blobs for a
// refresh-capable field.
func (e *Engine) HasRefreshToken(ctx context.Context) bool {
	if e == nil || e.tokens == nil {
		return false
	}
	return e.tokens.HasRefreshToken(ctx)
}

// HasPermission reports whether the user holds the permission through
// their role or subscription tier. An absent user holds nothing.
func (e *Engine) HasPermission(user *User, perm string) bool {
	if e == nil || e.resolver == nil || user == nil {
		return false
	}
	return e.resolver.Has(user.Role, user.SubscriptionTier, perm)
}

// HasAnyPermission reports whether the user holds at least one of the
// permissions.
func (e *Engine) HasAnyPermission(user *User, perms []string) bool {
	if e == nil || e.resolver == nil || user == nil {
		return false
	}
	return e.resolver.HasAny(user.Role, user.SubscriptionTier, perms)
}

// HasAllPermissions reports whether the user holds every permission.
func (e *Engine) HasAllPermissions(user *User, perms []string) bool {
	if e == nil || e.resolver == nil || user == nil {
		return false
	}
	return e.resolver.HasAll(user.Role, user.SubscriptionTier, perms)
}

// UserPermissions returns the full deduplicated permission union for
// display and audit purposes.
func (e *Engine) UserPermissions(user *User) []string {
	if e == nil || e.resolver == nil || user == nil {
		return []string{}
	}
	return e.resolver.Permissions(user.Role, user.SubscriptionTier)
}

// CanAccessFeature reports whether the feature is accessible to the user.
// Ungated features are open to everyone, logged in or not.
func (e *Engine) CanAccessFeature(user *User, feature string) bool {
	if e == nil || e.resolver == nil {
		return false
	}
	if user == nil {
		_, gated := e.resolver.FeatureGate(feature)
		return !gated
	}
	return e.resolver.CanAccessFeature(user.Role, user.SubscriptionTier, feature)
}

// CanAccessRoute reports whether the route is accessible to the user.
// Unguarded routes are open to everyone, logged in or not.
func (e *Engine) CanAccessRoute(user *User, route string) bool {
	if e == nil || e.resolver == nil {
		return false
	}
	if user == nil {
		_, guarded := e.resolver.RouteGuard(route)
		return !guarded
	}
	return e.resolver.CanAccessRoute(user.Role, user.SubscriptionTier, route)
}

// StorageMode names the storage backend in use (redis, sqlite, memory).
func (e *Engine) StorageMode(ctx context.Context) string {
	if e == nil || e.kv == nil {
		return ""
	}
	return e.kv.Mode(ctx)
}

// StoragePersistent reports whether sessions survive a process restart.
func (e *Engine) StoragePersistent(ctx context.Context) bool {
	if e == nil || e.kv == nil {
		return false
	}
	return e.kv.IsPersistent(ctx)
}

// MetricsSnapshot returns a deep copy of the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports audit events discarded due to backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditDroppedByType reports discarded audit events per event type.
func (e *Engine) AuditDroppedByType() map[string]uint64 {
	if e == nil || e.audit == nil {
		return map[string]uint64{}
	}
	return e.audit.DroppedByType()
}
