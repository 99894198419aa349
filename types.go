package authcore

import (
	"io"

	internalaudit "github.com/halcyonlabs/authcore/internal/audit"
	"github.com/halcyonlabs/authcore/session"
	"github.com/halcyonlabs/authcore/token"
)

// User is the denormalized principal snapshot stored in the session record.
type User = session.User

// SessionRecord is the persisted session state.
type SessionRecord = session.Record

// Navigator abstracts the host's navigation surface (current path, hard
// redirect to login, ephemeral return-path marker).
type Navigator = session.Navigator

// NoOpNavigator satisfies [Navigator] with no side effects.
type NoOpNavigator = session.NoOpNavigator

// RefreshResult is the settled outcome of a refresh attempt.
type RefreshResult = token.RefreshResult

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit
// dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// Audit event types emitted by the engine.
const (
	EventSessionCreated     = "session.created"
	EventSessionInvalidated = "session.invalidated"
	EventSessionExtended    = "session.extended"
	EventRefreshSuccess     = "refresh.success"
	EventRefreshFailure     = "refresh.failure"
	EventLogout             = "logout"
	EventStorageFallback    = "storage.fallback"
)
