// Package audit defines the audit event model and the asynchronous
// dispatcher that forwards session-lifecycle and refresh events to a
// host-supplied sink without blocking the hot path.
package audit
