// Package session owns the canonical session record: creation on login,
// validity decisions (absolute expiry plus inactivity timeout), activity
// touches, explicit extension, and teardown. It is the single writer of
// the session key in the underlying key-value store.
//
// The package also hosts the activity tracker, which keeps a genuinely
// active session alive and notifies the host application (through a
// [Navigator]) when the session becomes invalid.
package session
